package version

import (
	"fmt"
	"runtime"
)

// Set at build time via -ldflags "-X github.com/obentoo/aurkit/internal/common/version.Version=..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns formatted version information
func Info() string {
	return fmt.Sprintf("aurkit %s\n  commit: %s\n  built: %s\n  go: %s\n  os/arch: %s/%s",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent is sent with every request to the package repository.
func UserAgent() string {
	return "aurkit/" + Version
}
