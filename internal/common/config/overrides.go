package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// PackageOverride customises how a single package is tracked and fetched.
type PackageOverride struct {
	// Ignore excludes the package from update checks
	Ignore bool `toml:"ignore,omitempty"`
	// CloneURL replaces the default <aur>/<name>.git source repository
	CloneURL string `toml:"clone_url,omitempty"`
	// Branch replaces the default branch used for pulls
	Branch string `toml:"branch,omitempty"`
}

// Overrides is the parsed packages.toml:
//
//	[packages.google-chrome]
//	ignore = true
//
//	[packages.my-fork]
//	clone_url = "https://example.org/my-fork.git"
//	branch = "main"
type Overrides struct {
	Packages map[string]PackageOverride `toml:"packages"`
}

// LoadOverrides reads packages.toml. A missing file yields empty overrides.
func LoadOverrides(path string) (*Overrides, error) {
	o := &Overrides{Packages: make(map[string]PackageOverride)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return o, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if o.Packages == nil {
		o.Packages = make(map[string]PackageOverride)
	}

	return o, nil
}

// Get returns the override for name, or the zero value.
func (o *Overrides) Get(name string) PackageOverride {
	if o == nil {
		return PackageOverride{}
	}
	return o.Packages[name]
}

// Ignored reports whether name is excluded from update checks.
func (o *Overrides) Ignored(name string) bool {
	return o.Get(name).Ignore
}
