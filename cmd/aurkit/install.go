package main

import (
	"context"
	"errors"

	"github.com/obentoo/aurkit/internal/common/logger"
	"github.com/obentoo/aurkit/internal/common/process"
	"github.com/obentoo/aurkit/internal/upgrade"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <package>...",
	Short: "Install packages by exact name",
	Long: `Clone or update the package sources in the cache and build them with makepkg.

Examples:
  aurkit install yay               Install a single package
  aurkit install yay paru          Install several packages in order
  aurkit install --noconfirm yay   Install without any confirmation`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runInstall(cmd.Context(), mustLoadApp(), args))
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}

// runInstall installs each name in turn. A failure is reported and the
// remaining packages still proceed. A missing git or makepkg and a user
// abort stop immediately.
func runInstall(ctx context.Context, a *app, names []string) error {
	var failed int
	for _, name := range names {
		details, err := a.driver.Install(ctx, name)
		if err == nil {
			reportOutcome(a, details.Package(), nil)
			continue
		}

		var depErr *process.DependencyMissingError
		if errors.As(err, &depErr) || errors.Is(err, upgrade.ErrAborted) {
			return err
		}
		logger.Error("%s", describeError(err))
		failed++
	}

	if failed > 0 {
		logger.Warn("%d of %d package(s) could not be installed", failed, len(names))
	}
	return nil
}
