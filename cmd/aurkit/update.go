package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/obentoo/aurkit/internal/aur"
	"github.com/obentoo/aurkit/internal/common/logger"
	"github.com/obentoo/aurkit/internal/common/output"
	"github.com/obentoo/aurkit/internal/upgrade"
	"github.com/spf13/cobra"
)

var (
	// updateCheck only reports outdated packages
	updateCheck bool
)

var updateCmd = &cobra.Command{
	Use:     "update [package]...",
	Aliases: []string{"upgrade"},
	Short:   "Check installed AUR packages for updates and upgrade them",
	Long: `Compare the installed version of every foreign package (pacman -Qm)
with the version published on the AUR and upgrade the ones that differ.

Any difference between the two versions counts as an update.

Examples:
  aurkit update                 Check all packages and choose what to upgrade
  aurkit update --check         Only list outdated packages
  aurkit update yay paru        Restrict the check to some packages
  aurkit update --noconfirm     Upgrade everything without asking`,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runUpdate(cmd.Context(), mustLoadApp(), args, updateCheck))
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "Only check for updates")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(ctx context.Context, a *app, only []string, checkOnly bool) error {
	installed, err := a.local.Installed(ctx)
	if err != nil {
		return fmt.Errorf("listing installed packages: %w", err)
	}
	installed = filterPackages(installed, only)
	if len(installed) == 0 {
		fmt.Fprintln(a.out, "No AUR packages installed")
		return nil
	}

	logger.Info("checking %d package(s)", len(installed))
	report, err := a.driver.Check(ctx, installed)
	if err != nil {
		return err
	}

	for _, f := range report.Failures {
		logger.Warn("%s: %s", f.Package, describeError(f.Err))
	}
	for _, name := range report.Skipped {
		logger.Debug("%s: ignored", name)
	}

	if len(report.Outdated) == 0 {
		fmt.Fprintln(a.out, "All packages are up to date")
		return nil
	}

	output.FprintOutdated(a.out, outdatedRows(report.Outdated))
	if checkOnly {
		return nil
	}

	outcomes, err := a.driver.Upgrade(ctx, report.Outdated)
	if err != nil && !errors.Is(err, upgrade.ErrNothingToDo) {
		return err
	}

	var failed int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		reportOutcome(a, o.Package, nil)
	}
	if failed > 0 {
		logger.Warn("%d of %d upgrade(s) failed", failed, len(outcomes))
	}
	return nil
}

// filterPackages keeps packages named in only, in their installed order.
// An empty only keeps everything; unknown names are reported.
func filterPackages(pkgs []aur.Package, only []string) []aur.Package {
	if len(only) == 0 {
		return pkgs
	}

	wanted := make(map[string]bool, len(only))
	for _, n := range only {
		wanted[n] = true
	}

	out := make([]aur.Package, 0, len(only))
	for _, p := range pkgs {
		if wanted[p.Name] {
			out = append(out, p)
			delete(wanted, p.Name)
		}
	}
	for _, n := range only {
		if wanted[n] {
			logger.Warn("%s is not an installed AUR package", n)
		}
	}
	return out
}

func outdatedRows(entries []aur.OutdatedEntry) []output.Outdated {
	rows := make([]output.Outdated, len(entries))
	for i, e := range entries {
		rows[i] = output.Outdated{Name: e.Local.Name, LocalVersion: e.Local.Version, RemoteVersion: e.Remote.Version}
	}
	return rows
}
