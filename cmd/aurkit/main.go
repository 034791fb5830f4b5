package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/obentoo/aurkit/internal/common/logger"
	"github.com/obentoo/aurkit/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	quiet     bool
	noColor   bool
	noConfirm bool
)

var rootCmd = &cobra.Command{
	Use:   "aurkit",
	Short: "AUR package helper",
	Long: `Search, install and update packages from the Arch User Repository.

Sources are cloned into a local cache and built with makepkg.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Configure logging based on flags
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor || !output.IsTerminal() {
			output.NoColor()
		}
		if err := logger.Default().EnableFileLogging(""); err != nil {
			logger.Debug("file logging disabled: %v", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Default().Close()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and show all build output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output and build output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noConfirm, "noconfirm", false, "Do not ask for confirmation")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
