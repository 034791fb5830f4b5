package main

import (
	"fmt"

	"github.com/obentoo/aurkit/internal/cache"
	"github.com/obentoo/aurkit/internal/common/logger"
	"github.com/obentoo/aurkit/internal/common/output"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached package sources",
	Long:  `Commands for listing and removing package sources kept in the cache directory.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached package sources and their last build",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runCacheList(mustLoadApp()))
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean [package]...",
	Short: "Remove cached package sources",
	Long: `Remove the cached sources of the given packages, or of every package
when none is given. Build history is kept.

Examples:
  aurkit cache clean          Remove all cached sources
  aurkit cache clean yay      Remove the sources of yay`,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runCacheClean(mustLoadApp(), args))
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheList(a *app) error {
	names, err := a.cache.List()
	if err != nil {
		return err
	}

	var entries []cache.Entry
	if a.ledger != nil {
		entries = a.ledger.List()
	}
	if len(names) == 0 && len(entries) == 0 {
		fmt.Fprintf(a.out, "Cache %s is empty\n", a.cache.Root())
		return nil
	}

	cached := make(map[string]bool, len(names))
	for _, n := range names {
		cached[n] = true
	}
	built := make(map[string]cache.Entry, len(entries))
	for _, e := range entries {
		built[e.Package] = e
	}

	fmt.Fprintln(a.out, output.Header.Sprint(a.cache.Root()))
	for _, n := range names {
		fmt.Fprintf(a.out, "  %s %s\n", output.FormatPackage(n), formatEntry(built[n]))
	}
	for _, e := range entries {
		if !cached[e.Package] {
			fmt.Fprintf(a.out, "  %s %s %s\n", output.FormatPackage(e.Package), formatEntry(e), output.Dim.Sprint("(not cached)"))
		}
	}
	return nil
}

func formatEntry(e cache.Entry) string {
	switch e.Status {
	case cache.StatusBuilt:
		return output.Success.Sprintf("%s built %s", e.Version, e.Time.Format("2006-01-02"))
	case cache.StatusFailed:
		return output.Error.Sprintf("%s failed %s", e.Version, e.Time.Format("2006-01-02"))
	default:
		return output.Dim.Sprint("never built")
	}
}

func runCacheClean(a *app, names []string) error {
	if len(names) == 0 {
		var err error
		names, err = a.cache.List()
		if err != nil {
			return err
		}
	}

	for _, n := range names {
		if err := a.cache.Purge(n); err != nil {
			return err
		}
		logger.Debug("removed %s", a.cache.Path(n))
	}
	fmt.Fprintf(a.out, "Removed %d cached package(s)\n", len(names))
	return nil
}
