package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/obentoo/aurkit/internal/aur"
	"github.com/obentoo/aurkit/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	// searchNoInstall lists matches without offering to install one
	searchNoInstall bool
)

var searchCmd = &cobra.Command{
	Use:   "search <term>...",
	Short: "Search packages and install one of them",
	Long: `Search package names and descriptions, most popular first.

The matches are listed with the best one numbered 1, then you may pick one
to install.

Examples:
  aurkit search yay                 Search and choose a package to install
  aurkit search visual studio code  Multiple words form one search term
  aurkit search --no-install yay    Only list the matches`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runSearch(cmd.Context(), mustLoadApp(), strings.Join(args, " "), searchNoInstall))
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchNoInstall, "no-install", false, "Only list matching packages")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(ctx context.Context, a *app, term string, listOnly bool) error {
	results, err := a.driver.Search(ctx, term)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(a.out, "No packages matched %q\n", term)
		return nil
	}

	output.FprintSearchResults(a.out, searchRows(results))
	if listOnly {
		return nil
	}

	outcome, err := a.driver.InstallSelected(ctx, results)
	if err != nil {
		return err
	}
	return reportOutcome(a, outcome.Package, outcome.Err)
}

func searchRows(pkgs []aur.Package) []output.SearchResult {
	rows := make([]output.SearchResult, len(pkgs))
	for i, p := range pkgs {
		rows[i] = output.SearchResult{Name: p.Name, Version: p.Version, Description: p.Description}
	}
	return rows
}

// reportOutcome prints the result of one install and returns its error.
func reportOutcome(a *app, pkg aur.Package, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s installed\n", output.FormatPackage(pkg.Name), pkg.Version)
	return nil
}
