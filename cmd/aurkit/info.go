package main

import (
	"context"
	"fmt"

	"github.com/obentoo/aurkit/internal/common/output"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <package>",
	Short: "Show package details",
	Long: `Show the published version, description and source of a package,
together with its local cache and build state.

Examples:
  aurkit info yay`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runInfo(cmd.Context(), mustLoadApp(), args[0]))
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(ctx context.Context, a *app, name string) error {
	d, err := a.client.Details(ctx, name)
	if err != nil {
		return err
	}

	fields := []output.Field{
		{Label: "Name", Value: output.FormatPackage(d.Name)},
		{Label: "Version", Value: d.Version},
		{Label: "Description", Value: d.Description},
		{Label: "Upstream URL", Value: d.UpstreamURL},
		{Label: "Git Clone URL", Value: d.CloneURL},
		{Label: "Maintainer", Value: d.Maintainer},
	}

	cached, err := a.cache.Exists(d.Name)
	if err != nil {
		return err
	}
	if cached {
		fields = append(fields, output.Field{Label: "Cached", Value: a.cache.Path(d.Name)})
	}
	if a.ledger != nil {
		if e, ok := a.ledger.Get(d.Name); ok {
			fields = append(fields, output.Field{
				Label: "Last build",
				Value: fmt.Sprintf("%s %s (%s)", e.Status, e.Version, e.Time.Format("2006-01-02 15:04")),
			})
		}
	}

	output.FprintFields(a.out, fields)
	return nil
}
