package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/wbnlp/docmap/pkg/choropleth"
	"github.com/wbnlp/docmap/pkg/config"
)

func newFigureCmd(configFile *string) *cobra.Command {
	var trend, sorted, quiet, pretty bool
	var title string

	cmd := &cobra.Command{
		Use:   "figure <source>",
		Short: "Print the animated choropleth figure of a source as JSON",
		Long: `Print the animated choropleth figure of a source as JSON.

A source is a CSV file, an http(s) URL to a CSV file, an .xlsx workbook,
sqlite:<path> or a postgres:// DSN.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(*configFile)
			applyFigureDefaults(cmd, cfg, &trend, &sorted)

			rows, err := loadRows(cmd.Context(), cfg, args[0], quiet)
			if err != nil {
				return err
			}

			fig := choropleth.Assemble(rows, choropleth.Options{Title: title, Trend: trend, SortYears: sorted})
			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(fig)
		},
	}
	cmd.Flags().BoolVar(&trend, "trend", false, "Add the documents per year trend trace")
	cmd.Flags().BoolVar(&sorted, "sort", false, "Order frames chronologically instead of by first appearance")
	cmd.Flags().StringVar(&title, "title", "", "Figure title")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Disable progress spinner")
	return cmd
}

// applyFigureDefaults takes trend and sort from cfg unless set on the command line.
func applyFigureDefaults(cmd *cobra.Command, cfg *config.Config, trend, sorted *bool) {
	if !cmd.Flags().Changed("trend") {
		*trend = cfg.Trend
	}
	if !cmd.Flags().Changed("sort") {
		*sorted = cfg.SortYears
	}
}
