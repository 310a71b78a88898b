package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wbnlp/docmap/pkg/choropleth"
	"github.com/wbnlp/docmap/pkg/colorscale"
	"github.com/wbnlp/docmap/pkg/config"
	"github.com/wbnlp/docmap/pkg/mapstyle"
	"github.com/wbnlp/docmap/pkg/render"
)

func newPageCmd(configFile *string) *cobra.Command {
	var trend, sorted, quiet, latestCSS bool
	var out, valuesFile, title, plotlyURL, themeFile, scaleName string

	cmd := &cobra.Command{
		Use:   "page <source>",
		Short: "Render a standalone HTML page with the animated choropleth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if latestCSS && valuesFile != "" {
				return fmt.Errorf("--values and --latest-css are mutually exclusive")
			}
			cfg := config.Load(*configFile)
			applyFigureDefaults(cmd, cfg, &trend, &sorted)

			rows, err := loadRows(cmd.Context(), cfg, args[0], quiet)
			if err != nil {
				return err
			}
			fig := choropleth.Assemble(rows, choropleth.Options{Title: title, Trend: trend, SortYears: sorted})

			var values colorscale.Values
			switch {
			case valuesFile != "":
				if values, err = readValues(valuesFile, cmd.InOrStdin()); err != nil {
					return err
				}
			case latestCSS:
				values = latestValues(rows, sorted)
			}

			var css string
			if values != nil {
				theme, scale, err := loadStyle(cfg, themeFile, scaleName)
				if err != nil {
					return err
				}
				if css, err = mapstyle.Stylesheet(theme, values, scale, cfg.DynamicColors); err != nil {
					return err
				}
			}

			page, err := render.Page(fig, css, render.PageOptions{Title: title, PlotlyURL: plotlyURL})
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, page)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&valuesFile, "values", "", "JSON object of entity values to inline as map stylesheet")
	cmd.Flags().BoolVar(&latestCSS, "latest-css", false, "Inline a map stylesheet built from the last year's values")
	cmd.Flags().StringVar(&title, "title", "", "Page and figure title")
	cmd.Flags().StringVar(&plotlyURL, "plotly-url", "", "plotly.js script URL")
	cmd.Flags().StringVar(&themeFile, "theme", "", "Path to YAML theme file")
	cmd.Flags().StringVar(&scaleName, "scale", "", "Color scale name")
	cmd.Flags().BoolVar(&trend, "trend", false, "Add the documents per year trend trace")
	cmd.Flags().BoolVar(&sorted, "sort", false, "Order frames chronologically instead of by first appearance")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Disable progress spinner")
	return cmd
}
