package main

import (
	"github.com/spf13/cobra"

	"github.com/wbnlp/docmap/pkg/config"
	"github.com/wbnlp/docmap/pkg/mapstyle"
)

func newCSSCmd(configFile *string) *cobra.Command {
	var staticOnly, noDynamic bool
	var out, themeFile, scaleName string

	cmd := &cobra.Command{
		Use:   "css [values.json|-]",
		Short: "Print the world map stylesheet for an ordered entity to value object",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(*configFile)
			theme, scale, err := loadStyle(cfg, themeFile, scaleName)
			if err != nil {
				return err
			}

			if staticOnly {
				css, err := mapstyle.BuildStaticStyle(theme)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), out, css+"\n")
			}

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			values, err := readValues(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			dynamic := cfg.DynamicColors && !noDynamic
			css, err := mapstyle.Stylesheet(theme, values, scale, dynamic)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, css+"\n")
		},
	}
	cmd.Flags().BoolVar(&staticOnly, "static-only", false, "Print only the data independent part")
	cmd.Flags().BoolVar(&noDynamic, "no-dynamic", false, "Fill every entity with the theme's high color")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&themeFile, "theme", "", "Path to YAML theme file")
	cmd.Flags().StringVar(&scaleName, "scale", "", "Color scale name")
	return cmd
}
