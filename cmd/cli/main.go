package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wbnlp/docmap/pkg/config"
)

func newRootCmd() *cobra.Command {
	var configFile string
	var logLevel string

	rootCmd := &cobra.Command{
		Use:          "docmap",
		Short:        "Build animated choropleth figures and world map stylesheets from document counts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd.ErrOrStderr(), logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.ConstantConfigFilename, "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, notice, warn, error)")

	rootCmd.AddCommand(newFigureCmd(&configFile))
	rootCmd.AddCommand(newPageCmd(&configFile))
	rootCmd.AddCommand(newCSSCmd(&configFile))
	rootCmd.AddCommand(newScaleCmd())
	rootCmd.AddCommand(newStatusCmd(&configFile))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
