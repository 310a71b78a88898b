package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wbnlp/docmap/pkg/colorscale"
)

func newScaleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scale [<name> <t>...]",
		Short: "List the color scales or print the colors of a scale at positions in [0,1]",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return fmt.Errorf("scale %q needs at least one position", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				_, err := fmt.Fprintln(w, strings.Join(colorscale.Names(), "\n"))
				return err
			}

			g, err := colorscale.Named(args[0])
			if err != nil {
				return err
			}
			for _, arg := range args[1:] {
				t, err := parsePosition(arg)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(w, "%s\t%s\n", arg, g.Color(t).Hex()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
