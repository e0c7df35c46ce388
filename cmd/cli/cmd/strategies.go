package cmd

import (
	"fmt"

	"inverter-simulator/internal/strategy"

	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List built-in strategies and their parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, info := range strategy.Catalog() {
			fmt.Fprintf(out, "%s\n  %s\n", info.Name, info.Description)
			for _, p := range info.Parameters {
				fmt.Fprintf(out, "    %-16s %-7s %v  %s\n", p.Name, p.Type, p.Default, p.Description)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
