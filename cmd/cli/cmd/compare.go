package cmd

import (
	"fmt"
	"strings"

	"inverter-simulator/internal/analysis"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Rank several strategies by total cost against a battery-idle baseline",
	Long: `Run each strategy on a fresh simulator over the same data and rank them by cost.
Savings are measured against a baseline with the battery stopped.

Example:
  inverter-sim compare --data examples/data/sample.csv --config examples/config.yaml --strategies auto,price,schedule`,
	RunE: runCompare,
}

var strategyList string

func init() {
	rootCmd.AddCommand(compareCmd)
	addRunFlags(compareCmd)
	compareCmd.Flags().StringVar(&strategyList, "strategies", "auto,schedule,price", "Comma-separated strategy names")
}

func runCompare(cmd *cobra.Command, args []string) error {
	in, err := loadRunInputs()
	if err != nil {
		return err
	}
	defer in.logger.Sync()

	var candidates []analysis.Candidate
	for _, name := range strings.Split(strategyList, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s, err := strategyConfig(in.cfg, name).Build()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		candidates = append(candidates, analysis.Candidate{Label: name, Strategy: s})
	}
	if len(candidates) == 0 {
		return fmt.Errorf("--strategies is empty")
	}

	opts := in.cfg.ToOptions()
	opts.Logger = in.logger
	cmp, err := analysis.Compare(in.records, opts, candidates)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Baseline (battery idle): $%s over %d intervals\n\n", cmp.Baseline.TotalCost.StringFixed(2), cmp.Baseline.Intervals)
	fmt.Fprintf(out, "%-4s %-16s %-10s %-10s %-10s %-10s %-8s\n", "rank", "strategy", "cost$", "savings$", "import", "export", "soc%")
	for _, r := range cmp.Ranked {
		fmt.Fprintf(out, "%-4d %-16s %-10s %-10s %-10.2f %-10.2f %-8.1f\n",
			r.Rank,
			r.Strategy,
			r.TotalCost.StringFixed(2),
			r.Savings.StringFixed(2),
			r.EnergyFromGrid,
			r.EnergyToGrid,
			r.FinalSOC,
		)
	}
	return nil
}
