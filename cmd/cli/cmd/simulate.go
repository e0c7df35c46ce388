package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"inverter-simulator/internal/analysis"
	"inverter-simulator/internal/simulator"
	"inverter-simulator/internal/strategy"

	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one strategy over a dataset and write the per-interval trace",
	Long: `Run a single simulation. The strategy comes from --strategy, or the config
file's strategy section, or defaults to auto (self-consumption).

Example:
  inverter-sim simulate --data examples/data/sample.csv --config examples/config.yaml --out results/trace.csv`,
	RunE: runSimulate,
}

var (
	outPath      string
	strategyName string
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	addRunFlags(simulateCmd)
	simulateCmd.Flags().StringVar(&outPath, "out", "results/trace.csv", "Output CSV path")
	simulateCmd.Flags().StringVar(&strategyName, "strategy", "", "Strategy name (overrides config)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	in, err := loadRunInputs()
	if err != nil {
		return err
	}
	defer in.logger.Sync()

	strat, err := strategyConfig(in.cfg, strategyName).Build()
	if err != nil {
		return err
	}
	opts := in.cfg.ToOptions()
	opts.Logger = in.logger

	sim, err := simulator.New(in.records, strategy.Func(strat), opts)
	if err != nil {
		return err
	}
	res, err := sim.Run()
	if err != nil {
		return err
	}

	// ensure output dir exists
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if err := simulator.WriteTraceCSV(outPath, res.Records); err != nil {
		return err
	}

	s := analysis.Summarize(strat.Name(), res)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d rows to %s\n", len(res.Records), outPath)
	fmt.Fprintf(out, "Strategy=%s Total cost=$%s Final SOC=%.1f%%\n", s.Strategy, s.TotalCost.StringFixed(2), s.FinalSOC)
	fmt.Fprintf(out, "Grid import=%.2f kWh export=%.2f kWh  Battery in=%.2f kWh out=%.2f kWh\n",
		s.EnergyFromGrid, s.EnergyToGrid, s.BatteryCharged, s.BatteryDischarged)
	if s.InvalidActions > 0 {
		fmt.Fprintf(out, "Skipped %d intervals with an unrecognized action\n", s.InvalidActions)
	}
	return nil
}
