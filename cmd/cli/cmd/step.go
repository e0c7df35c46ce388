package cmd

import (
	"fmt"

	"inverter-simulator/internal/simulator"
	"inverter-simulator/internal/strategy"

	"github.com/spf13/cobra"
)

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Step through the first intervals one at a time and print each decision",
	Long: `Drive the simulator by hand: read the state snapshot, ask the strategy for an
action, apply it, repeat. Useful for checking what a strategy sees.

Example:
  inverter-sim step --data examples/data/sample.csv --strategy price --n 12`,
	RunE: runStep,
}

func init() {
	rootCmd.AddCommand(stepCmd)
	addRunFlags(stepCmd)
	stepCmd.Flags().StringVar(&strategyName, "strategy", "", "Strategy name (overrides config)")
}

func runStep(cmd *cobra.Command, args []string) error {
	in, err := loadRunInputs()
	if err != nil {
		return err
	}
	defer in.logger.Sync()
	if limitN <= 0 && len(in.records) > 12 {
		in.records = in.records[:12]
	}

	strat, err := strategyConfig(in.cfg, strategyName).Build()
	if err != nil {
		return err
	}
	opts := in.cfg.ToOptions()
	opts.Logger = in.logger
	// Run is not used here, so the control function is never called by the simulator.
	sim, err := simulator.New(in.records, strategy.Func(strat), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %d intervals, strategy=%s, grid limit=%.0f W\n", len(in.records), strat.Name(), sim.GridLimit())
	fmt.Fprintf(out, "Starting charge=%.1f Wh (%.1f%%)\n\n", sim.Battery().StoredEnergy(), sim.Battery().SOC())

	for i := 0; i < len(in.records); i++ {
		st, err := sim.State()
		if err != nil {
			return err
		}
		action, reason := strat.Decide(sim.CurrentInterval(), st)
		if err := sim.ApplyAction(action, reason); err != nil {
			return err
		}
		tr := sim.Trace()
		last := tr.Len() - 1
		fmt.Fprintf(out, "%s house=%6.0f solar=%6.0f buy=%6.3f sell=%6.3f  %-9s soc=%5.1f%%  grid=%+7.0f W  cost=%+8.4f  (%s)\n",
			st.LocalTime.Format("2006-01-02 15:04"),
			st.HousePower,
			st.SolarPower,
			st.BuyPrice,
			st.SellPrice,
			action,
			tr.BatterySOCs[last],
			tr.Balances[last],
			tr.SimCosts[last],
			reason,
		)
	}

	fmt.Fprintf(out, "\nDone. Final SOC=%.1f%%  Running cost=$%.2f\n", sim.Battery().SOC(), sim.RunningCost())
	return nil
}
