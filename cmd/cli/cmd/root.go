package cmd

import (
	"fmt"
	"os"
	"strings"

	"inverter-simulator/internal/config"
	"inverter-simulator/internal/data"
	"inverter-simulator/internal/logging"
	"inverter-simulator/internal/model"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "inverter-sim",
	Short: "Replay household energy data through a simulated battery inverter",
	Long: `inverter-sim replays interval data (house load, solar, tariff prices) through a
home battery model, lets a control strategy pick an action for every interval and
prices the resulting grid import and export.

Examples:
  inverter-sim simulate --data examples/data/sample.csv --config examples/config.yaml
  inverter-sim compare --data examples/data/sample.csv --strategies auto,price,schedule
  inverter-sim strategies`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional
		_ = godotenv.Load()
	},
}

var (
	dataPath string
	cfgPath  string
	limitN   int
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default: config log_level, then LOG_LEVEL, then info)")
}

// addRunFlags registers the flags shared by commands that run simulations.
func addRunFlags(c *cobra.Command) {
	c.Flags().StringVar(&dataPath, "data", "", "Path to a dataset (.csv or .json) (required)")
	c.Flags().StringVar(&cfgPath, "config", "", "Path to YAML config (optional)")
	c.Flags().IntVar(&limitN, "n", 0, "Optional: limit to first N intervals (0=all)")
	_ = c.MarkFlagRequired("data")
}

type runInputs struct {
	records []model.IntervalRecord
	cfg     *config.Config
	logger  *zap.Logger
}

func loadRunInputs() (*runInputs, error) {
	cfg := &config.Config{}
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	logger, err := logging.New(level)
	if err != nil {
		return nil, err
	}

	records, err := data.Load(dataPath)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	if limitN > 0 && limitN < len(records) {
		records = records[:limitN]
	}
	return &runInputs{records: records, cfg: cfg, logger: logger}, nil
}

// strategyConfig picks params from the config file when it names the same strategy.
func strategyConfig(cfg *config.Config, name string) config.StrategyConfig {
	name = strings.TrimSpace(name)
	if name == "" || name == cfg.Strategy.Name {
		return cfg.Strategy
	}
	return config.StrategyConfig{Name: name}
}
