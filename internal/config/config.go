package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"inverter-simulator/internal/model"
	"inverter-simulator/internal/simulator"
	"inverter-simulator/internal/strategy"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Optional: load battery parameters from a separate YAML (e.g. examples/batteries/*.yaml).
	// If both BatteryFile and Battery are provided, Battery overrides BatteryFile.
	BatteryFile string           `yaml:"battery_file"`
	Battery     BatteryConfig    `yaml:"battery"`
	Simulation  SimulationConfig `yaml:"simulation"`
	Strategy    StrategyConfig   `yaml:"strategy"`
}

// BatteryConfig mirrors model.BatteryParams. Pointer fields are the ones where
// zero is a meaningful value.
type BatteryConfig struct {
	Name          string   `yaml:"name" json:"name,omitempty"`
	CapacityWh    float64  `yaml:"capacity_wh" json:"capacity_wh,omitempty"`
	ChargeRateW   float64  `yaml:"charge_rate_w" json:"charge_rate_w,omitempty"`
	InitialCharge *float64 `yaml:"initial_charge_wh" json:"initial_charge_wh,omitempty"`
	LossPercent   *float64 `yaml:"loss_percent" json:"loss_percent,omitempty"`
	MinSOC        *float64 `yaml:"min_soc" json:"min_soc,omitempty"`
}

// SimulationConfig holds the site and run settings.
type SimulationConfig struct {
	GridLimitW      *float64 `yaml:"grid_limit_w" json:"grid_limit_w,omitempty"`
	Tariff          string   `yaml:"tariff" json:"tariff,omitempty"`
	Network         string   `yaml:"network" json:"network,omitempty"`
	State           string   `yaml:"state" json:"state,omitempty"`
	MaxPPVPowerW    float64  `yaml:"max_ppv_power" json:"max_ppv_power,omitempty"`
	IntervalMinutes int      `yaml:"interval_minutes" json:"interval_minutes,omitempty"`
	Timezone        string   `yaml:"timezone" json:"timezone,omitempty"`
	Latitude        *float64 `yaml:"latitude" json:"latitude,omitempty"`
	Longitude       *float64 `yaml:"longitude" json:"longitude,omitempty"`
}

type StrategyConfig struct {
	Name   string         `yaml:"name" json:"name"`
	Params map[string]any `yaml:"params" json:"params,omitempty"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	// If battery_file is set, load it and merge in any explicit overrides from c.Battery.
	if c.BatteryFile != "" {
		batteryPath := c.BatteryFile
		if !filepath.IsAbs(batteryPath) {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), batteryPath)
			if _, err := os.Stat(cand); err == nil {
				batteryPath = cand
			}
		}
		loaded, err := LoadBatteryFile(batteryPath)
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, c.Battery)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Simulation.IntervalMinutes < 0 {
		return fmt.Errorf("simulation.interval_minutes must be > 0, got %d", c.Simulation.IntervalMinutes)
	}
	// Validate battery params by constructing a model.Battery.
	params, initial := c.Battery.ToModelParams()
	if _, err := model.NewBattery(params, initial); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	if _, err := c.Strategy.Build(); err != nil {
		return fmt.Errorf("strategy config invalid: %w", err)
	}
	return nil
}

// ToModelParams applies defaults and returns the battery params and initial charge.
func (b BatteryConfig) ToModelParams() (model.BatteryParams, float64) {
	p := model.DefaultBatteryParams()
	if b.CapacityWh != 0 {
		p.Capacity = b.CapacityWh
	}
	if b.ChargeRateW != 0 {
		p.ChargeRate = b.ChargeRateW
	}
	if b.LossPercent != nil {
		p.LossRate = *b.LossPercent
	}
	if b.MinSOC != nil {
		p.MinSOC = *b.MinSOC
	}
	initial := p.Capacity / 2
	if b.InitialCharge != nil {
		initial = *b.InitialCharge
	}
	return p, initial
}

// ToOptions maps the configuration onto simulator options. The logger is set by the caller.
func (c *Config) ToOptions() simulator.Options {
	return simulator.Options{
		BatteryCapacity: c.Battery.CapacityWh,
		ChargeRate:      c.Battery.ChargeRateW,
		BatteryCharge:   c.Battery.InitialCharge,
		BatteryLoss:     c.Battery.LossPercent,
		MinSOC:          c.Battery.MinSOC,
		GridLimit:       c.Simulation.GridLimitW,
		Tariff:          c.Simulation.Tariff,
		Network:         c.Simulation.Network,
		State:           c.Simulation.State,
		MaxPPVPower:     c.Simulation.MaxPPVPowerW,
		Interval:        c.Simulation.IntervalMinutes,
		Timezone:        c.Simulation.Timezone,
		Latitude:        c.Simulation.Latitude,
		Longitude:       c.Simulation.Longitude,
	}
}

// Build constructs the configured strategy. An empty name means fixed/auto.
func (s StrategyConfig) Build() (strategy.Strategy, error) {
	return strategy.Build(s.Name, s.Params)
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

// LoadBatteryFile reads a battery preset file with a top-level "battery:" key.
func LoadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return w.Battery, nil
}

// MergeBattery overlays set fields from override onto base.
// This is used when loading a battery file and then applying overrides from the request.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.CapacityWh != 0 {
		out.CapacityWh = override.CapacityWh
	}
	if override.ChargeRateW != 0 {
		out.ChargeRateW = override.ChargeRateW
	}
	if override.InitialCharge != nil {
		out.InitialCharge = override.InitialCharge
	}
	if override.LossPercent != nil {
		out.LossPercent = override.LossPercent
	}
	if override.MinSOC != nil {
		out.MinSOC = override.MinSOC
	}
	return out
}
