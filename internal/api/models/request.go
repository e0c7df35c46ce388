package models

import (
	"inverter-simulator/internal/config"
	"inverter-simulator/internal/data"
)

// SimulateRequest is the body of POST /api/v1/simulate.
type SimulateRequest struct {
	Dataset data.Dataset `json:"dataset"`
	Config  RunConfig    `json:"config"`
	Options RunOptions   `json:"options,omitempty"`
}

// RunConfig carries the battery, site and strategy settings of a run.
type RunConfig struct {
	BatteryFile string                  `json:"battery_file,omitempty"` // preset id, e.g. "powerwall2"
	Battery     config.BatteryConfig    `json:"battery,omitempty"`
	Simulation  config.SimulationConfig `json:"simulation,omitempty"`
	Strategy    config.StrategyConfig   `json:"strategy"`
}

type RunOptions struct {
	LimitIntervals int  `json:"limit_intervals,omitempty"` // 0 = all
	IncludeTrace   bool `json:"include_trace,omitempty"`
}

// CompareRequest is the body of POST /api/v1/simulate/compare. Every strategy
// runs with the same battery and site settings.
type CompareRequest struct {
	Dataset    data.Dataset    `json:"dataset"`
	BaseConfig RunConfig       `json:"base_config"`
	Strategies []NamedStrategy `json:"strategies" binding:"required,min=1"`
	Options    RunOptions      `json:"options,omitempty"`
}

type NamedStrategy struct {
	Label    string                `json:"label,omitempty"`
	Strategy config.StrategyConfig `json:"strategy"`
}
