package strategy

import (
	"fmt"
	"strings"

	"inverter-simulator/internal/model"
)

// ParameterInfo describes one tunable of a built-in strategy.
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "string", "action"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// Info describes a built-in strategy.
type Info struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// Catalog lists the strategies Build knows about.
func Catalog() []Info {
	return []Info{
		{
			Name:        "fixed",
			Description: "Returns the same action every interval. action=auto is the self-consumption baseline.",
			Parameters: []ParameterInfo{
				{Name: "action", Type: "action", Description: "One of charge, discharge, auto, stopped, export, import", Default: "auto"},
			},
		},
		{
			Name:        "schedule",
			Description: "Daily time windows: import from grid, export to grid, fallback action otherwise.",
			Parameters: []ParameterInfo{
				{Name: "import_start", Type: "string", Description: "Start of grid charging (HH:MM)", Default: "00:00"},
				{Name: "import_end", Type: "string", Description: "End of grid charging (HH:MM)", Default: "04:00"},
				{Name: "export_start", Type: "string", Description: "Start of forced export (HH:MM)", Default: "17:00"},
				{Name: "export_end", Type: "string", Description: "End of forced export (HH:MM)", Default: "20:00"},
				{Name: "fallback", Type: "action", Description: "Action outside the windows", Default: "auto"},
			},
		},
		{
			Name:        "price",
			Description: "Threshold strategy on the current buy and sell prices.",
			Parameters: []ParameterInfo{
				{Name: "import_below", Type: "float", Description: "Import when buy price <= this", Default: 0.0},
				{Name: "export_above", Type: "float", Description: "Export when sell price >= this", Default: 1.0},
				{Name: "min_export_soc", Type: "float", Description: "Do not force export below this SOC (%)", Default: 20.0},
				{Name: "max_import_soc", Type: "float", Description: "Stop forcing import at this SOC (%)", Default: 100.0},
			},
		},
	}
}

// Build constructs a built-in strategy from a name and a loosely typed parameter map
// (as decoded from YAML or JSON).
func Build(name string, params map[string]any) (Strategy, error) {
	switch name {
	case "fixed", "":
		a, err := actionParam(params, "action", model.ActionAuto)
		if err != nil {
			return nil, err
		}
		return &FixedStrategy{Action: a}, nil
	case "schedule":
		fb, err := actionParam(params, "fallback", model.ActionAuto)
		if err != nil {
			return nil, err
		}
		return NewScheduleStrategy(ScheduleParams{
			ImportStart: strParam(params, "import_start", "00:00"),
			ImportEnd:   strParam(params, "import_end", "04:00"),
			ExportStart: strParam(params, "export_start", "17:00"),
			ExportEnd:   strParam(params, "export_end", "20:00"),
			Fallback:    fb,
		})
	case "price":
		return NewPriceStrategy(PriceParams{
			ImportBelow:  numParam(params, "import_below", 0),
			ExportAbove:  numParam(params, "export_above", 1),
			MinExportSOC: numParam(params, "min_export_soc", 20),
			MaxImportSOC: numParam(params, "max_import_soc", 100),
		})
	default:
		// Allow "auto", "stopped", ... as shorthand for a fixed strategy.
		if a, ok := model.ParseAction(name); ok {
			return &FixedStrategy{Action: a}, nil
		}
		return nil, fmt.Errorf("unsupported strategy: %q", name)
	}
}

func actionParam(m map[string]any, key string, def model.Action) (model.Action, error) {
	s := strParam(m, key, "")
	if s == "" {
		return def, nil
	}
	a, ok := model.ParseAction(s)
	if !ok {
		return model.ActionUnknown, fmt.Errorf("%s: unknown action %q", key, s)
	}
	return a, nil
}

func numParam(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key]; ok && v != nil {
		switch x := v.(type) {
		case float64:
			return x
		case float32:
			return float64(x)
		case int:
			return float64(x)
		case int64:
			return float64(x)
		}
	}
	return def
}

func strParam(m map[string]any, key string, def string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return def
}
