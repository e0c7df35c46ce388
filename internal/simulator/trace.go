package simulator

import (
	"time"

	"inverter-simulator/internal/model"
)

// Trace is the per-interval history of a run. Every slice has one entry per
// processed interval; append keeps them the same length.
type Trace struct {
	Actions        []model.Action
	Reasons        []string
	SolarPowers    []float64
	Charges        []float64
	Discharges     []float64
	BatteryCharges []float64
	BatterySOCs    []float64
	Balances       []float64
	PowerFromGrid  []float64 // kW
	PowerToGrid    []float64 // kW
	SimCosts       []float64
}

// step is one interval's worth of trace values.
type step struct {
	action        model.Action
	reason        string
	solarPower    float64
	charge        float64
	discharge     float64
	batteryCharge float64
	batterySOC    float64
	balance       float64
	powerFromGrid float64
	powerToGrid   float64
	cost          float64
}

func (t *Trace) append(s step) {
	t.Actions = append(t.Actions, s.action)
	t.Reasons = append(t.Reasons, s.reason)
	t.SolarPowers = append(t.SolarPowers, s.solarPower)
	t.Charges = append(t.Charges, s.charge)
	t.Discharges = append(t.Discharges, s.discharge)
	t.BatteryCharges = append(t.BatteryCharges, s.batteryCharge)
	t.BatterySOCs = append(t.BatterySOCs, s.batterySOC)
	t.Balances = append(t.Balances, s.balance)
	t.PowerFromGrid = append(t.PowerFromGrid, s.powerFromGrid)
	t.PowerToGrid = append(t.PowerToGrid, s.powerToGrid)
	t.SimCosts = append(t.SimCosts, s.cost)
}

// Len is the number of intervals processed.
func (t *Trace) Len() int { return len(t.Actions) }

// TotalCost sums the per-interval costs.
func (t *Trace) TotalCost() float64 {
	sum := 0.0
	for _, c := range t.SimCosts {
		sum += c
	}
	return sum
}

// AnnotatedRecord is an input row joined with everything the simulator traced for it.
type AnnotatedRecord struct {
	model.IntervalRecord

	Action        model.Action `json:"action"`
	Reason        string       `json:"reason"`
	Charge        float64      `json:"charge"`
	Discharge     float64      `json:"discharge"`
	BatteryCharge float64      `json:"battery_charge"`
	BatterySOC    float64      `json:"battery_soc"`
	Balance       float64      `json:"balance"`

	// Grid power is the average over the interval in kW; energy is the kWh
	// that power moves in one interval.
	PowerFromGrid  float64 `json:"power_from_grid_kw"`
	PowerToGrid    float64 `json:"power_to_grid_kw"`
	EnergyFromGrid float64 `json:"energy_from_grid_kwh"`
	EnergyToGrid   float64 `json:"energy_to_grid_kwh"`

	SimCost float64 `json:"sim_cost"`
}

// Result is the outcome of a complete run.
type Result struct {
	TotalCost   float64
	Records     []AnnotatedRecord
	FinalCharge float64
	FinalSOC    float64
	Interval    int
}

// Start and End bound the simulated window.
func (r *Result) Start() time.Time {
	if len(r.Records) == 0 {
		return time.Time{}
	}
	return r.Records[0].Timestamp
}

func (r *Result) End() time.Time {
	if len(r.Records) == 0 {
		return time.Time{}
	}
	return r.Records[len(r.Records)-1].Timestamp.Add(time.Duration(r.Interval) * time.Minute)
}
