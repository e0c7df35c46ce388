package analysis

import (
	"time"

	"inverter-simulator/internal/model"
	"inverter-simulator/internal/simulator"

	"github.com/shopspring/decimal"
)

// Summary condenses a simulation result into the figures people compare runs by.
// Energies are kWh; money is rounded to cents.
type Summary struct {
	Strategy string `json:"strategy"`

	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Intervals int       `json:"intervals"`

	TotalCost    decimal.Decimal `json:"total_cost"`
	ImportCost   decimal.Decimal `json:"import_cost"`
	ExportCredit decimal.Decimal `json:"export_credit"`

	EnergyFromGrid    float64 `json:"energy_from_grid_kwh"`
	EnergyToGrid      float64 `json:"energy_to_grid_kwh"`
	BatteryCharged    float64 `json:"battery_charged_kwh"`
	BatteryDischarged float64 `json:"battery_discharged_kwh"`
	SolarGenerated    float64 `json:"solar_generated_kwh"`
	HouseConsumed     float64 `json:"house_consumed_kwh"`

	FinalCharge float64 `json:"final_charge_wh"`
	FinalSOC    float64 `json:"final_soc"`

	ActionCounts   map[string]int `json:"action_counts"`
	InvalidActions int            `json:"invalid_actions"`
}

// Summarize totals a result. A nil or empty result gives a zero summary.
func Summarize(name string, res *simulator.Result) Summary {
	s := Summary{
		Strategy:     name,
		ActionCounts: map[string]int{},
	}
	if res == nil || len(res.Records) == 0 {
		return s
	}
	s.Start = res.Start()
	s.End = res.End()
	s.Intervals = len(res.Records)
	s.FinalCharge = res.FinalCharge
	s.FinalSOC = res.FinalSOC

	kwh := float64(res.Interval) / 60 / 1000
	importCost := decimal.Zero
	exportCredit := decimal.Zero
	for _, r := range res.Records {
		s.EnergyFromGrid += r.EnergyFromGrid
		s.EnergyToGrid += r.EnergyToGrid
		s.BatteryCharged += r.Charge * kwh
		s.BatteryDischarged += r.Discharge * kwh
		s.SolarGenerated += r.SolarPower * kwh
		s.HouseConsumed += r.HousePower * kwh

		if r.Action.Valid() {
			s.ActionCounts[r.Action.String()]++
		} else {
			s.InvalidActions++
		}

		c := decimal.NewFromFloat(r.SimCost)
		if c.IsPositive() {
			importCost = importCost.Add(c)
		} else {
			exportCredit = exportCredit.Sub(c)
		}
	}
	s.TotalCost = Money(res.TotalCost)
	s.ImportCost = importCost.Round(2)
	s.ExportCredit = exportCredit.Round(2)
	return s
}

// Money rounds a cost in dollars to cents.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Count returns how many intervals ran the given action.
func (s Summary) Count(a model.Action) int {
	return s.ActionCounts[a.String()]
}
