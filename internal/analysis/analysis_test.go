package analysis

import (
	"testing"
	"time"

	"inverter-simulator/internal/model"
	"inverter-simulator/internal/simulator"
	"inverter-simulator/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// four 5-minute intervals of 1200 W load, no solar.
func eveningLoad() []model.IntervalRecord {
	start := time.Date(2023, 6, 1, 18, 0, 0, 0, time.UTC)
	out := make([]model.IntervalRecord, 4)
	for i := range out {
		out[i] = model.IntervalRecord{
			Timestamp:  start.Add(time.Duration(i) * 5 * time.Minute),
			HousePower: 1200,
			BuyPrice:   0.3,
			SellPrice:  0.05,
		}
	}
	return out
}

func TestCompare(t *testing.T) {
	cmp, err := Compare(eveningLoad(), simulator.Options{}, []Candidate{
		{Strategy: &strategy.FixedStrategy{Action: model.ActionImport}},
		{Label: "self-consumption", Strategy: &strategy.FixedStrategy{Action: model.ActionAuto}},
	})
	require.NoError(t, err)

	assert.Equal(t, BaselineName, cmp.Baseline.Strategy)
	assert.Equal(t, "0.12", cmp.Baseline.TotalCost.String())
	assert.Equal(t, 4, cmp.Baseline.Count(model.ActionStopped))
	assert.InDelta(t, 0.4, cmp.Baseline.EnergyFromGrid, 1e-9)

	require.Len(t, cmp.Ranked, 2)
	best := cmp.Ranked[0]
	assert.Equal(t, 1, best.Rank)
	assert.Equal(t, "self-consumption", best.Strategy)
	// no solar to store, so auto leaves the battery idle and matches the baseline
	assert.Equal(t, "0.12", best.TotalCost.String())
	assert.Equal(t, "0", best.Savings.String())

	worst := cmp.Ranked[1]
	assert.Equal(t, 2, worst.Rank)
	assert.Equal(t, "fixed", worst.Strategy)
	assert.Equal(t, "0.58", worst.TotalCost.String())
	assert.Equal(t, "-0.46", worst.Savings.String())
}

func TestCompareDuplicateLabels(t *testing.T) {
	cmp, err := Compare(eveningLoad(), simulator.Options{}, []Candidate{
		{Strategy: &strategy.FixedStrategy{Action: model.ActionAuto}},
		{Strategy: &strategy.FixedStrategy{Action: model.ActionAuto}},
	})
	require.NoError(t, err)
	names := []string{cmp.Ranked[0].Strategy, cmp.Ranked[1].Strategy}
	assert.ElementsMatch(t, []string{"fixed", "fixed#2"}, names)
}

func TestCompareErrors(t *testing.T) {
	_, err := Compare(nil, simulator.Options{}, nil)
	assert.Error(t, err)

	_, err = Compare(eveningLoad(), simulator.Options{}, []Candidate{{Label: "empty"}})
	assert.ErrorContains(t, err, "empty")
}

func TestSummarize(t *testing.T) {
	assert.Zero(t, Summarize("none", nil).Intervals)

	ts := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	res := &simulator.Result{
		Interval: 30,
		Records: []simulator.AnnotatedRecord{
			{
				IntervalRecord: model.IntervalRecord{Timestamp: ts, HousePower: 1000, SolarPower: 3000},
				Action:         model.ActionAuto,
				Charge:         2000,
				PowerToGrid:    0,
			},
			{
				IntervalRecord: model.IntervalRecord{Timestamp: ts.Add(30 * time.Minute), HousePower: 1000},
				Action:         model.ActionExport,
				Discharge:      4000,
				PowerToGrid:    3,
				EnergyToGrid:   1.5,
				SimCost:        -0.3,
			},
			{
				IntervalRecord: model.IntervalRecord{Timestamp: ts.Add(time.Hour), HousePower: 1000},
				Action:         model.ActionUnknown,
				PowerFromGrid:  1,
				EnergyFromGrid: 0.5,
				SimCost:        0.15,
			},
		},
		TotalCost: -0.15,
		FinalSOC:  42,
	}
	s := Summarize("mixed", res)
	assert.Equal(t, 3, s.Intervals)
	assert.Equal(t, ts, s.Start)
	assert.Equal(t, ts.Add(90*time.Minute), s.End)
	assert.Equal(t, 1, s.Count(model.ActionAuto))
	assert.Equal(t, 1, s.Count(model.ActionExport))
	assert.Equal(t, 1, s.InvalidActions)
	assert.InDelta(t, 1.0, s.BatteryCharged, 1e-9)
	assert.InDelta(t, 2.0, s.BatteryDischarged, 1e-9)
	assert.InDelta(t, 1.5, s.SolarGenerated, 1e-9)
	assert.InDelta(t, 1.5, s.HouseConsumed, 1e-9)
	assert.InDelta(t, 1.5, s.EnergyToGrid, 1e-9)
	assert.InDelta(t, 0.5, s.EnergyFromGrid, 1e-9)
	assert.Equal(t, "-0.15", s.TotalCost.String())
	assert.Equal(t, "0.15", s.ImportCost.String())
	assert.Equal(t, "0.3", s.ExportCredit.String())
	assert.Equal(t, 42.0, s.FinalSOC)
}
