package simulator

import (
	"bytes"
	"encoding/csv"
	"math"
	"testing"
	"time"

	"inverter-simulator/internal/model"
	"inverter-simulator/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var t0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// threeHours mirrors the reference dataset: hourly rows, each with 1 kW of solar surplus.
func threeHours() []model.IntervalRecord {
	house := []float64{1000, 2000, 3000}
	solar := []float64{2000, 3000, 4000}
	buy := []float64{20, 30, 40}
	sell := []float64{10, 20, 30}
	out := make([]model.IntervalRecord, 3)
	for i := range out {
		out[i] = model.IntervalRecord{
			Timestamp:  t0.Add(time.Duration(i) * time.Hour),
			HousePower: house[i],
			SolarPower: solar[i],
			BuyPrice:   buy[i],
			SellPrice:  sell[i],
			RRP:        float64(100 * (i + 1)),
			Forecast:   []float64{float64(100 * (i + 1)), float64(100 * (i + 2)), float64(100 * (i + 3))},
		}
	}
	return out
}

// fiveMinute builds n consecutive 5-minute rows with the given loads.
func fiveMinute(n int, house, solar float64) []model.IntervalRecord {
	out := make([]model.IntervalRecord, n)
	for i := range out {
		out[i] = model.IntervalRecord{
			Timestamp:  t0.Add(time.Duration(5*i) * time.Minute),
			HousePower: house,
			SolarPower: solar,
			BuyPrice:   0.30,
			SellPrice:  0.05,
		}
	}
	return out
}

func always(a model.Action) strategy.ControlFunc {
	return strategy.Func(&strategy.FixedStrategy{Action: a})
}

func newSim(t *testing.T, recs []model.IntervalRecord, ctl strategy.ControlFunc, opts Options) *InverterSimulator {
	t.Helper()
	s, err := New(recs, ctl, opts)
	require.NoError(t, err)
	return s
}

func TestNewDefaults(t *testing.T) {
	s := newSim(t, threeHours(), always(model.ActionAuto), Options{})
	assert.Equal(t, 10000.0, s.Battery().Params.Capacity)
	assert.Equal(t, 4600.0, s.Battery().Params.ChargeRate)
	assert.Equal(t, 5.0, s.Battery().Params.LossRate)
	assert.Equal(t, 5000.0, s.Battery().StoredEnergy())
	assert.Equal(t, 6000.0, s.GridLimit())
	assert.Equal(t, 5, s.IntervalMinutes())
	assert.Equal(t, t0, s.CurrentInterval())
}

func TestNewOverrides(t *testing.T) {
	s := newSim(t, threeHours(), always(model.ActionAuto), Options{
		BatteryCapacity: 13500,
		ChargeRate:      5000,
		BatteryCharge:   Float(0),
		BatteryLoss:     Float(0),
		GridLimit:       Float(15000),
		Interval:        60,
	})
	assert.Equal(t, 13500.0, s.Battery().Params.Capacity)
	assert.Equal(t, 0.0, s.Battery().StoredEnergy())
	assert.Equal(t, 0.0, s.Battery().Params.LossRate)
	assert.Equal(t, 15000.0, s.GridLimit())
	assert.Equal(t, 60, s.IntervalMinutes())
}

func TestNewRejects(t *testing.T) {
	recs := threeHours()
	_, err := New(nil, always(model.ActionAuto), Options{})
	assert.Error(t, err)

	_, err = New(recs, nil, Options{})
	assert.Error(t, err)

	swapped := threeHours()
	swapped[1], swapped[2] = swapped[2], swapped[1]
	_, err = New(swapped, always(model.ActionAuto), Options{})
	assert.Error(t, err)

	_, err = New(recs, always(model.ActionAuto), Options{Timezone: "Mars/Olympus_Mons"})
	assert.Error(t, err)

	_, err = New(recs, always(model.ActionAuto), Options{BatteryCharge: Float(20000)})
	assert.Error(t, err)
}

func TestRunAuto(t *testing.T) {
	calls := 0
	ctl := func(ts time.Time, st model.State) (model.Action, string) {
		calls++
		return model.ActionAuto, "always auto"
	}
	recs := threeHours()
	s := newSim(t, recs, ctl, Options{})

	res, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	tr := s.Trace()
	for _, n := range []int{
		len(tr.Actions), len(tr.Reasons), len(tr.SolarPowers), len(tr.Charges), len(tr.Discharges),
		len(tr.BatteryCharges), len(tr.BatterySOCs), len(tr.Balances), len(tr.PowerFromGrid),
		len(tr.PowerToGrid), len(tr.SimCosts),
	} {
		assert.Equal(t, 3, n)
	}
	require.Len(t, res.Records, len(recs))

	sum := 0.0
	for _, r := range res.Records {
		assert.Equal(t, model.ActionAuto, r.Action)
		assert.Equal(t, "always auto", r.Reason)
		// 1 kW surplus is fully absorbed, nothing crosses the grid
		assert.InDelta(t, 1000, r.Charge, 1e-9)
		assert.InDelta(t, 0, r.Balance, 1e-9)
		sum += r.SimCost
	}
	assert.InDelta(t, sum, res.TotalCost, 1e-12)
	assert.InDelta(t, 5000+3*950.0/12, res.FinalCharge, 1e-9)
	assert.True(t, s.IsDone())
}

func TestRunCosts(t *testing.T) {
	cases := []struct {
		name        string
		action      model.Action
		wantCost    float64
		wantCharge  float64
		wantFromKWh float64
		wantToKWh   float64
	}{
		// 1 kW exported each interval for 5 minutes at 10, 20, 30.
		{"stopped", model.ActionStopped, -(10 + 20 + 30) / 12.0, 5000, 0, 3 / 12.0},
		{"discharge with surplus", model.ActionDischarge, -(10 + 20 + 30) / 12.0, 5000, 0, 3 / 12.0},
		{"unknown", model.ActionUnknown, -(10 + 20 + 30) / 12.0, 5000, 0, 3 / 12.0},
		// 4.6 kW forced charge against 1 kW surplus: 3.6 kW import.
		{"import", model.ActionImport, 0.3 * (20 + 30 + 40), 5000 + 3*4370/12.0, 0.9, 0},
		// 4.6 kW forced discharge plus 1 kW surplus: 5.6 kW export.
		{"export", model.ActionExport, -(5600 / 12000.0) * (10 + 20 + 30), 5000 - 3*4830/12.0, 0, 3 * 5600 / 12000.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSim(t, threeHours(), always(tc.action), Options{})
			res, err := s.Run()
			require.NoError(t, err)
			assert.InDelta(t, tc.wantCost, res.TotalCost, 1e-9)
			assert.InDelta(t, tc.wantCharge, res.FinalCharge, 1e-9)

			var from, to, sum float64
			for _, r := range res.Records {
				from += r.EnergyFromGrid
				to += r.EnergyToGrid
				sum += r.SimCost
				assert.Equal(t, tc.action, r.Action)
			}
			assert.InDelta(t, tc.wantFromKWh, from, 1e-9)
			assert.InDelta(t, tc.wantToKWh, to, 1e-9)
			assert.InDelta(t, sum, res.TotalCost, 1e-12)
		})
	}
}

func TestResolveTable(t *testing.T) {
	cases := []struct {
		action        model.Action
		surplus       float64
		wantCharge    float64
		wantDischarge float64
	}{
		{model.ActionCharge, 1000, 1000, 0},
		{model.ActionCharge, -1000, 0, 0},
		{model.ActionDischarge, -1000, 0, 1000},
		{model.ActionDischarge, 1000, 0, 0},
		{model.ActionAuto, 1000, 1000, 0},
		{model.ActionAuto, -1000, 0, 1000},
		{model.ActionAuto, 0, 0, 0},
		{model.ActionStopped, 1000, 0, 0},
		{model.ActionExport, 1000, 0, 4600},
		{model.ActionImport, -1000, 4600, 0},
		{model.ActionUnknown, 1000, 0, 0},
		{model.Action(99), -1000, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.action.String(), func(t *testing.T) {
			s := newSim(t, threeHours(), always(model.ActionAuto), Options{})
			c, d, err := s.resolve(tc.action, tc.surplus)
			require.NoError(t, err)
			assert.InDelta(t, tc.wantCharge, c, 1e-9)
			assert.InDelta(t, tc.wantDischarge, d, 1e-9)
		})
	}
}

func TestDeficitComesFromGrid(t *testing.T) {
	for _, a := range []model.Action{model.ActionAuto, model.ActionDischarge} {
		t.Run(a.String(), func(t *testing.T) {
			s := newSim(t, fiveMinute(1, 3000, 1000), always(a), Options{})
			res, err := s.Run()
			require.NoError(t, err)
			r := res.Records[0]
			assert.Zero(t, r.Discharge)
			assert.Zero(t, r.Charge)
			assert.InDelta(t, -2000, r.Balance, 1e-9)
			assert.InDelta(t, 2, r.PowerFromGrid, 1e-9)
			// 2 kW for 5 minutes at 0.30
			assert.InDelta(t, 0.05, r.SimCost, 1e-12)
			assert.Equal(t, 5000.0, r.BatteryCharge)
		})
	}
}

func TestBalancedIntervalCostsNothing(t *testing.T) {
	s := newSim(t, fiveMinute(2, 1500, 1500), always(model.ActionStopped), Options{})
	res, err := s.Run()
	require.NoError(t, err)
	for _, r := range res.Records {
		assert.Zero(t, r.SimCost)
		assert.False(t, math.Signbit(r.SimCost))
		assert.Zero(t, r.PowerFromGrid)
		assert.Zero(t, r.PowerToGrid)
	}
	assert.False(t, math.Signbit(res.TotalCost))
}

func TestSpacingMismatchWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	// hourly rows against the default 5 minute interval
	_, err := New(threeHours(), always(model.ActionAuto), Options{Logger: zap.New(core)})
	require.NoError(t, err)
	warned := logs.FilterMessage("record spacing differs from interval")
	require.Equal(t, 1, warned.Len())
	fields := warned.All()[0].ContextMap()
	assert.Equal(t, int64(5), fields["interval"])
	assert.Equal(t, time.Hour, fields["gap"])
	assert.Equal(t, int64(2), fields["mismatches"])

	core, logs = observer.New(zapcore.WarnLevel)
	_, err = New(fiveMinute(4, 1000, 1000), always(model.ActionAuto), Options{Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestMissingFieldAborts(t *testing.T) {
	recs := threeHours()
	recs[1].BuyPrice = math.NaN()
	s := newSim(t, recs, always(model.ActionAuto), Options{})
	res, err := s.Run()
	assert.ErrorIs(t, err, model.ErrMissingField)
	assert.Nil(t, res)
}

func TestBatteryPreconditionAborts(t *testing.T) {
	s := newSim(t, threeHours(), always(model.ActionAuto), Options{})
	s.Battery().Params.ChargeRate = 0
	_, err := s.Run()
	assert.ErrorIs(t, err, model.ErrBatteryNotConfigured)
}

func TestInvalidActionIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctl := strategy.FromStrings(func(time.Time, model.State) (string, string) {
		return "hover", "bad idea"
	})
	s := newSim(t, threeHours(), ctl, Options{Logger: zap.New(core)})
	res, err := s.Run()
	require.NoError(t, err)

	invalid := logs.FilterMessage("invalid action, interval skipped")
	assert.Equal(t, 3, invalid.Len())
	for _, r := range res.Records {
		assert.Equal(t, model.ActionUnknown, r.Action)
		assert.Equal(t, "bad idea", r.Reason)
		assert.Zero(t, r.Charge)
		assert.Zero(t, r.Discharge)
	}
}

func TestIsDone(t *testing.T) {
	s := newSim(t, fiveMinute(3, 1000, 1000), always(model.ActionAuto), Options{})
	assert.False(t, s.IsDone())
	require.NoError(t, s.ApplyAction(model.ActionAuto, "step"))
	assert.False(t, s.IsDone())
	require.NoError(t, s.ApplyAction(model.ActionAuto, "step"))
	assert.True(t, s.IsDone())
}

func TestApplyAction(t *testing.T) {
	s := newSim(t, fiveMinute(3, 1000, 3000), always(model.ActionAuto), Options{})
	require.NoError(t, s.ApplyAction(model.ActionCharge, "manual"))
	assert.Equal(t, t0.Add(5*time.Minute), s.CurrentInterval())
	assert.Equal(t, 1, s.Trace().Len())
	assert.Equal(t, model.ActionCharge, s.Trace().Actions[0])
	assert.InDelta(t, 2000, s.Trace().Charges[0], 1e-9)

	require.NoError(t, s.ApplyAction(model.ActionStopped, "manual"))
	require.NoError(t, s.ApplyAction(model.ActionStopped, "manual"))
	assert.Equal(t, 3, s.Trace().Len())
	assert.InDelta(t, s.Trace().TotalCost(), s.RunningCost(), 1e-12)

	// clock has walked past the last record
	err := s.ApplyAction(model.ActionStopped, "manual")
	assert.ErrorIs(t, err, ErrNoRecord)
	_, err = s.State()
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestApplyActionNeedsMatchingRecord(t *testing.T) {
	// Hourly rows with the default 5 minute interval: the second step has no row.
	s := newSim(t, threeHours(), always(model.ActionAuto), Options{})
	require.NoError(t, s.ApplyAction(model.ActionAuto, "first"))
	assert.ErrorIs(t, s.ApplyAction(model.ActionAuto, "second"), ErrNoRecord)
}

func TestReset(t *testing.T) {
	s := newSim(t, fiveMinute(3, 1000, 3000), always(model.ActionImport), Options{BatteryCharge: Float(8000)})
	_, err := s.Run()
	require.NoError(t, err)
	assert.True(t, s.IsDone())

	_, err = s.Run()
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	s.Reset()
	assert.Equal(t, t0, s.CurrentInterval())
	assert.Equal(t, 0, s.Trace().Len())
	assert.Equal(t, 5000.0, s.Battery().StoredEnergy())
	s.Reset()
	assert.Equal(t, 5000.0, s.Battery().StoredEnergy())
	assert.Equal(t, 10000.0, s.Battery().Params.Capacity)

	res, err := s.Run()
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)
}

func TestState(t *testing.T) {
	recs := threeHours()
	lat, lon := -27.47, 153.03
	s := newSim(t, recs, always(model.ActionAuto), Options{Latitude: &lat, Longitude: &lon})

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, 5000.0, st.BatteryCharge)
	assert.Equal(t, 50.0, st.BatterySOC)
	assert.Equal(t, 2000.0, st.SolarPower)
	assert.Equal(t, 1000.0, st.HousePower)
	assert.Equal(t, 20.0, st.BuyPrice)
	assert.Equal(t, 10.0, st.SellPrice)
	assert.Equal(t, 100.0, st.RRP)
	assert.Equal(t, []float64{100, 200, 300}, st.Forecast)
	assert.Equal(t, 5, st.Interval)
	assert.Equal(t, t0, st.CurrentInterval)
	assert.Equal(t, 10, st.LocalTime.Hour()) // Brisbane is UTC+10
	assert.Equal(t, 6000.0, st.GridLimit)
	assert.Equal(t, "6900", st.Tariff)
	assert.Equal(t, "Energex", st.Network)
	assert.Equal(t, "QLD", st.Region)
	assert.Equal(t, 5000.0, st.MaxPPVPower)
	assert.Equal(t, "Australia/Brisbane", st.Timezone)
	require.NotNil(t, st.Latitude)
	assert.Equal(t, lat, *st.Latitude)
	assert.Equal(t, 0.0, st.SimCost)

	// snapshot is detached from the simulator and its input
	st.Forecast[0] = -1
	*st.Latitude = 0
	assert.Equal(t, 100.0, recs[0].Forecast[0])
	again, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, lat, *again.Latitude)
}

func TestControlSeesRunningCost(t *testing.T) {
	var seen []float64
	ctl := func(ts time.Time, st model.State) (model.Action, string) {
		seen = append(seen, st.SimCost)
		return model.ActionStopped, "watch"
	}
	s := newSim(t, threeHours(), ctl, Options{})
	_, err := s.Run()
	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.InDelta(t, 0, seen[0], 1e-12)
	assert.InDelta(t, -10/12.0, seen[1], 1e-12)
	assert.InDelta(t, -30/12.0, seen[2], 1e-12)
}

func TestSeedCost(t *testing.T) {
	recs := threeHours()
	one, two := 1.0, 2.0
	recs[0].SimCost = &one
	recs[2].SimCost = &two
	s := newSim(t, recs, always(model.ActionStopped), Options{})
	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, 3.0, st.SimCost)

	res, err := s.Run()
	require.NoError(t, err)
	assert.InDelta(t, -60/12.0, res.TotalCost, 1e-9)
	assert.Nil(t, res.Records[0].IntervalRecord.SimCost)
}

func TestRunLeavesInputUntouched(t *testing.T) {
	recs := threeHours()
	s := newSim(t, recs, always(model.ActionImport), Options{})
	res, err := s.Run()
	require.NoError(t, err)

	res.Records[0].Forecast[0] = -1
	res.Records[0].SolarPower = -1
	assert.Equal(t, 100.0, recs[0].Forecast[0])
	assert.Equal(t, 2000.0, recs[0].SolarPower)
	assert.Nil(t, recs[0].SimCost)
}

func TestIntervalDrivesEnergyConversion(t *testing.T) {
	recs := threeHours()
	s := newSim(t, recs, always(model.ActionStopped), Options{Interval: 60})
	res, err := s.Run()
	require.NoError(t, err)
	// 1 kW for a full hour at 10, 20, 30
	assert.InDelta(t, -60, res.TotalCost, 1e-9)
	assert.InDelta(t, 1, res.Records[0].EnergyToGrid, 1e-9)
	assert.Equal(t, recs[2].Timestamp.Add(time.Hour), res.End())
}

func TestWriteTrace(t *testing.T) {
	s := newSim(t, threeHours(), always(model.ActionAuto), Options{})
	res, err := s.Run()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTrace(&buf, res.Records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, traceHeader, rows[0])
	assert.Equal(t, "2023-01-01T00:00:00Z", rows[1][0])
	assert.Equal(t, "auto", rows[1][7])
	assert.Equal(t, "100;200;300", rows[1][6])
}
