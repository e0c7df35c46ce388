package simulator

import (
	"errors"
	"fmt"
	"math"
	"time"
	_ "time/tzdata"

	"inverter-simulator/internal/model"
	"inverter-simulator/internal/strategy"

	"go.uber.org/zap"
)

var (
	// ErrNoRecord is returned when the current interval has no matching record.
	ErrNoRecord = errors.New("no record at current interval")
	// ErrAlreadyStarted is returned by Run when intervals were already processed.
	ErrAlreadyStarted = errors.New("simulation already advanced, call Reset first")
)

// InverterSimulator replays a household dataset interval by interval, asks a
// control function for an action, applies it to the battery and prices the
// resulting grid exchange. It is not safe for concurrent use.
type InverterSimulator struct {
	records []model.IntervalRecord
	index   map[int64]int
	control strategy.ControlFunc
	opts    resolved
	log     *zap.Logger

	battery *model.Battery

	current     time.Time
	trace       Trace
	seedCost    float64
	runningCost float64
}

// New validates the records and options and builds a simulator positioned at the
// first record. records must be strictly increasing in time; they are not modified.
func New(records []model.IntervalRecord, control strategy.ControlFunc, opts Options) (*InverterSimulator, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records")
	}
	if control == nil {
		return nil, fmt.Errorf("control function is nil")
	}
	index := make(map[int64]int, len(records))
	for i, rec := range records {
		if i > 0 && !rec.Timestamp.After(records[i-1].Timestamp) {
			return nil, fmt.Errorf("record %d: timestamp %s is not after %s", i,
				rec.Timestamp.Format(time.RFC3339), records[i-1].Timestamp.Format(time.RFC3339))
		}
		index[rec.Timestamp.UnixNano()] = i
	}

	r, err := opts.resolve(records)
	if err != nil {
		return nil, err
	}
	warnSpacing(r.Logger, records, r.Interval)

	batt, err := model.NewBattery(r.battery, r.initialCharge)
	if err != nil {
		return nil, fmt.Errorf("battery config invalid: %w", err)
	}

	seed := 0.0
	for _, rec := range records {
		if rec.SimCost != nil {
			seed += *rec.SimCost
		}
	}

	s := &InverterSimulator{
		records:     records,
		index:       index,
		control:     control,
		opts:        r,
		log:         r.Logger,
		battery:     batt,
		current:     records[0].Timestamp,
		seedCost:    seed,
		runningCost: seed,
	}
	return s, nil
}

// warnSpacing logs once when consecutive records are not one interval apart.
// Run still processes every record, but ApplyAction will stop at the first gap.
func warnSpacing(log *zap.Logger, records []model.IntervalRecord, interval int) {
	want := time.Duration(interval) * time.Minute
	var first time.Duration
	mismatches := 0
	for i := 1; i < len(records); i++ {
		gap := records[i].Timestamp.Sub(records[i-1].Timestamp)
		if gap == want {
			continue
		}
		if mismatches == 0 {
			first = gap
		}
		mismatches++
	}
	if mismatches > 0 {
		log.Warn("record spacing differs from interval",
			zap.Int("interval", interval),
			zap.Duration("gap", first),
			zap.Int("mismatches", mismatches),
		)
	}
}

func (s *InverterSimulator) Battery() *model.Battery { return s.battery }
func (s *InverterSimulator) Trace() *Trace { return &s.trace }
func (s *InverterSimulator) CurrentInterval() time.Time { return s.current }
func (s *InverterSimulator) GridLimit() float64 { return s.opts.gridLimit }
func (s *InverterSimulator) IntervalMinutes() int { return s.opts.Interval }
func (s *InverterSimulator) RunningCost() float64 { return s.runningCost }
func (s *InverterSimulator) Records() []model.IntervalRecord { return s.records }

// Reset clears the trace, rewinds to the first record and resets the battery.
func (s *InverterSimulator) Reset() {
	s.trace = Trace{}
	s.current = s.records[0].Timestamp
	s.runningCost = s.seedCost
	s.battery.Reset()
}

// IsDone reports whether the current interval is the last record's timestamp.
func (s *InverterSimulator) IsDone() bool {
	return s.current.Equal(s.records[len(s.records)-1].Timestamp)
}

// State returns the snapshot for the current interval.
func (s *InverterSimulator) State() (model.State, error) {
	rec, err := s.currentRecord()
	if err != nil {
		return model.State{}, err
	}
	return s.snapshot(rec), nil
}

// ApplyAction processes the current interval with the given action and advances
// the clock by one interval.
func (s *InverterSimulator) ApplyAction(action model.Action, reason string) error {
	rec, err := s.currentRecord()
	if err != nil {
		return err
	}
	if err := s.processInterval(rec, action, reason); err != nil {
		return err
	}
	s.current = s.current.Add(time.Duration(s.opts.Interval) * time.Minute)
	return nil
}

// Run processes every record once, in order, asking the control function for each
// interval's action. A fatal error aborts the run and no result is produced.
func (s *InverterSimulator) Run() (*Result, error) {
	if s.trace.Len() != 0 {
		return nil, ErrAlreadyStarted
	}
	s.log.Debug("simulation start",
		zap.Int("records", len(s.records)),
		zap.Int("interval", s.opts.Interval),
		zap.Float64("grid_limit", s.opts.gridLimit),
		zap.Float64("battery_charge", s.battery.StoredEnergy()),
	)

	for _, rec := range s.records {
		s.current = rec.Timestamp
		action, reason := s.control(rec.Timestamp, s.snapshot(rec))
		if err := s.processInterval(rec, action, reason); err != nil {
			return nil, err
		}
	}

	res := s.finalize()
	s.log.Info("simulation complete",
		zap.Int("intervals", len(res.Records)),
		zap.Float64("total_cost", res.TotalCost),
		zap.Float64("final_soc", res.FinalSOC),
	)
	return res, nil
}

func (s *InverterSimulator) currentRecord() (model.IntervalRecord, error) {
	i, ok := s.index[s.current.UnixNano()]
	if !ok {
		return model.IntervalRecord{}, fmt.Errorf("%s: %w", s.current.Format(time.RFC3339), ErrNoRecord)
	}
	return s.records[i], nil
}

func (s *InverterSimulator) snapshot(rec model.IntervalRecord) model.State {
	var forecast []float64
	if len(rec.Forecast) > 0 {
		forecast = append([]float64(nil), rec.Forecast...)
	}
	return model.State{
		BatteryCharge:     s.battery.StoredEnergy(),
		BatterySOC:        s.battery.SOC(),
		BatteryCapacity:   s.battery.Params.Capacity,
		BatteryChargeRate: s.battery.Params.ChargeRate,
		BatteryMinSOC:     s.battery.Params.MinSOC,

		SolarPower: rec.SolarPower,
		HousePower: rec.HousePower,
		BuyPrice:   rec.BuyPrice,
		SellPrice:  rec.SellPrice,
		RRP:        rec.RRP,
		Forecast:   forecast,

		Interval:        s.opts.Interval,
		CurrentInterval: rec.Timestamp,
		LocalTime:       rec.Timestamp.In(s.opts.loc),

		GridLimit:   s.opts.gridLimit,
		Tariff:      s.opts.Tariff,
		Network:     s.opts.Network,
		Region:      s.opts.State,
		MaxPPVPower: s.opts.MaxPPVPower,
		Timezone:    s.opts.Timezone,
		Latitude:    copyFloat(s.opts.Latitude),
		Longitude:   copyFloat(s.opts.Longitude),

		SimCost: s.runningCost,
	}
}

// processInterval turns an action into battery flows, grid exchange and cost, and
// appends the outcome to the trace.
func (s *InverterSimulator) processInterval(rec model.IntervalRecord, action model.Action, reason string) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	house, solar := rec.HousePower, rec.SolarPower

	// Solar available above house load. A deficit is covered by the grid unless
	// the action forces the battery out.
	surplus := math.Max(0, solar-house)
	charge, discharge, err := s.resolve(action, surplus)
	if err != nil {
		return fmt.Errorf("interval %s: %w", rec.Timestamp.Format(time.RFC3339), err)
	}
	if !action.Valid() {
		s.log.Info("invalid action, interval skipped",
			zap.Time("interval", rec.Timestamp),
			zap.Stringer("action", action),
			zap.String("reason", reason),
		)
	}

	balance := solar - house - charge + discharge
	if s.opts.gridLimit > 0 && math.Abs(balance) > s.opts.gridLimit {
		s.log.Debug("grid limit exceeded",
			zap.Time("interval", rec.Timestamp),
			zap.Float64("balance", balance),
			zap.Float64("grid_limit", s.opts.gridLimit),
		)
	}

	kwhBalance := balance / (1000 * model.PeriodsPerHour(s.opts.Interval))
	st := step{
		action:        action,
		reason:        reason,
		solarPower:    solar,
		charge:        charge,
		discharge:     discharge,
		batteryCharge: s.battery.StoredEnergy(),
		batterySOC:    s.battery.SOC(),
		balance:       balance,
	}
	// grid power in kW, cost on the energy moved over the interval
	if kwhBalance < 0 {
		st.powerFromGrid = -balance / 1000
		st.cost = rec.BuyPrice * -kwhBalance
	} else if kwhBalance > 0 {
		st.powerToGrid = balance / 1000
		st.cost = -rec.SellPrice * kwhBalance
	}

	s.trace.append(st)
	s.runningCost += st.cost
	return nil
}

// resolve maps an action and the PV surplus to (charge, discharge) power. A
// negative surplus is treated as a deficit for auto and discharge.
func (s *InverterSimulator) resolve(action model.Action, surplus float64) (charge, discharge float64, err error) {
	b := s.battery
	iv := s.opts.Interval
	switch action {
	case model.ActionCharge:
		charge, err = b.Charge(surplus, iv)
	case model.ActionDischarge:
		discharge, err = b.Discharge(-surplus, iv)
	case model.ActionAuto:
		if surplus > 0 {
			charge, err = b.Charge(surplus, iv)
		} else {
			discharge, err = b.Discharge(-surplus, iv)
		}
	case model.ActionStopped:
	case model.ActionExport:
		discharge, err = b.Discharge(b.Params.ChargeRate, iv)
	case model.ActionImport:
		charge, err = b.Charge(b.Params.ChargeRate, iv)
	default:
		// unrecognized: no-op interval
	}
	return charge, discharge, err
}

// finalize joins the trace onto copies of the input records.
func (s *InverterSimulator) finalize() *Result {
	hours := float64(s.opts.Interval) / 60
	t := &s.trace
	out := make([]AnnotatedRecord, t.Len())
	for i := range out {
		out[i] = AnnotatedRecord{
			IntervalRecord: s.records[i],
			Action:         t.Actions[i],
			Reason:         t.Reasons[i],
			Charge:         t.Charges[i],
			Discharge:      t.Discharges[i],
			BatteryCharge:  t.BatteryCharges[i],
			BatterySOC:     t.BatterySOCs[i],
			Balance:        t.Balances[i],
			PowerFromGrid:  t.PowerFromGrid[i],
			PowerToGrid:    t.PowerToGrid[i],
			EnergyFromGrid: t.PowerFromGrid[i] * hours,
			EnergyToGrid:   t.PowerToGrid[i] * hours,
			SimCost:        t.SimCosts[i],
		}
		out[i].SolarPower = t.SolarPowers[i]
		out[i].Forecast = append([]float64(nil), s.records[i].Forecast...)
		out[i].IntervalRecord.SimCost = nil
	}

	s.runningCost = t.TotalCost()
	return &Result{
		TotalCost:   s.runningCost,
		Records:     out,
		FinalCharge: s.battery.StoredEnergy(),
		FinalSOC:    s.battery.SOC(),
		Interval:    s.opts.Interval,
	}
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
