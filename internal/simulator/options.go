package simulator

import (
	"fmt"
	"math"
	"time"

	"inverter-simulator/internal/model"

	"go.uber.org/zap"
)

const (
	DefaultInterval    = 5
	DefaultTariff      = "6900"
	DefaultNetwork     = "Energex"
	DefaultState       = "QLD"
	DefaultMaxPPVPower = 5000
	DefaultTimezone    = "Australia/Brisbane"
)

// Options enumerates every recognized simulation setting. Zero values select the
// default; pointer fields distinguish "unset" from a legitimate zero.
type Options struct {
	// BatteryCapacity in Wh. Default 10000.
	BatteryCapacity float64
	// ChargeRate in W. Default 4600.
	ChargeRate float64
	// BatteryCharge is the initial stored energy in Wh. Default capacity/2.
	BatteryCharge *float64
	// BatteryLoss in percent. Default 5.
	BatteryLoss *float64
	// MinSOC is the discharge floor in percent. Default 10.
	MinSOC *float64

	// GridLimit in W. Default twice the largest house power in the records.
	GridLimit *float64

	// Informational; passed through to the state snapshot.
	Tariff      string
	Network     string
	State       string
	MaxPPVPower float64

	// Interval length in minutes. Default 5.
	Interval int
	Timezone string

	Latitude  *float64
	Longitude *float64

	Logger *zap.Logger
}

// resolved holds Options after defaults have been applied.
type resolved struct {
	Options

	battery       model.BatteryParams
	initialCharge float64
	gridLimit     float64
	loc           *time.Location
}

func (o Options) resolve(records []model.IntervalRecord) (resolved, error) {
	r := resolved{Options: o}
	def := model.DefaultBatteryParams()

	r.battery = def
	if o.BatteryCapacity != 0 {
		r.battery.Capacity = o.BatteryCapacity
	}
	if o.ChargeRate != 0 {
		r.battery.ChargeRate = o.ChargeRate
	}
	if o.BatteryLoss != nil {
		r.battery.LossRate = *o.BatteryLoss
	}
	if o.MinSOC != nil {
		r.battery.MinSOC = *o.MinSOC
	}
	r.initialCharge = r.battery.Capacity / 2
	if o.BatteryCharge != nil {
		r.initialCharge = *o.BatteryCharge
	}

	if r.Interval == 0 {
		r.Interval = DefaultInterval
	}
	if r.Interval < 0 {
		return r, fmt.Errorf("interval must be > 0, got %d", r.Interval)
	}
	if r.Tariff == "" {
		r.Tariff = DefaultTariff
	}
	if r.Network == "" {
		r.Network = DefaultNetwork
	}
	if r.State == "" {
		r.State = DefaultState
	}
	if r.MaxPPVPower == 0 {
		r.MaxPPVPower = DefaultMaxPPVPower
	}
	if r.Timezone == "" {
		r.Timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return r, fmt.Errorf("timezone %q: %w", r.Timezone, err)
	}
	r.loc = loc

	if o.GridLimit != nil {
		r.gridLimit = *o.GridLimit
	} else {
		r.gridLimit = defaultGridLimit(records)
	}

	if r.Logger == nil {
		r.Logger = zap.NewNop()
	}
	return r, nil
}

// defaultGridLimit is twice the largest house load seen in the data.
func defaultGridLimit(records []model.IntervalRecord) float64 {
	maxHouse := math.Inf(-1)
	for _, rec := range records {
		if !math.IsNaN(rec.HousePower) && rec.HousePower > maxHouse {
			maxHouse = rec.HousePower
		}
	}
	if math.IsInf(maxHouse, -1) {
		return 0
	}
	return maxHouse * 2
}

// Float returns a pointer to v, for the optional Options fields.
func Float(v float64) *float64 { return &v }
