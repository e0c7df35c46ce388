package model

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrBatteryNotConfigured is returned when a charge or discharge is attempted
	// on a battery without a charge rate or stored charge.
	ErrBatteryNotConfigured = errors.New("battery charge rate and charge must be set")
	// ErrInvalidInterval is returned for a non-positive interval length.
	ErrInvalidInterval = errors.New("interval minutes must be > 0")
)

// BatteryParams defines the physical parameters of a household battery.
// Units:
// - Capacity: Wh
// - ChargeRate: W, applies in both directions
// - LossRate: percent 0..100, subtracted on charge and added on discharge
// - MinSOC: percent 0..100, discharge floor
type BatteryParams struct {
	Capacity   float64
	ChargeRate float64
	LossRate   float64
	MinSOC     float64
}

// DefaultBatteryParams returns a 10 kWh / 4.6 kW battery with 5% loss and a 10% floor.
func DefaultBatteryParams() BatteryParams {
	return BatteryParams{
		Capacity:   10000,
		ChargeRate: 4600,
		LossRate:   5,
		MinSOC:     10,
	}
}

// Battery bundles fixed params with the single piece of mutable state: stored charge in Wh.
type Battery struct {
	Params BatteryParams

	charge float64
}

func NewBattery(params BatteryParams, initialCharge float64) (*Battery, error) {
	b := &Battery{
		Params: params,
		charge: initialCharge,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Battery) Validate() error {
	p := b.Params
	if p.Capacity <= 0 {
		return errors.New("Capacity must be > 0")
	}
	if p.ChargeRate <= 0 {
		return errors.New("ChargeRate must be > 0")
	}
	if p.LossRate < 0 || p.LossRate > 100 {
		return errors.New("LossRate must be in [0, 100]")
	}
	if p.MinSOC < 0 || p.MinSOC > 100 {
		return errors.New("MinSOC must be in [0, 100]")
	}
	if math.IsNaN(b.charge) || b.charge < 0 || b.charge > p.Capacity {
		return fmt.Errorf("initial charge %.2f must be within [0, %.2f]", b.charge, p.Capacity)
	}
	return nil
}

// StoredEnergy is the current charge in Wh.
func (b *Battery) StoredEnergy() float64 { return b.charge }

// MinCharge is the discharge floor in Wh.
func (b *Battery) MinCharge() float64 {
	return b.Params.MinSOC / 100 * b.Params.Capacity
}

// SOC is the state of charge in percent.
func (b *Battery) SOC() float64 {
	return b.charge / b.Params.Capacity * 100
}

// Reset puts the battery back at half capacity.
func (b *Battery) Reset() {
	b.charge = b.Params.Capacity / 2
}

// Charge absorbs up to amount W for one interval and returns the power actually
// accepted, before losses. Requests are clamped to [0, ability] where ability is
// the lesser of the rate limit and the power that would fill the remaining headroom.
func (b *Battery) Charge(amount float64, intervalMinutes int) (float64, error) {
	perHour, err := b.precheck(intervalMinutes)
	if err != nil {
		return 0, err
	}
	ability := math.Min(b.Params.ChargeRate, math.Max(0, b.Params.Capacity-b.charge)*perHour)
	actual := clamp(amount, 0, ability)

	delivered := actual * (100 - b.Params.LossRate) / 100
	b.charge = math.Min(b.Params.Capacity, b.charge+delivered/perHour)
	return actual, nil
}

// Discharge supplies up to amount W for one interval and returns the power
// actually delivered. Losses increase the energy drawn from storage; the stored
// charge never drops below the MinSOC floor.
func (b *Battery) Discharge(amount float64, intervalMinutes int) (float64, error) {
	perHour, err := b.precheck(intervalMinutes)
	if err != nil {
		return 0, err
	}
	floor := b.MinCharge()
	ability := math.Min(b.Params.ChargeRate, math.Max(0, b.charge-floor)*perHour)
	actual := clamp(amount, 0, ability)
	if actual == 0 {
		return 0, nil
	}

	removed := actual * (100 + b.Params.LossRate) / 100
	b.charge = math.Max(floor, b.charge-removed/perHour)
	return actual, nil
}

// precheck returns the number of intervals per hour.
func (b *Battery) precheck(intervalMinutes int) (float64, error) {
	if b.Params.ChargeRate <= 0 || math.IsNaN(b.charge) {
		return 0, ErrBatteryNotConfigured
	}
	if intervalMinutes <= 0 {
		return 0, ErrInvalidInterval
	}
	return PeriodsPerHour(intervalMinutes), nil
}

// PeriodsPerHour converts an interval length to the number of intervals in an hour
// (5 minutes -> 12). Power in W divided by this value is energy in Wh for the interval.
func PeriodsPerHour(intervalMinutes int) float64 {
	return 60 / float64(intervalMinutes)
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
