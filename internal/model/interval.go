package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMissingField is returned when a record lacks one of the required fields.
var ErrMissingField = errors.New("missing required field")

// IntervalRecord is one row of the household dataset.
// Powers are in W, prices in currency/kWh. A NaN in a required field means the
// field was absent from the source.
type IntervalRecord struct {
	Timestamp time.Time `json:"timestamp"`

	HousePower float64 `json:"house_power"`
	SolarPower float64 `json:"solar_power"`
	BuyPrice   float64 `json:"buy_price"`
	SellPrice  float64 `json:"sell_price"`

	// Optional market data.
	RRP      float64   `json:"rrp,omitempty"`
	Forecast []float64 `json:"forecast,omitempty"`

	// SimCost carries a cost column from a previous run, if the source had one.
	SimCost *float64 `json:"sim_cost,omitempty"`
}

// Validate checks the required fields.
func (r IntervalRecord) Validate() error {
	required := []struct {
		name string
		v    float64
	}{
		{"house_power", r.HousePower},
		{"solar_power", r.SolarPower},
		{"buy_price", r.BuyPrice},
		{"sell_price", r.SellPrice},
	}
	for _, f := range required {
		if math.IsNaN(f.v) {
			return fmt.Errorf("%s at %s: %w", f.name, r.Timestamp.Format(time.RFC3339), ErrMissingField)
		}
	}
	return nil
}
