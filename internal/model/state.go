package model

import (
	"math"
	"time"
)

// State is the snapshot a control function decides on. It is a plain value:
// nothing in it points back into the simulator or the battery.
type State struct {
	BatteryCharge     float64 `json:"battery_charge"`
	BatterySOC        float64 `json:"battery_soc"`
	BatteryCapacity   float64 `json:"battery_capacity"`
	BatteryChargeRate float64 `json:"charge_rate"`
	BatteryMinSOC     float64 `json:"min_soc"`

	SolarPower float64   `json:"solar_power"`
	HousePower float64   `json:"house_power"`
	BuyPrice   float64   `json:"buy_price"`
	SellPrice  float64   `json:"sell_price"`
	RRP        float64   `json:"rrp"`
	Forecast   []float64 `json:"forecast,omitempty"`

	Interval        int       `json:"interval"`
	CurrentInterval time.Time `json:"current_interval"`
	// LocalTime is CurrentInterval in the site's timezone.
	LocalTime time.Time `json:"local_time"`

	GridLimit   float64  `json:"grid_limit"`
	Tariff      string   `json:"tariff"`
	Network     string   `json:"network"`
	Region      string   `json:"state"`
	MaxPPVPower float64  `json:"max_ppv_power"`
	Timezone    string   `json:"timezone_str"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`

	// SimCost is the running cost total so far.
	SimCost float64 `json:"sim_cost"`
}

// PVSurplus is solar minus house load, floored at zero.
func (s State) PVSurplus() float64 {
	return math.Max(0, s.SolarPower-s.HousePower)
}
