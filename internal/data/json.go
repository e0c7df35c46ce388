package data

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"inverter-simulator/internal/model"
)

// Dataset is the JSON shape of a household dataset file.
//
// Example:
//
//	{
//	  "site": "home",
//	  "records": [
//	    {"timestamp": "2023-01-01T00:00:00+10:00", "house_power": 1000, "solar_power": 2000,
//	     "buy_price": 0.30, "sell_price": 0.05, "rrp": 0.12, "forecast": [0.12, 0.14]}
//	  ]
//	}
type Dataset struct {
	Site    string       `json:"site,omitempty"`
	Records []jsonRecord `json:"records"`
}

// jsonRecord uses pointers so an absent field can be told apart from zero.
type jsonRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	HousePower *float64  `json:"house_power"`
	SolarPower *float64  `json:"solar_power"`
	BuyPrice   *float64  `json:"buy_price"`
	SellPrice  *float64  `json:"sell_price"`
	RRP        *float64  `json:"rrp"`
	Forecast   []float64 `json:"forecast"`
	SimCost    *float64  `json:"sim_cost"`
}

func LoadJSON(path string) ([]model.IntervalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadJSON decodes a Dataset and fails on the first record missing a required field.
func ReadJSON(r io.Reader) ([]model.IntervalRecord, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return ds.IntervalRecords()
}

// IntervalRecords converts the decoded rows to model records.
func (ds Dataset) IntervalRecords() ([]model.IntervalRecord, error) {
	out := make([]model.IntervalRecord, 0, len(ds.Records))
	for i, jr := range ds.Records {
		if jr.Timestamp.IsZero() {
			return nil, fmt.Errorf("record %d: timestamp: %w", i, model.ErrMissingField)
		}
		rec := model.IntervalRecord{
			Timestamp:  jr.Timestamp,
			HousePower: orNaN(jr.HousePower),
			SolarPower: orNaN(jr.SolarPower),
			BuyPrice:   orNaN(jr.BuyPrice),
			SellPrice:  orNaN(jr.SellPrice),
			Forecast:   jr.Forecast,
			SimCost:    jr.SimCost,
		}
		if jr.RRP != nil {
			rec.RRP = *jr.RRP
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
