package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"inverter-simulator/internal/model"
)

var requiredColumns = []string{"timestamp", "house_power", "solar_power", "buy_price", "sell_price"}

// timestamp layouts accepted in CSV files, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func LoadCSV(path string) ([]model.IntervalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads a header-named CSV. Columns may appear in any order; rrp, forecast
// (";" separated) and sim_cost are optional. Timestamps without an offset are UTC.
func ReadCSV(r io.Reader) ([]model.IntervalRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("column %s: %w", name, model.ErrMissingField)
		}
	}

	var out []model.IntervalRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(row, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string, col map[string]int) (model.IntervalRecord, error) {
	var rec model.IntervalRecord
	cell := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	ts, err := parseTime(cell("timestamp"))
	if err != nil {
		return rec, err
	}
	rec.Timestamp = ts

	required := []struct {
		name string
		dst  *float64
	}{
		{"house_power", &rec.HousePower},
		{"solar_power", &rec.SolarPower},
		{"buy_price", &rec.BuyPrice},
		{"sell_price", &rec.SellPrice},
	}
	for _, f := range required {
		s := cell(f.name)
		if s == "" {
			return rec, fmt.Errorf("%s: %w", f.name, model.ErrMissingField)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	if s := cell("rrp"); s != "" {
		if rec.RRP, err = strconv.ParseFloat(s, 64); err != nil {
			return rec, fmt.Errorf("rrp: %w", err)
		}
	}
	if s := cell("forecast"); s != "" {
		for _, part := range strings.Split(s, ";") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return rec, fmt.Errorf("forecast: %w", err)
			}
			rec.Forecast = append(rec.Forecast, v)
		}
	}
	if s := cell("sim_cost"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return rec, fmt.Errorf("sim_cost: %w", err)
		}
		rec.SimCost = &v
	}
	return rec, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp: %w", model.ErrMissingField)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// Load picks a loader by file extension.
func Load(path string) ([]model.IntervalRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".json":
		return LoadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported dataset extension %q", filepath.Ext(path))
	}
}
