package simulator

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var traceHeader = []string{
	"timestamp",
	"house_power",
	"solar_power",
	"buy_price",
	"sell_price",
	"rrp",
	"forecast",
	"action",
	"reason",
	"charge",
	"discharge",
	"battery_charge",
	"battery_soc",
	"balance",
	"power_from_grid_kw",
	"power_to_grid_kw",
	"energy_from_grid_kwh",
	"energy_to_grid_kwh",
	"sim_cost",
}

func WriteTraceCSV(path string, records []AnnotatedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteTrace(f, records)
}

// WriteTrace writes the annotated table as CSV, one row per interval.
func WriteTrace(out io.Writer, records []AnnotatedRecord) error {
	w := csv.NewWriter(out)
	if err := w.Write(traceHeader); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			fmtTime(r.Timestamp),
			fmtFloat(r.HousePower),
			fmtFloat(r.SolarPower),
			fmtFloat(r.BuyPrice),
			fmtFloat(r.SellPrice),
			fmtFloat(r.RRP),
			fmtList(r.Forecast),
			r.Action.String(),
			r.Reason,
			fmtFloat(r.Charge),
			fmtFloat(r.Discharge),
			fmtFloat(r.BatteryCharge),
			fmtFloat(r.BatterySOC),
			fmtFloat(r.Balance),
			fmtFloat(r.PowerFromGrid),
			fmtFloat(r.PowerToGrid),
			fmtFloat(r.EnergyFromGrid),
			fmtFloat(r.EnergyToGrid),
			fmtFloat(r.SimCost),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func fmtList(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.FormatFloat(x, 'f', -1, 64)
	}
	return strings.Join(parts, ";")
}
