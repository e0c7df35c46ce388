package strategy

import (
	"fmt"
	"time"

	"inverter-simulator/internal/model"
)

// PriceParams drives a threshold strategy on the current tariff prices.
type PriceParams struct {
	// ImportBelow: charge from the grid when the buy price is at or below this.
	ImportBelow float64
	// ExportAbove: discharge to the grid when the sell price is at or above this.
	ExportAbove float64
	// MinExportSOC: never force an export below this state of charge (percent).
	MinExportSOC float64
	// MaxImportSOC: stop forcing imports once the battery reaches this SOC (percent).
	MaxImportSOC float64
}

type PriceStrategy struct {
	Params PriceParams
}

func NewPriceStrategy(p PriceParams) (*PriceStrategy, error) {
	if p.ExportAbove <= p.ImportBelow {
		return nil, fmt.Errorf("export_above (%.4f) must exceed import_below (%.4f)", p.ExportAbove, p.ImportBelow)
	}
	if p.MaxImportSOC == 0 {
		p.MaxImportSOC = 100
	}
	return &PriceStrategy{Params: p}, nil
}

func (s *PriceStrategy) Name() string { return "price" }

func (s *PriceStrategy) Decide(_ time.Time, st model.State) (model.Action, string) {
	p := s.Params
	switch {
	case st.BuyPrice <= p.ImportBelow && st.BatterySOC < p.MaxImportSOC:
		return model.ActionImport, fmt.Sprintf("buy price %.4f <= %.4f", st.BuyPrice, p.ImportBelow)
	case st.SellPrice >= p.ExportAbove && st.BatterySOC > p.MinExportSOC:
		return model.ActionExport, fmt.Sprintf("sell price %.4f >= %.4f", st.SellPrice, p.ExportAbove)
	case st.PVSurplus() > 0:
		return model.ActionAuto, "solar surplus"
	default:
		return model.ActionAuto, "cover house load"
	}
}
