package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"inverter-simulator/internal/analysis"
	"inverter-simulator/internal/api/models"
	"inverter-simulator/internal/api/store"
	"inverter-simulator/internal/config"
	"inverter-simulator/internal/data"
	"inverter-simulator/internal/model"
	"inverter-simulator/internal/simulator"
	"inverter-simulator/internal/strategy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SimulateHandler handles simulation requests
type SimulateHandler struct {
	store      *store.ResultStore
	batteryDir string
	logger     *zap.Logger
}

func NewSimulateHandler(results *store.ResultStore, batteryDir string, logger *zap.Logger) *SimulateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulateHandler{store: results, batteryDir: batteryDir, logger: logger}
}

// Simulate handles POST /api/v1/simulate
func (h *SimulateHandler) Simulate(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	records, err := h.records(req.Dataset, req.Options)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_DATASET", err)
		return
	}
	cfg, err := h.buildConfig(req.Config)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}
	strat, err := cfg.Strategy.Build()
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_STRATEGY", err)
		return
	}

	opts := cfg.ToOptions()
	opts.Logger = h.logger
	sim, err := simulator.New(records, strategy.Func(strat), opts)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}
	res, err := sim.Run()
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "SIMULATION_ERROR", err)
		return
	}

	summary := analysis.Summarize(strat.Name(), res)
	id, err := h.store.Put(summary, res.Records)
	if err != nil {
		fail(c, http.StatusInternalServerError, "STORE_ERROR", err)
		return
	}
	h.logger.Info("simulation stored",
		zap.String("id", id),
		zap.String("strategy", strat.Name()),
		zap.Int("intervals", summary.Intervals),
		zap.Stringer("total_cost", summary.TotalCost),
	)

	resp := models.SimulateResponse{ID: id, Status: "completed", Summary: summary}
	if req.Options.IncludeTrace {
		resp.Trace = res.Records
	}
	c.JSON(http.StatusOK, resp)
}

// GetTrace handles GET /api/v1/simulate/:id/trace. ?format=csv streams the trace as CSV.
func (h *SimulateHandler) GetTrace(c *gin.Context) {
	id := c.Param("id")
	entry, ok := h.store.Get(id)
	if !ok {
		fail(c, http.StatusNotFound, "NOT_FOUND", fmt.Errorf("no stored simulation %q (results expire)", id))
		return
	}
	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", id))
		c.Status(http.StatusOK)
		if err := simulator.WriteTrace(c.Writer, entry.Records); err != nil {
			h.logger.Warn("write trace csv", zap.String("id", id), zap.Error(err))
		}
		return
	}
	c.JSON(http.StatusOK, models.TraceResponse{ID: entry.ID, Summary: entry.Summary, Trace: entry.Records})
}

// Compare handles POST /api/v1/simulate/compare
func (h *SimulateHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	records, err := h.records(req.Dataset, req.Options)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_DATASET", err)
		return
	}
	cfg, err := h.buildConfig(req.BaseConfig)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_CONFIG", err)
		return
	}

	candidates := make([]analysis.Candidate, 0, len(req.Strategies))
	for i, ns := range req.Strategies {
		s, err := ns.Strategy.Build()
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_STRATEGY", fmt.Errorf("strategies[%d]: %w", i, err))
			return
		}
		candidates = append(candidates, analysis.Candidate{Label: ns.Label, Strategy: s})
	}

	opts := cfg.ToOptions()
	opts.Logger = h.logger
	cmp, err := analysis.Compare(records, opts, candidates)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "SIMULATION_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, models.CompareResponse{Comparison: cmp})
}

func (h *SimulateHandler) records(ds data.Dataset, opts models.RunOptions) ([]model.IntervalRecord, error) {
	records, err := ds.IntervalRecords()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("dataset has no records")
	}
	if opts.LimitIntervals > 0 && opts.LimitIntervals < len(records) {
		records = records[:opts.LimitIntervals]
	}
	return records, nil
}

// buildConfig merges the request over its battery preset (if any) and validates it.
func (h *SimulateHandler) buildConfig(rc models.RunConfig) (*config.Config, error) {
	cfg := &config.Config{
		BatteryFile: rc.BatteryFile,
		Battery:     rc.Battery,
		Simulation:  rc.Simulation,
		Strategy:    rc.Strategy,
	}
	if cfg.BatteryFile != "" {
		preset, err := loadPreset(h.batteryDir, cfg.BatteryFile)
		if err != nil {
			return nil, err
		}
		cfg.Battery = config.MergeBattery(preset, cfg.Battery)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
