package models

import (
	"inverter-simulator/internal/analysis"
	"inverter-simulator/internal/simulator"
)

// SimulateResponse represents the response from a simulation run
type SimulateResponse struct {
	ID      string                      `json:"id,omitempty"`
	Status  string                      `json:"status"`
	Summary analysis.Summary            `json:"summary"`
	Trace   []simulator.AnnotatedRecord `json:"trace,omitempty"`
}

// TraceResponse is returned by GET /api/v1/simulate/:id/trace.
type TraceResponse struct {
	ID      string                      `json:"id"`
	Summary analysis.Summary            `json:"summary"`
	Trace   []simulator.AnnotatedRecord `json:"trace"`
}

type CompareResponse struct {
	Comparison *analysis.Comparison `json:"comparison"`
}

// BatteryInfo represents information about a battery preset
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

type BatterySpecs struct {
	CapacityWh  float64 `json:"capacity_wh"`
	ChargeRateW float64 `json:"charge_rate_w"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func NewError(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}
