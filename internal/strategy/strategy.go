package strategy

import (
	"time"

	"inverter-simulator/internal/model"
)

// ControlFunc picks the action for one interval. It is called synchronously once
// per interval and must only read the snapshot it is given.
type ControlFunc func(ts time.Time, st model.State) (model.Action, string)

type Strategy interface {
	Name() string
	Decide(ts time.Time, st model.State) (model.Action, string)
}

// Func adapts a Strategy to a ControlFunc.
func Func(s Strategy) ControlFunc {
	return s.Decide
}

// FromStrings wraps a control function that speaks bare identifiers.
// Unrecognized identifiers come through as model.ActionUnknown.
func FromStrings(fn func(ts time.Time, st model.State) (string, string)) ControlFunc {
	return func(ts time.Time, st model.State) (model.Action, string) {
		name, reason := fn(ts, st)
		a, _ := model.ParseAction(name)
		return a, reason
	}
}
