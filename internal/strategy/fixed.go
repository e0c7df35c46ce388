package strategy

import (
	"time"

	"inverter-simulator/internal/model"
)

// FixedStrategy returns the same action every interval.
type FixedStrategy struct {
	Action model.Action
	Reason string
}

func (s *FixedStrategy) Name() string { return "fixed" }

func (s *FixedStrategy) Decide(_ time.Time, _ model.State) (model.Action, string) {
	reason := s.Reason
	if reason == "" {
		reason = "always " + s.Action.String()
	}
	return s.Action, reason
}
