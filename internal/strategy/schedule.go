package strategy

import (
	"fmt"
	"strings"
	"time"

	"inverter-simulator/internal/model"
)

// ScheduleParams implements a simple daily time-window strategy:
// - Import (force charge from grid) during [ImportStart, ImportEnd)
// - Export (force discharge to grid) during [ExportStart, ExportEnd)
// - Otherwise Fallback (auto by default)
//
// Times are interpreted in the site's local timezone.
type ScheduleParams struct {
	ImportStart string // "HH:MM"
	ImportEnd   string // "HH:MM"; empty means an empty window
	ExportStart string // "HH:MM"
	ExportEnd   string // "HH:MM"; empty means an empty window
	Fallback    model.Action
}

type ScheduleStrategy struct {
	isMins int
	ieMins int
	esMins int
	eeMins int

	fallback model.Action
}

// NewScheduleStrategy parses the window bounds up front so Decide cannot fail.
func NewScheduleStrategy(p ScheduleParams) (*ScheduleStrategy, error) {
	is, err := parseHHMM(p.ImportStart)
	if err != nil {
		return nil, err
	}
	es, err := parseHHMM(p.ExportStart)
	if err != nil {
		return nil, err
	}
	ie := is
	if strings.TrimSpace(p.ImportEnd) != "" {
		if ie, err = parseHHMM(p.ImportEnd); err != nil {
			return nil, err
		}
	}
	ee := es
	if strings.TrimSpace(p.ExportEnd) != "" {
		if ee, err = parseHHMM(p.ExportEnd); err != nil {
			return nil, err
		}
	}
	fb := p.Fallback
	if fb == model.ActionUnknown {
		fb = model.ActionAuto
	}
	return &ScheduleStrategy{isMins: is, ieMins: ie, esMins: es, eeMins: ee, fallback: fb}, nil
}

func (s *ScheduleStrategy) Name() string { return "schedule" }

func (s *ScheduleStrategy) Decide(ts time.Time, st model.State) (model.Action, string) {
	local := st.LocalTime
	if local.IsZero() {
		local = ts
	}
	mins := local.Hour()*60 + local.Minute()

	if inWindow(mins, s.isMins, s.ieMins) {
		return model.ActionImport, "in import window"
	}
	if inWindow(mins, s.esMins, s.eeMins) {
		return model.ActionExport, "in export window"
	}
	return s.fallback, "outside scheduled windows"
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// inWindow checks whether tMins is in [start, end) on a 24h clock.
// If start == end, the window is empty (always false).
// If start < end, it's a normal same-day window.
// If start > end, it wraps across midnight.
func inWindow(tMins, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return tMins >= start && tMins < end
	}
	// wrap
	return tMins >= start || tMins < end
}
