package model

import "strings"

// Action is the battery operating mode a control function picks for one interval.
// The zero value is ActionUnknown, which the simulator treats as a no-op interval.
type Action uint8

const (
	ActionUnknown Action = iota
	ActionCharge
	ActionDischarge
	ActionAuto
	ActionStopped
	ActionExport
	ActionImport
)

// Keep these identifiers stable; they are the CSV/JSON representation.
var actionNames = [...]string{
	ActionUnknown:   "unknown",
	ActionCharge:    "charge",
	ActionDischarge: "discharge",
	ActionAuto:      "auto",
	ActionStopped:   "stopped",
	ActionExport:    "export",
	ActionImport:    "import",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return actionNames[ActionUnknown]
}

// Valid reports whether a is one of the recognized actions.
func (a Action) Valid() bool {
	return a > ActionUnknown && int(a) < len(actionNames)
}

// Actions lists every recognized action.
func Actions() []Action {
	return []Action{ActionCharge, ActionDischarge, ActionAuto, ActionStopped, ActionExport, ActionImport}
}

// ParseAction maps an identifier to an Action. Matching is case-sensitive.
// A single "-" delimited prefix is stripped, so "ems-export" parses as ActionExport.
func ParseAction(s string) (Action, bool) {
	if a, ok := lookupAction(s); ok {
		return a, true
	}
	if _, rest, found := strings.Cut(s, "-"); found {
		return lookupAction(rest)
	}
	return ActionUnknown, false
}

func lookupAction(s string) (Action, bool) {
	for _, a := range Actions() {
		if actionNames[a] == s {
			return a, true
		}
	}
	return ActionUnknown, false
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText never fails; unrecognized identifiers decode to ActionUnknown.
func (a *Action) UnmarshalText(b []byte) error {
	*a, _ = ParseAction(string(b))
	return nil
}
