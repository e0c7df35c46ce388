package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		in   string
		want Action
		ok   bool
	}{
		{"charge", ActionCharge, true},
		{"discharge", ActionDischarge, true},
		{"auto", ActionAuto, true},
		{"stopped", ActionStopped, true},
		{"export", ActionExport, true},
		{"import", ActionImport, true},
		{"ems-export", ActionExport, true},
		{"manual-stopped", ActionStopped, true},
		{"Charge", ActionUnknown, false},
		{"a-b-charge", ActionUnknown, false},
		{"", ActionUnknown, false},
		{"idle", ActionUnknown, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseAction(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestActionString(t *testing.T) {
	for _, a := range Actions() {
		assert.True(t, a.Valid())
		parsed, ok := ParseAction(a.String())
		assert.True(t, ok)
		assert.Equal(t, a, parsed)
	}
	assert.False(t, ActionUnknown.Valid())
	assert.Equal(t, "unknown", Action(200).String())
}

func TestActionJSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		A Action `json:"a"`
	}{ActionImport})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"import"}`, string(raw))

	var out struct {
		A Action `json:"a"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"bogus"}`), &out))
	assert.Equal(t, ActionUnknown, out.A)
}

func TestIntervalRecordValidate(t *testing.T) {
	r := IntervalRecord{
		Timestamp:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		HousePower: 1000,
		SolarPower: 2000,
		BuyPrice:   0.3,
		SellPrice:  0.05,
	}
	require.NoError(t, r.Validate())

	r.SellPrice = math.NaN()
	err := r.Validate()
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "sell_price")
}
