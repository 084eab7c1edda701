package accel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
)

func TestMilliG(t *testing.T) {
	s := NewSample("adxl345", adxl345.Axes{X: 10, Y: -3, Z: 33}, 31, adxl345.DataReady)
	x, y, z := s.MilliG()
	assert.Equal(t, 310, x)
	assert.Equal(t, -93, y)
	assert.Equal(t, 1023, z)
	assert.Equal(t, "X=310 mg, Y=-93 mg, Z=1023 mg", s.String())
}

func TestSampleJSON(t *testing.T) {
	s := NewSample("adxl345", adxl345.Axes{X: 1, Y: 2, Z: 3}, 4, adxl345.DataReady|adxl345.Activity)
	b, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "adxl345", m["source"])
	assert.Equal(t, float64(4), m["scale"])
	assert.Equal(t, float64(0x90), m["flags"])
}

func TestTapFromFlags(t *testing.T) {
	patterns := []struct {
		flags adxl345.InterruptFlags
		kind  string
		ok    bool
	}{
		{0, "", false},
		{adxl345.DataReady | adxl345.Activity, "", false},
		{adxl345.SingleTap, TapSingle, true},
		{adxl345.SingleTap | adxl345.DoubleTap, TapDouble, true},
		{adxl345.DoubleTap, TapDouble, true},
	}
	for _, p := range patterns {
		ev, ok := TapFromFlags("adxl345", p.flags)
		assert.Equal(t, p.ok, ok, "flags %s", p.flags)
		assert.Equal(t, p.kind, ev.Kind, "flags %s", p.flags)
	}
}
