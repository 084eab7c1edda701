package accel

import (
	"fmt"
	"time"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
)

// Sample is one accelerometer reading as published on MQTT.
type Sample struct {
	Source string    `json:"source"`
	Time   time.Time `json:"time"`

	X int16 `json:"x"` // raw LSB
	Y int16 `json:"y"`
	Z int16 `json:"z"`

	Scale int                    `json:"scale"` // mg/LSB
	Flags adxl345.InterruptFlags `json:"flags"` // INT_SOURCE at read time
}

// NewSample stamps raw axes with the scale in effect when they were read.
func NewSample(source string, a adxl345.Axes, scale int, flags adxl345.InterruptFlags) Sample {
	return Sample{
		Source: source,
		Time:   time.Now(),
		X:      a.X,
		Y:      a.Y,
		Z:      a.Z,
		Scale:  scale,
		Flags:  flags,
	}
}

// MilliG returns the sample in milli-g.
func (s Sample) MilliG() (x, y, z int) {
	return int(s.X) * s.Scale, int(s.Y) * s.Scale, int(s.Z) * s.Scale
}

func (s Sample) String() string {
	x, y, z := s.MilliG()
	return fmt.Sprintf("X=%d mg, Y=%d mg, Z=%d mg", x, y, z)
}

// Tap kinds.
const (
	TapSingle = "single"
	TapDouble = "double"
)

// TapEvent is published when INT_SOURCE reports a tap.
type TapEvent struct {
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
	Kind   string    `json:"kind"`
}

// TapFromFlags returns the tap event in flags, if any. A double tap takes
// precedence over the single tap that always accompanies it.
func TapFromFlags(source string, flags adxl345.InterruptFlags) (TapEvent, bool) {
	var kind string
	switch {
	case flags.Has(adxl345.DoubleTap):
		kind = TapDouble
	case flags.Has(adxl345.SingleTap):
		kind = TapSingle
	default:
		return TapEvent{}, false
	}
	return TapEvent{Source: source, Time: time.Now(), Kind: kind}, true
}
