// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package adxl345

import (
	"fmt"
	"math"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// Rate is the output data rate code written to BW_RATE.
type Rate byte

const (
	Rate0_098Hz Rate = 0x00
	Rate0_195Hz Rate = 0x01
	Rate0_39Hz  Rate = 0x02
	Rate0_782Hz Rate = 0x03
	Rate1_563Hz Rate = 0x04
	Rate3_125Hz Rate = 0x05
	Rate6_25Hz  Rate = 0x06
	Rate12_5Hz  Rate = 0x07
	Rate25Hz    Rate = 0x08
	Rate50Hz    Rate = 0x09
	Rate100Hz   Rate = 0x0A
	Rate200Hz   Rate = 0x0B
	Rate400Hz   Rate = 0x0C
	Rate800Hz   Rate = 0x0D
	Rate1600Hz  Rate = 0x0E
	Rate3200Hz  Rate = 0x0F

	// DefaultRate is selected for any rate that is not in the table.
	DefaultRate = Rate12_5Hz
)

// rateTable lists the documented rates. alias is the truncated integer
// form accepted by the textual "rate" command (0 when there is none).
var rateTable = []struct {
	hz    float64
	alias int
	rate  Rate
}{
	{3200, 0, Rate3200Hz},
	{1600, 0, Rate1600Hz},
	{800, 0, Rate800Hz},
	{400, 0, Rate400Hz},
	{200, 0, Rate200Hz},
	{100, 0, Rate100Hz},
	{50, 0, Rate50Hz},
	{25, 0, Rate25Hz},
	{12.5, 12, Rate12_5Hz},
	{6.25, 6, Rate6_25Hz},
	{3.125, 3, Rate3_125Hz},
	{1.563, 1, Rate1_563Hz},
	{0.782, 0, Rate0_782Hz},
	{0.39, 0, Rate0_39Hz},
	{0.195, 0, Rate0_195Hz},
	{0.098, 0, Rate0_098Hz},
}

// RateForHz maps a requested output rate to its BW_RATE code. Both the
// documented values (12.5, 6.25, ...) and their integer truncations
// (12, 6, 3, 1) are recognized; anything else selects DefaultRate.
func RateForHz(hz float64) Rate {
	for _, e := range rateTable {
		if math.Abs(hz-e.hz) < 1e-6 {
			return e.rate
		}
		if e.alias != 0 && hz == float64(e.alias) {
			return e.rate
		}
	}
	return DefaultRate
}

// Hz returns the nominal rate as listed in the datasheet.
func (r Rate) Hz() float64 {
	for _, e := range rateTable {
		if e.rate == r&0x0F {
			return e.hz
		}
	}
	return 0
}

// Frequency returns the exact rate: 3200 Hz halved once per code step.
func (r Rate) Frequency() physic.Frequency {
	return (3200 * physic.Hertz) >> (15 - uint(r&0x0F))
}

func (r Rate) String() string {
	return fmt.Sprintf("%gHz", r.Hz())
}

// Range is the full-scale range code in DATA_FORMAT bits 1:0.
type Range byte

const (
	Range2G  Range = 0x00
	Range4G  Range = 0x01
	Range8G  Range = 0x02
	Range16G Range = 0x03

	// DefaultRange is selected for any unsupported g value.
	DefaultRange = Range16G
)

// RangeForG maps ±g to its range code; unsupported values select
// DefaultRange.
func RangeForG(g int) Range {
	switch g {
	case 2:
		return Range2G
	case 4:
		return Range4G
	case 8:
		return Range8G
	case 16:
		return Range16G
	default:
		return DefaultRange
	}
}

// G returns the full-scale range in g.
func (r Range) G() int {
	return 2 << (r & 0x03)
}

func (r Range) String() string {
	return fmt.Sprintf("±%dg", r.G())
}

// Resolution selects between fixed 10-bit and full-resolution output.
type Resolution byte

const (
	Resolution10Bit Resolution = 0x00
	ResolutionFull  Resolution = 0x08
)

// Remaining DATA_FORMAT bits.
const (
	FormatJustifyLeft byte = 0x04
	FormatIntInvert   byte = 0x20
	FormatSPI3Wire    byte = 0x40
	FormatSelfTest    byte = 0x80
)

// FullResolutionScale is the mg/LSB scale factor of full-resolution mode,
// rounded from 3.9 mg/LSB.
const FullResolutionScale = 4

// DataFormat is the decoded content of the DATA_FORMAT register.
type DataFormat struct {
	Resolution Resolution
	Range      Range
}

// Encode returns the DATA_FORMAT register byte.
func (f DataFormat) Encode() byte {
	return byte(f.Resolution) | byte(f.Range)
}

// Scale returns the mg/LSB factor raw samples must be multiplied by.
func (f DataFormat) Scale() int {
	if f.Resolution == ResolutionFull {
		return FullResolutionScale
	}
	return RoundedDiv(f.Range.G()*1000, 512)
}

// DecodeDataFormat extracts resolution and range from a DATA_FORMAT byte.
func DecodeDataFormat(b byte) DataFormat {
	return DataFormat{
		Resolution: Resolution(b & byte(ResolutionFull)),
		Range:      Range(b & 0x03),
	}
}

// PowerMode is the POWER_CTL register content.
type PowerMode byte

const (
	PowerStandby   PowerMode = 0x00
	PowerWakeup4Hz PowerMode = 0x01
	PowerWakeup2Hz PowerMode = 0x02
	PowerWakeup1Hz PowerMode = 0x03
	PowerSleep     PowerMode = 0x04
	PowerMeasure   PowerMode = 0x08
	PowerAutoSleep PowerMode = 0x10
	PowerLink      PowerMode = 0x20
)

func (p PowerMode) String() string {
	if p&PowerMeasure != 0 {
		if p&PowerSleep != 0 {
			return "measure|sleep"
		}
		return "measure"
	}
	if p&PowerSleep != 0 {
		return "sleep"
	}
	return "standby"
}

// InterruptFlags is the bitmask shared by INT_ENABLE, INT_MAP and
// INT_SOURCE.
type InterruptFlags byte

const (
	Overrun    InterruptFlags = 0x01
	Watermark  InterruptFlags = 0x02
	FreeFall   InterruptFlags = 0x04
	Inactivity InterruptFlags = 0x08
	Activity   InterruptFlags = 0x10
	DoubleTap  InterruptFlags = 0x20
	SingleTap  InterruptFlags = 0x40
	DataReady  InterruptFlags = 0x80
)

var flagNames = []struct {
	f    InterruptFlags
	name string
}{
	{DataReady, "DATA_READY"},
	{SingleTap, "SINGLE_TAP"},
	{DoubleTap, "DOUBLE_TAP"},
	{Activity, "ACTIVITY"},
	{Inactivity, "INACTIVITY"},
	{FreeFall, "FREE_FALL"},
	{Watermark, "WATERMARK"},
	{Overrun, "OVERRUN"},
}

// Has reports whether every bit of m is set.
func (f InterruptFlags) Has(m InterruptFlags) bool {
	return f&m == m
}

func (f InterruptFlags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, n := range flagNames {
		if f&n.f != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}
