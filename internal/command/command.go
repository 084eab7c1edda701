// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package command implements the textual control protocol of the
// accelerometer: "init", "device", "calibrate", "format F G" and "rate R",
// plus the fixed-width status line returned on read.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/relabs-tech/accel_computer/internal/accel"
	"github.com/relabs-tech/accel_computer/internal/adxl345"
)

// ErrUnknownCommand is returned by Parse for a line that names no command.
var ErrUnknownCommand = errors.New("unknown command")

// Kind identifies a command.
type Kind int

const (
	// Ignored is a recognized command whose arguments were unusable. It is
	// executed as a no-op.
	Ignored Kind = iota
	Init
	Device
	Calibrate
	Format
	Rate
)

var kindNames = [...]string{"ignored", "init", "device", "calibrate", "format", "rate"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Command is one parsed control command.
type Command struct {
	Kind    Kind
	FullRes bool    // Format
	RangeG  int     // Format
	RateHz  float64 // Rate
	Line    string
}

// Parse reads one command line. Commands match on their leading word, as
// the device file always did. Malformed "format" or "rate" arguments, and a
// resolution flag other than 0 or 1, produce an Ignored command rather than
// an error.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	c := Command{Line: line}
	switch {
	case strings.HasPrefix(line, "init"):
		c.Kind = Init
	case strings.HasPrefix(line, "device"):
		c.Kind = Device
	case strings.HasPrefix(line, "calibrate"):
		c.Kind = Calibrate
	case strings.HasPrefix(line, "format"):
		nums := numbers(line[len("format"):], 2)
		if len(nums) < 2 {
			return c, nil
		}
		f, errF := strconv.Atoi(nums[0])
		g, errG := strconv.Atoi(leadingNumber(nums[1], false))
		if errF != nil || errG != nil || f > 1 {
			return c, nil
		}
		c.Kind, c.FullRes, c.RangeG = Format, f == 1, g
	case strings.HasPrefix(line, "rate"):
		nums := numbers(line[len("rate"):], 1)
		if len(nums) < 1 {
			return c, nil
		}
		hz, err := strconv.ParseFloat(leadingNumber(nums[0], true), 64)
		if err != nil {
			return c, nil
		}
		c.Kind, c.RateHz = Rate, hz
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}
	return c, nil
}

// numbers skips to the first digit of s and returns up to n
// whitespace-separated fields from there.
func numbers(s string, n int) []string {
	i := strings.IndexFunc(s, unicode.IsDigit)
	if i < 0 {
		return nil
	}
	f := strings.Fields(s[i:])
	if len(f) > n {
		f = f[:n]
	}
	return f
}

// leadingNumber returns the digits s starts with, and with frac a decimal
// point and the digits after it. Like sscanf, text after the last number is
// dropped: "4g" gives "4".
func leadingNumber(s string, frac bool) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if frac && end > 0 && end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
	}
	return s[:end]
}

// Target is what commands operate on.
type Target interface {
	Initialize(ctx context.Context) error
	DeviceID(ctx context.Context) (byte, error)
	Calibrate(ctx context.Context) (adxl345.Calibration, error)
	SetFormat(ctx context.Context, fullResolution bool, rangeG int) (int, error)
	SetRate(ctx context.Context, hz float64) (adxl345.Rate, error)
}

// Execute runs c against t and returns a one-line report.
func Execute(ctx context.Context, t Target, c Command) (string, error) {
	switch c.Kind {
	case Ignored:
		return "", nil
	case Init:
		if err := t.Initialize(ctx); err != nil {
			return "", err
		}
		return "initialized", nil
	case Device:
		id, err := t.DeviceID(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Accelerometer Device ID: %08x", id), nil
	case Calibrate:
		cal, err := t.Calibrate(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("calibrated: offsets X=%d Y=%d Z=%d", cal.Offsets.X, cal.Offsets.Y, cal.Offsets.Z), nil
	case Format:
		scale, err := t.SetFormat(ctx, c.FullRes, c.RangeG)
		if err != nil {
			return "", err
		}
		res := "10-bit"
		if c.FullRes {
			res = "full"
		}
		return fmt.Sprintf("format: %s resolution, %s, %d mg/LSB", res, adxl345.RangeForG(c.RangeG), scale), nil
	case Rate:
		r, err := t.SetRate(ctx, c.RateHz)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("rate: %s", r), nil
	}
	return "", fmt.Errorf("command %s not executable", c.Kind)
}

// Run parses and executes one line.
func Run(ctx context.Context, t Target, line string) (string, error) {
	c, err := Parse(line)
	if err != nil {
		return "", err
	}
	return Execute(ctx, t, c)
}

// StatusLine formats a sample the way the device file reports it:
// "SS XXXX YYYY ZZZZ MM\n", with INT_SOURCE in hex, the axes in raw LSB
// and the scale in mg/LSB.
func StatusLine(s accel.Sample) string {
	return fmt.Sprintf("%02x %04d %04d %04d %02d\n", byte(s.Flags), s.X, s.Y, s.Z, s.Scale)
}

// ParseStatusLine decodes a line produced by StatusLine.
func ParseStatusLine(line string) (accel.Sample, error) {
	var (
		s     accel.Sample
		flags byte
	)
	n, err := fmt.Sscanf(strings.TrimSpace(line), "%02x %d %d %d %d", &flags, &s.X, &s.Y, &s.Z, &s.Scale)
	if err != nil {
		return accel.Sample{}, fmt.Errorf("status line %q: field %d: %w", line, n+1, err)
	}
	s.Flags = adxl345.InterruptFlags(flags)
	return s, nil
}
