// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package adxl345

import (
	"context"
	"fmt"

	"github.com/relabs-tech/accel_computer/internal/poll"
)

const (
	// CalibrationSamples is the number of samples averaged per calibration.
	CalibrationSamples = 32

	// OneGFullRes is 1 g in full-resolution LSBs. The Z axis is expected to
	// read +1 g with the sensor lying flat.
	OneGFullRes = 256

	// offsetLSBRatio converts 3.9 mg sample LSBs to 15.6 mg offset LSBs.
	offsetLSBRatio = 4
)

// Offsets holds the OFSX, OFSY and OFSZ trims in 15.6 mg/LSB.
type Offsets struct {
	X int8 `json:"x" yaml:"x"`
	Y int8 `json:"y" yaml:"y"`
	Z int8 `json:"z" yaml:"z"`
}

// Calibration reports what a calibration run measured and installed.
type Calibration struct {
	Average  [3]int `json:"average"` // full-resolution LSB
	Previous Offsets `json:"previous"`
	Offsets  Offsets `json:"offsets"`
}

// ReadOffsets reads the three offset trim registers.
func (d *Dev) ReadOffsets(ctx context.Context) (Offsets, error) {
	var o Offsets
	for _, r := range []struct {
		reg Register
		dst *int8
	}{{RegOfsX, &o.X}, {RegOfsY, &o.Y}, {RegOfsZ, &o.Z}} {
		v, err := d.read(ctx, r.reg)
		if err != nil {
			return Offsets{}, err
		}
		*r.dst = int8(v)
	}
	return o, nil
}

func (d *Dev) writeOffsets(ctx context.Context, o Offsets) error {
	if err := d.write(ctx, RegOfsX, byte(o.X)); err != nil {
		return err
	}
	if err := d.write(ctx, RegOfsY, byte(o.Y)); err != nil {
		return err
	}
	return d.write(ctx, RegOfsZ, byte(o.Z))
}

// WriteOffsets installs previously computed trims: standby, write OFSX,
// OFSY and OFSZ, then measure.
func (d *Dev) WriteOffsets(ctx context.Context, o Offsets) error {
	if err := d.SetPowerMode(ctx, PowerStandby); err != nil {
		return err
	}
	if err := d.writeOffsets(ctx, o); err != nil {
		return err
	}
	return d.SetPowerMode(ctx, PowerMeasure)
}

// ComputeOffsets derives new trims from the previous ones and the
// full-resolution per-axis averages of a stationary, level device.
func ComputeOffsets(prev Offsets, avgX, avgY, avgZ int) Offsets {
	return Offsets{
		X: int8(int(prev.X) + RoundedDiv(0-avgX, offsetLSBRatio)),
		Y: int8(int(prev.Y) + RoundedDiv(0-avgY, offsetLSBRatio)),
		Z: int8(int(prev.Z) + RoundedDiv(OneGFullRes-avgZ, offsetLSBRatio)),
	}
}

// Calibrate cancels the zero-g bias of a device that lies flat and still.
//
// It samples at 100 Hz, ±16g full resolution, averages CalibrationSamples
// samples gated on DATA_READY, adds the correction to the current offset
// trims, then restores the previous BW_RATE and DATA_FORMAT exactly and
// resumes measuring. On error the device is left in an unspecified state.
func (d *Dev) Calibrate(ctx context.Context) (Calibration, error) {
	var c Calibration
	if err := d.SetPowerMode(ctx, PowerStandby); err != nil {
		return c, fmt.Errorf("calibrate: %w", err)
	}
	prev, err := d.ReadOffsets(ctx)
	if err != nil {
		return c, fmt.Errorf("calibrate: %w", err)
	}
	c.Previous = prev

	savedRate, err := d.read(ctx, RegBwRate)
	if err != nil {
		return c, fmt.Errorf("calibrate: %w", err)
	}
	if err := d.SetRate(ctx, Rate100Hz); err != nil {
		return c, fmt.Errorf("calibrate: %w", err)
	}
	savedFormat, err := d.read(ctx, RegDataFormat)
	if err != nil {
		return c, fmt.Errorf("calibrate: %w", err)
	}
	calFormat := DataFormat{Resolution: ResolutionFull, Range: Range16G}
	if err := d.write(ctx, RegDataFormat, calFormat.Encode()); err != nil {
		return c, fmt.Errorf("calibrate: %w", err)
	}
	if err := d.SetPowerMode(ctx, PowerMeasure); err != nil {
		return c, fmt.Errorf("calibrate: %w", err)
	}

	// DATA_READY gating: a stationary board never raises Activity.
	w := poll.Waiter{Timeout: d.opts.DataReadyTimeout, Interval: d.opts.PollInterval}
	var sum [3]int
	for i := 0; i < CalibrationSamples; i++ {
		if err := w.Wait(ctx, func() (bool, error) { return d.IsDataReady(ctx) }); err != nil {
			return c, fmt.Errorf("calibrate: sample %d: wait data ready: %w", i, err)
		}
		a, err := d.ReadAxes(ctx)
		if err != nil {
			return c, fmt.Errorf("calibrate: sample %d: %w", i, err)
		}
		sum[0] += int(a.X)
		sum[1] += int(a.Y)
		sum[2] += int(a.Z)
	}
	for i := range sum {
		c.Average[i] = RoundedDiv(sum[i], CalibrationSamples)
	}

	if err := d.SetPowerMode(ctx, PowerStandby); err != nil {
		return c, fmt.Errorf("calibrate: %w", err)
	}
	c.Offsets = ComputeOffsets(prev, c.Average[0], c.Average[1], c.Average[2])
	if err := d.writeOffsets(ctx, c.Offsets); err != nil {
		return c, fmt.Errorf("calibrate: %w", err)
	}
	if err := d.write(ctx, RegBwRate, savedRate); err != nil {
		return c, fmt.Errorf("calibrate: restore rate: %w", err)
	}
	if err := d.write(ctx, RegDataFormat, savedFormat); err != nil {
		return c, fmt.Errorf("calibrate: restore format: %w", err)
	}
	if err := d.SetPowerMode(ctx, PowerMeasure); err != nil {
		return c, fmt.Errorf("calibrate: %w", err)
	}
	d.log.Infof("calibrated: average X=%d Y=%d Z=%d, offsets X=%d Y=%d Z=%d (15.6 mg/LSB)",
		c.Average[0], c.Average[1], c.Average[2], c.Offsets.X, c.Offsets.Y, c.Offsets.Z)
	return c, nil
}
