// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package adxl345 drives an Analog Devices ADXL345 accelerometer through a
// register Transport: configuration, zero-g offset calibration and sample
// readout.
//
// A Dev holds no configuration state of its own; everything lives in the
// device registers. Dev is not safe for concurrent use.
package adxl345

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// DeviceID is the fixed content of the DEVID register.
const DeviceID byte = 0xE5

// Thresholds holds the activity and tap detection settings programmed by
// Initialize.
type Thresholds struct {
	Activity    byte // THRESH_ACT, 62.5 mg/LSB
	Inactivity  byte // THRESH_INACT, 62.5 mg/LSB
	InactTime   byte // TIME_INACT, 1 s/LSB
	ActInactCtl byte // ACT_INACT_CTL
	Tap         byte // THRESH_TAP, 62.5 mg/LSB
	TapDuration byte // DUR, 625 µs/LSB
	TapLatency  byte // LATENT, 1.25 ms/LSB
	TapWindow   byte // WINDOW, 1.25 ms/LSB
	Interrupts  InterruptFlags
}

// DefaultThresholds: 3 g taps of at most 20 ms, 20 ms latency, 300 ms
// double tap window, AC-coupled activity/inactivity on all axes.
var DefaultThresholds = Thresholds{
	Activity:    0x04,
	Inactivity:  0x02,
	InactTime:   0x02,
	ActInactCtl: 0xFF,
	Tap:         48,
	TapDuration: 32,
	TapLatency:  16,
	TapWindow:   240,
	Interrupts:  SingleTap | Activity | Inactivity,
}

// Opts configures a Dev.
type Opts struct {
	ExpectedDeviceID byte
	Thresholds       Thresholds
	// DataReadyTimeout bounds the wait for each calibration sample.
	DataReadyTimeout time.Duration
	// PollInterval is the pause between INT_SOURCE polls while waiting for
	// data-ready.
	PollInterval time.Duration
	Logger       *log.Entry
}

// DefaultOpts is used when New is given nil options.
var DefaultOpts = Opts{
	ExpectedDeviceID: DeviceID,
	Thresholds:       DefaultThresholds,
	DataReadyTimeout: time.Second,
	PollInterval:     time.Millisecond,
}

// Dev is an ADXL345 reached through a Transport.
type Dev struct {
	tr   Transport
	opts Opts
	log  *log.Entry
	id   byte
	buf  [6]byte
}

// New reads DEVID through tr and returns a Dev once the identity has been
// confirmed. An unexpected ID yields an *IdentityMismatchError and no Dev.
func New(ctx context.Context, tr Transport, o *Opts) (*Dev, error) {
	if o == nil {
		o = &DefaultOpts
	}
	d := &Dev{tr: tr, opts: *o}
	if d.opts.Logger != nil {
		d.log = d.opts.Logger
	} else {
		d.log = log.WithField("component", "adxl345")
	}
	if d.opts.DataReadyTimeout == 0 {
		d.opts.DataReadyTimeout = DefaultOpts.DataReadyTimeout
	}
	id, err := d.ReadDeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("adxl345: read device ID: %w", err)
	}
	if id != d.opts.ExpectedDeviceID {
		return nil, &IdentityMismatchError{Got: id, Want: d.opts.ExpectedDeviceID}
	}
	d.id = id
	d.log.Debugf("device ID 0x%02X confirmed", id)
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ADXL345{id:0x%02X}", d.id)
}

// ID returns the device ID confirmed by New.
func (d *Dev) ID() byte {
	return d.id
}

// ReadDeviceID reads the DEVID register.
func (d *Dev) ReadDeviceID(ctx context.Context) (byte, error) {
	return d.tr.ReadRegister(ctx, RegDevID)
}

// ReadRegister reads a single register.
func (d *Dev) ReadRegister(ctx context.Context, reg Register) (byte, error) {
	return d.tr.ReadRegister(ctx, reg)
}

// WriteRegister writes a single register.
func (d *Dev) WriteRegister(ctx context.Context, reg Register, value byte) error {
	return d.write(ctx, reg, value)
}

func (d *Dev) write(ctx context.Context, reg Register, value byte) error {
	d.log.Debugf("write %s = 0x%02X", reg, value)
	if err := d.tr.WriteRegister(ctx, reg, value); err != nil {
		return fmt.Errorf("adxl345: write %s: %w", reg, err)
	}
	return nil
}

func (d *Dev) read(ctx context.Context, reg Register) (byte, error) {
	v, err := d.tr.ReadRegister(ctx, reg)
	if err != nil {
		return 0, fmt.Errorf("adxl345: read %s: %w", reg, err)
	}
	return v, nil
}

// SetPowerMode writes POWER_CTL.
func (d *Dev) SetPowerMode(ctx context.Context, p PowerMode) error {
	return d.write(ctx, RegPowerCtl, byte(p))
}

// SetRate writes a BW_RATE code.
func (d *Dev) SetRate(ctx context.Context, r Rate) error {
	return d.write(ctx, RegBwRate, byte(r))
}

// SetOutputRate selects the output data rate for hz, falling back to
// 12.5 Hz for unsupported values, and returns the code written.
func (d *Dev) SetOutputRate(ctx context.Context, hz float64) (Rate, error) {
	r := RateForHz(hz)
	if err := d.SetRate(ctx, r); err != nil {
		return r, err
	}
	return r, nil
}

// SetRange writes DATA_FORMAT for the given resolution and ±rangeG
// (unsupported ranges select ±16g) and returns the mg/LSB scale factor
// that samples read afterwards must be multiplied by.
func (d *Dev) SetRange(ctx context.Context, fullResolution bool, rangeG int) (int, error) {
	f := DataFormat{Resolution: Resolution10Bit, Range: RangeForG(rangeG)}
	if fullResolution {
		f.Resolution = ResolutionFull
	}
	if err := d.write(ctx, RegDataFormat, f.Encode()); err != nil {
		return 0, err
	}
	return f.Scale(), nil
}

// Initialize puts the device in standby, programs ±16g fixed resolution at
// 12.5 Hz with the activity and tap thresholds of Opts, enables the
// configured interrupts, and starts measuring. It returns the resulting
// scale factor.
func (d *Dev) Initialize(ctx context.Context) (int, error) {
	t := d.opts.Thresholds
	format := DataFormat{Resolution: Resolution10Bit, Range: Range16G}
	seq := []struct {
		reg   Register
		value byte
	}{
		{RegPowerCtl, byte(PowerStandby)},
		{RegDataFormat, format.Encode()},
		{RegBwRate, byte(Rate12_5Hz)},
		{RegThreshAct, t.Activity},
		{RegThreshInact, t.Inactivity},
		{RegTimeInact, t.InactTime},
		{RegActInactCtl, t.ActInactCtl},
		{RegThreshTap, t.Tap},
		{RegDur, t.TapDuration},
		{RegLatent, t.TapLatency},
		{RegWindow, t.TapWindow},
		{RegIntEnable, byte(t.Interrupts)},
		{RegPowerCtl, byte(PowerMeasure)},
	}
	for _, s := range seq {
		if err := d.write(ctx, s.reg, s.value); err != nil {
			return 0, fmt.Errorf("initialize: %w", err)
		}
	}
	d.log.Infof("initialized: %s %s, interrupts %s", format.Range, Rate12_5Hz, t.Interrupts)
	return format.Scale(), nil
}

// Axes is one raw sample in LSB units.
type Axes struct {
	X int16 `json:"x" yaml:"x"`
	Y int16 `json:"y" yaml:"y"`
	Z int16 `json:"z" yaml:"z"`
}

func (a Axes) String() string {
	return fmt.Sprintf("X:%d Y:%d Z:%d", a.X, a.Y, a.Z)
}

// DecodeAxes assembles X, Y and Z from the six data registers, each axis
// little-endian.
func DecodeAxes(b []byte) Axes {
	return Axes{
		X: int16(binary.LittleEndian.Uint16(b[0:2])),
		Y: int16(binary.LittleEndian.Uint16(b[2:4])),
		Z: int16(binary.LittleEndian.Uint16(b[4:6])),
	}
}

// ReadAxes reads DATAX0 through DATAZ1 in one transaction.
func (d *Dev) ReadAxes(ctx context.Context) (Axes, error) {
	if err := d.tr.ReadRegisters(ctx, RegDataX0, d.buf[:]); err != nil {
		return Axes{}, fmt.Errorf("adxl345: read axes: %w", err)
	}
	return DecodeAxes(d.buf[:]), nil
}

// ReadInterruptSource returns the raw INT_SOURCE snapshot. Reading may
// clear some of the event bits in the device.
func (d *Dev) ReadInterruptSource(ctx context.Context) (InterruptFlags, error) {
	v, err := d.read(ctx, RegIntSource)
	return InterruptFlags(v), err
}

// IsDataReady reports whether INT_SOURCE has DATA_READY set.
func (d *Dev) IsDataReady(ctx context.Context) (bool, error) {
	f, err := d.ReadInterruptSource(ctx)
	return f.Has(DataReady), err
}

// WasActivity reports whether INT_SOURCE has Activity set.
func (d *Dev) WasActivity(ctx context.Context) (bool, error) {
	f, err := d.ReadInterruptSource(ctx)
	return f.Has(Activity), err
}

// ReadDataFormat reads and decodes DATA_FORMAT.
func (d *Dev) ReadDataFormat(ctx context.Context) (DataFormat, error) {
	v, err := d.read(ctx, RegDataFormat)
	return DecodeDataFormat(v), err
}

// ReadRate reads the BW_RATE rate code.
func (d *Dev) ReadRate(ctx context.Context) (Rate, error) {
	v, err := d.read(ctx, RegBwRate)
	return Rate(v & 0x0F), err
}
