// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sim simulates an ADXL345 register file behind the
// adxl345.Transport interface.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
	"github.com/relabs-tech/accel_computer/internal/poll"
)

// Write is one recorded register write.
type Write struct {
	Reg   adxl345.Register
	Value byte
}

func (w Write) String() string {
	return fmt.Sprintf("%s=0x%02X", w.Reg, w.Value)
}

// Device is a simulated ADXL345. DATA_READY is raised while measuring and a
// sample is available: either a queued one or the steady sample set with
// SetSteady. Events raised with Raise clear when INT_SOURCE is read.
type Device struct {
	mu      sync.Mutex
	regs    [0x40]byte
	queue   []adxl345.Axes
	steady  *adxl345.Axes
	last    adxl345.Axes
	events  adxl345.InterruptFlags
	writes  []Write
	reads   []adxl345.Register
	hung    bool
	timeout time.Duration
}

// New returns a device in its power-on state with DEVID 0xE5.
func New() *Device {
	d := &Device{timeout: 10 * time.Millisecond}
	d.regs[adxl345.RegDevID] = adxl345.DeviceID
	d.regs[adxl345.RegBwRate] = byte(adxl345.Rate100Hz)
	d.regs[adxl345.RegIntSource] = byte(adxl345.Watermark)
	return d
}

// SetID overrides DEVID.
func (d *Device) SetID(id byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs[adxl345.RegDevID] = id
}

// Set overrides any register, read-only ones included.
func (d *Device) Set(reg adxl345.Register, v byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs[reg] = v
}

// Get returns the current content of a register without recording a read.
func (d *Device) Get(reg adxl345.Register) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[reg]
}

// Feed queues samples; each is consumed by one data read.
func (d *Device) Feed(samples ...adxl345.Axes) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, samples...)
}

// SetSteady makes every data read return a once the queue is empty.
func (d *Device) SetSteady(a adxl345.Axes) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.steady = &a
}

// Raise latches event bits until the next INT_SOURCE read.
func (d *Device) Raise(f adxl345.InterruptFlags) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events |= f
}

// Hang makes every transaction block until the bus timeout.
func (d *Device) Hang(timeout time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hung = true
	d.timeout = timeout
}

// Writes returns the write log.
func (d *Device) Writes() []Write {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Write(nil), d.writes...)
}

// Reads returns the registers read, in order.
func (d *Device) Reads() []adxl345.Register {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]adxl345.Register(nil), d.reads...)
}

// ResetLog clears the read and write logs.
func (d *Device) ResetLog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = nil
	d.reads = nil
}

// Pending returns the number of queued samples.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

func (d *Device) stall(ctx context.Context) error {
	d.mu.Lock()
	hung, timeout := d.hung, d.timeout
	d.mu.Unlock()
	if !hung {
		return nil
	}
	err := poll.Until(ctx, timeout, time.Millisecond, func() (bool, error) { return false, nil })
	return fmt.Errorf("sim: rx fifo empty: %w", err)
}

// WriteRegister implements adxl345.Transport.
func (d *Device) WriteRegister(ctx context.Context, reg adxl345.Register, value byte) error {
	if err := d.stall(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = append(d.writes, Write{Reg: reg, Value: value})
	if reg.Writable() {
		d.regs[reg] = value
	}
	return nil
}

// ReadRegister implements adxl345.Transport.
func (d *Device) ReadRegister(ctx context.Context, reg adxl345.Register) (byte, error) {
	var b [1]byte
	if err := d.ReadRegisters(ctx, reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadRegisters implements adxl345.Transport.
func (d *Device) ReadRegisters(ctx context.Context, reg adxl345.Register, buf []byte) error {
	if err := d.stall(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads = append(d.reads, reg)
	if reg <= adxl345.RegDataX0 && int(reg)+len(buf) > int(adxl345.RegDataX0) {
		d.latchSample()
	}
	for i := range buf {
		r := adxl345.Register(int(reg) + i)
		if int(r) >= len(d.regs) {
			buf[i] = 0
			continue
		}
		buf[i] = d.readLocked(r)
	}
	return nil
}

func (d *Device) measuring() bool {
	return d.regs[adxl345.RegPowerCtl]&byte(adxl345.PowerMeasure) != 0
}

func (d *Device) available() bool {
	return d.measuring() && (len(d.queue) > 0 || d.steady != nil)
}

// latchSample moves the next sample into the data registers.
func (d *Device) latchSample() {
	if !d.available() {
		return
	}
	if len(d.queue) > 0 {
		d.last = d.queue[0]
		d.queue = d.queue[1:]
	} else {
		d.last = *d.steady
	}
	put := func(lo adxl345.Register, v int16) {
		d.regs[lo] = byte(uint16(v))
		d.regs[lo+1] = byte(uint16(v) >> 8)
	}
	put(adxl345.RegDataX0, d.last.X)
	put(adxl345.RegDataY0, d.last.Y)
	put(adxl345.RegDataZ0, d.last.Z)
}

func (d *Device) readLocked(r adxl345.Register) byte {
	if r != adxl345.RegIntSource {
		return d.regs[r]
	}
	v := adxl345.InterruptFlags(d.regs[r]) | d.events
	d.events = 0
	if d.available() {
		v |= adxl345.DataReady
	} else {
		v &^= adxl345.DataReady
	}
	return byte(v)
}
