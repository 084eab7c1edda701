// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package i2cbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
	"github.com/relabs-tech/accel_computer/internal/poll"
)

type regWrite struct {
	off, v uint32
}

// fakeDW models the DesignWare controller with a byte-addressed slave
// behind it.
type fakeDW struct {
	mu      sync.Mutex
	regs    map[uint32]uint32
	mem     [0x40]byte
	ptr     byte
	rx      []byte
	log     []regWrite
	hung    bool
	stuckOn bool
}

func newFakeDW() *fakeDW {
	return &fakeDW{regs: map[uint32]uint32{RegEnableStatus: 1}}
}

func (f *fakeDW) Read32(off uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch off {
	case RegEnableStatus:
		if f.stuckOn {
			return 1
		}
		return f.regs[RegEnable] & 1
	case RegRxflr:
		if f.hung {
			return 0
		}
		return uint32(len(f.rx))
	case RegDataCmd:
		if len(f.rx) == 0 {
			return 0
		}
		b := f.rx[0]
		f.rx = f.rx[1:]
		return uint32(b)
	}
	return f.regs[off]
}

func (f *fakeDW) Write32(off, v uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, regWrite{off, v})
	if off != RegDataCmd {
		f.regs[off] = v
		if off == RegEnable && v&enableAbort != 0 {
			f.rx = nil
		}
		return
	}
	switch {
	case v&CmdRestart != 0:
		f.ptr = byte(v)
	case v&CmdRead != 0:
		f.rx = append(f.rx, f.mem[f.ptr])
		f.ptr++
	default:
		f.mem[f.ptr] = byte(v)
		f.ptr++
	}
}

func (f *fakeDW) writes() []regWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]regWrite(nil), f.log...)
}

var fastWait = poll.Waiter{Timeout: 20 * time.Millisecond}

func TestControllerInit(t *testing.T) {
	f := newFakeDW()
	c := NewController(f, fastWait)
	require.NoError(t, c.Init(context.Background(), 0x53))
	assert.Equal(t, []regWrite{
		{RegEnable, 2},
		{RegCon, 0x65},
		{RegTar, 0x53},
		{RegFsSclHcnt, 90},
		{RegFsSclLcnt, 160},
		{RegEnable, 1},
	}, f.writes())
}

func TestControllerInitStuck(t *testing.T) {
	f := newFakeDW()
	f.stuckOn = true
	c := NewController(f, fastWait)
	err := c.Init(context.Background(), 0x53)
	require.Error(t, err)
	assert.True(t, errors.Is(err, adxl345.ErrTransportTimeout))
}

func TestControllerWriteRegister(t *testing.T) {
	f := newFakeDW()
	c := NewController(f, fastWait)
	require.NoError(t, c.WriteRegister(context.Background(), adxl345.RegOfsY, 0x7E))
	assert.Equal(t, []regWrite{
		{RegDataCmd, 0x41F},
		{RegDataCmd, 0x7E},
	}, f.writes())
	assert.Equal(t, byte(0x7E), f.mem[adxl345.RegOfsY])
}

func TestControllerReadRegister(t *testing.T) {
	f := newFakeDW()
	f.mem[adxl345.RegDevID] = 0xE5
	c := NewController(f, fastWait)
	v, err := c.ReadRegister(context.Background(), adxl345.RegDevID)
	require.NoError(t, err)
	assert.Equal(t, byte(0xE5), v)
	assert.Equal(t, []regWrite{
		{RegDataCmd, 0x400},
		{RegDataCmd, 0x100},
	}, f.writes())
}

func TestControllerReadRegisters(t *testing.T) {
	f := newFakeDW()
	copy(f.mem[adxl345.RegDataX0:], []byte{0x10, 0x02, 0x20, 0x03, 0x30, 0x04})
	c := NewController(f, fastWait)
	buf := make([]byte, 6)
	require.NoError(t, c.ReadRegisters(context.Background(), adxl345.RegDataX0, buf))
	assert.Equal(t, adxl345.Axes{X: 528, Y: 800, Z: 1072}, adxl345.DecodeAxes(buf))

	w := f.writes()
	require.Len(t, w, 7)
	assert.Equal(t, regWrite{RegDataCmd, 0x432}, w[0])
	for _, rw := range w[1:] {
		assert.Equal(t, regWrite{RegDataCmd, CmdRead}, rw)
	}
	assert.Empty(t, f.rx, "FIFO fully drained")
}

func TestControllerHungBus(t *testing.T) {
	f := newFakeDW()
	f.hung = true
	c := NewController(f, fastWait)
	start := time.Now()
	_, err := c.ReadRegister(context.Background(), adxl345.RegDevID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, adxl345.ErrTransportTimeout))
	assert.Less(t, time.Since(start), time.Second)
}

func TestControllerCancelled(t *testing.T) {
	f := newFakeDW()
	f.hung = true
	c := NewController(f, poll.Waiter{Timeout: time.Minute, Interval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ReadRegister(ctx, adxl345.RegDevID)
	assert.ErrorIs(t, err, context.Canceled)
}

// The controller is a complete adxl345 transport.
func TestControllerDrivesDevice(t *testing.T) {
	f := newFakeDW()
	f.mem[adxl345.RegDevID] = 0xE5
	c := NewController(f, fastWait)
	require.NoError(t, c.Init(context.Background(), 0x53))
	d, err := adxl345.New(context.Background(), c, nil)
	require.NoError(t, err)
	scale, err := d.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 31, scale)
	assert.Equal(t, byte(0x58), f.mem[adxl345.RegIntEnable])
	assert.Equal(t, byte(0x08), f.mem[adxl345.RegPowerCtl])
}

func TestControllerFailedReadNeedsInit(t *testing.T) {
	f := newFakeDW()
	f.mem[adxl345.RegDevID] = 0xE5
	f.mem[adxl345.RegPowerCtl] = 0x08
	c := NewController(f, fastWait)
	require.NoError(t, c.Init(context.Background(), 0x53))

	f.hung = true
	_, err := c.ReadRegister(context.Background(), adxl345.RegPowerCtl)
	require.ErrorIs(t, err, adxl345.ErrTransportTimeout)

	// The bus recovers but the FIFO still holds the byte of the failed read.
	f.mu.Lock()
	f.hung = false
	f.mu.Unlock()
	before := len(f.writes())
	_, err = c.ReadRegister(context.Background(), adxl345.RegDevID)
	assert.ErrorIs(t, err, adxl345.ErrTransportTimeout)
	assert.ErrorIs(t, c.WriteRegister(context.Background(), adxl345.RegOfsX, 1), adxl345.ErrTransportTimeout)
	assert.Len(t, f.writes(), before, "no bus traffic while failed")

	require.NoError(t, c.Init(context.Background(), 0x53))
	v, err := c.ReadRegister(context.Background(), adxl345.RegDevID)
	require.NoError(t, err)
	assert.Equal(t, byte(0xE5), v)
}
