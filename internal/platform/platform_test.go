// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package platform

import (
	"context"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_computer/internal/i2cbus"
	"github.com/relabs-tech/accel_computer/internal/poll"
)

func TestWindowAccess(t *testing.T) {
	mem := make([]byte, 0x100)
	w := newWindow(mem, I2C0Base)
	w.Write32(0x6C, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), w.Read32(0x6C))
	assert.Equal(t, uint32(0xDEADBEEF), binary.NativeEndian.Uint32(mem[0x6C:]))
	assert.Equal(t, "0xFFC04000+0x100", w.String())
	assert.Panics(t, func() { w.Read32(0x02) })
	assert.Panics(t, func() { w.Read32(0x100) })
	assert.NoError(t, w.Close())
}

func TestConfigurePinmux(t *testing.T) {
	mem := make([]byte, SysMgrSpan)
	w := newWindow(mem, SysMgrBase)
	w.Write32(I2C0UseFPGA, 1)
	ConfigurePinmux(w)
	assert.Equal(t, uint32(0), w.Read32(I2C0UseFPGA))
	assert.Equal(t, uint32(1), w.Read32(GeneralIO7))
	assert.Equal(t, uint32(1), w.Read32(GeneralIO8))
}

// enablingI2C mirrors ENABLE into ENABLE_STATUS like the real controller.
type enablingI2C struct {
	*Window
}

func (e enablingI2C) Write32(off, v uint32) {
	e.Window.Write32(off, v)
	if off == i2cbus.RegEnable {
		e.Window.Write32(i2cbus.RegEnableStatus, v&1)
	}
}

func TestBringUp(t *testing.T) {
	sys := newWindow(make([]byte, SysMgrSpan), SysMgrBase)
	i2c := enablingI2C{newWindow(make([]byte, I2C0Span), I2C0Base)}
	c, err := bringUp(context.Background(), sys, i2c, poll.Waiter{Timeout: 10 * time.Millisecond})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, uint32(1), sys.Read32(GeneralIO7))
	assert.Equal(t, uint32(0x53), i2c.Read32(i2cbus.RegTar))
	assert.Equal(t, uint32(0x65), i2c.Read32(i2cbus.RegCon))
	assert.Equal(t, uint32(1), i2c.Read32(i2cbus.RegEnable))
}

func TestBringUpControllerStuck(t *testing.T) {
	sys := newWindow(make([]byte, SysMgrSpan), SysMgrBase)
	i2c := newWindow(make([]byte, I2C0Span), I2C0Base)
	// ENABLE_STATUS never follows ENABLE.
	_, err := bringUp(context.Background(), sys, i2c, poll.Waiter{Timeout: 5 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, errors.Is(err, poll.ErrTimeout))
}

func TestMapMissingDevice(t *testing.T) {
	_, err := Map(filepath.Join(t.TempDir(), "nomem"), SysMgrBase, SysMgrSpan)
	assert.Error(t, err)
}
