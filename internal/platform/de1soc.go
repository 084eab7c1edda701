// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package platform brings up the DE1-SoC hard processor system so that the
// on-board ADXL345 is reachable over I2C0: physical memory windows, pin
// multiplexing and controller initialization.
package platform

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/accel_computer/internal/i2cbus"
	"github.com/relabs-tech/accel_computer/internal/poll"
)

// Physical layout of the Cyclone V HPS peripherals used here.
const (
	DevMem = "/dev/mem"

	SysMgrBase uint32 = 0xFFD08000
	SysMgrSpan uint32 = 0x800
	I2C0Base   uint32 = 0xFFC04000
	I2C0Span   uint32 = 0x100

	// System manager pin-mux registers.
	GeneralIO7  uint32 = 0x49C
	GeneralIO8  uint32 = 0x4A0
	I2C0UseFPGA uint32 = 0x704

	// ADXL345 7-bit address with ALT ADDRESS grounded.
	ADXL345Addr uint16 = 0x53
)

// ConfigurePinmux routes I2C0 to the HPS pins wired to the accelerometer.
func ConfigurePinmux(sysmgr i2cbus.Regs) {
	sysmgr.Write32(I2C0UseFPGA, 0)
	sysmgr.Write32(GeneralIO7, 1)
	sysmgr.Write32(GeneralIO8, 1)
}

// Board holds the mapped windows and the initialized I2C0 controller.
type Board struct {
	*i2cbus.Controller
	sysmgr *Window
	i2c0   *Window
}

// OpenDE1SoC maps the system manager and I2C0, configures pin-mux and
// initializes the controller for the accelerometer. timeout and interval
// bound every hardware wait.
func OpenDE1SoC(ctx context.Context, timeout, interval time.Duration) (*Board, error) {
	sysmgr, err := Map(DevMem, SysMgrBase, SysMgrSpan)
	if err != nil {
		return nil, err
	}
	i2c0, err := Map(DevMem, I2C0Base, I2C0Span)
	if err != nil {
		sysmgr.Close()
		return nil, err
	}
	c, err := bringUp(ctx, sysmgr, i2c0, poll.Waiter{Timeout: timeout, Interval: interval})
	if err != nil {
		i2c0.Close()
		sysmgr.Close()
		return nil, err
	}
	return &Board{Controller: c, sysmgr: sysmgr, i2c0: i2c0}, nil
}

func bringUp(ctx context.Context, sysmgr, i2c0 i2cbus.Regs, w poll.Waiter) (*i2cbus.Controller, error) {
	ConfigurePinmux(sysmgr)
	c := i2cbus.NewController(i2c0, w)
	if err := c.Init(ctx, ADXL345Addr); err != nil {
		return nil, fmt.Errorf("platform: I2C0 init: %w", err)
	}
	log.WithField("component", "platform").Infof("I2C0 ready at 0x%08X, target 0x%02X", I2C0Base, ADXL345Addr)
	return c, nil
}

// Close unmaps both windows.
func (b *Board) Close() error {
	err1 := b.i2c0.Close()
	err2 := b.sysmgr.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
