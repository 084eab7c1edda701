// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package i2cbus provides adxl345.Transport implementations: the HPS
// DesignWare I2C controller driven through memory-mapped registers, and a
// Linux i2c-dev bus reached through periph.
package i2cbus

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
	"github.com/relabs-tech/accel_computer/internal/poll"
)

// Regs is a window of 32-bit memory-mapped registers.
type Regs interface {
	Read32(off uint32) uint32
	Write32(off uint32, v uint32)
}

// DesignWare I2C register offsets.
const (
	RegCon          uint32 = 0x00
	RegTar          uint32 = 0x04
	RegDataCmd      uint32 = 0x10
	RegFsSclHcnt    uint32 = 0x1C
	RegFsSclLcnt    uint32 = 0x20
	RegEnable       uint32 = 0x6C
	RegRxflr        uint32 = 0x78
	RegEnableStatus uint32 = 0x9C
)

// DATA_CMD and CON bits.
const (
	CmdRead    uint32 = 0x100
	CmdRestart uint32 = 0x400

	// ConMaster: master mode, 7-bit addressing, fast mode, restart enable,
	// slave disabled.
	ConMaster uint32 = 0x65

	enableOn    uint32 = 0x01
	enableAbort uint32 = 0x02
)

// Fast-mode SCL high/low counts for 400 kHz.
const (
	FastSclHcnt uint32 = 90
	FastSclLcnt uint32 = 160
)

// Controller is an I2C master on the DesignWare controller. Every wait on
// the hardware goes through Waiter so that a hung bus ends in
// poll.ErrTimeout instead of blocking forever. A read that fails while
// draining leaves read pulses queued in the RX FIFO, so every later
// transaction fails until Init flushes the controller.
type Controller struct {
	mu     sync.Mutex
	regs   Regs
	wait   poll.Waiter
	failed error
	log    *log.Entry
}

// NewController wraps a register window. Init must be called before the
// first transaction.
func NewController(regs Regs, w poll.Waiter) *Controller {
	return &Controller{
		regs: regs,
		wait: w,
		log:  log.WithField("component", "i2c0"),
	}
}

// Init aborts any transfer, programs master mode for the 7-bit target
// address at 400 kHz, and enables the controller.
func (c *Controller) Init(ctx context.Context, target uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.regs.Write32(RegEnable, enableAbort)
	if err := c.wait.Wait(ctx, func() (bool, error) {
		return c.regs.Read32(RegEnableStatus)&1 == 0, nil
	}); err != nil {
		return fmt.Errorf("i2cbus: disable controller: %w", err)
	}

	c.regs.Write32(RegCon, ConMaster)
	c.regs.Write32(RegTar, uint32(target))
	c.regs.Write32(RegFsSclHcnt, FastSclHcnt)
	c.regs.Write32(RegFsSclLcnt, FastSclLcnt)
	c.regs.Write32(RegEnable, enableOn)

	if err := c.wait.Wait(ctx, func() (bool, error) {
		return c.regs.Read32(RegEnableStatus)&1 == 1, nil
	}); err != nil {
		return fmt.Errorf("i2cbus: enable controller: %w", err)
	}
	c.failed = nil
	c.log.Debugf("enabled, target 0x%02X", target)
	return nil
}

// WriteRegister implements adxl345.Transport.
func (c *Controller) WriteRegister(ctx context.Context, reg adxl345.Register, value byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed != nil {
		return c.unusable()
	}
	c.regs.Write32(RegDataCmd, uint32(reg)|CmdRestart)
	c.regs.Write32(RegDataCmd, uint32(value))
	return nil
}

// ReadRegister implements adxl345.Transport.
func (c *Controller) ReadRegister(ctx context.Context, reg adxl345.Register) (byte, error) {
	var b [1]byte
	if err := c.ReadRegisters(ctx, reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadRegisters implements adxl345.Transport: one address phase, len(buf)
// read pulses, then exactly len(buf) bytes drained from the RX FIFO.
func (c *Controller) ReadRegisters(ctx context.Context, reg adxl345.Register, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed != nil {
		return c.unusable()
	}

	c.regs.Write32(RegDataCmd, uint32(reg)|CmdRestart)
	for range buf {
		c.regs.Write32(RegDataCmd, CmdRead)
	}
	for i := range buf {
		if err := c.wait.Wait(ctx, func() (bool, error) {
			return c.regs.Read32(RegRxflr) > 0, nil
		}); err != nil {
			c.failed = fmt.Errorf("i2cbus: read %s byte %d: %w", reg, i, err)
			return c.failed
		}
		buf[i] = byte(c.regs.Read32(RegDataCmd) & 0xFF)
	}
	return nil
}

func (c *Controller) unusable() error {
	return fmt.Errorf("i2cbus: controller needs Init: %w", c.failed)
}
