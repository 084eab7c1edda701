// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package i2cbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
	"github.com/relabs-tech/accel_computer/internal/poll"
)

// Periph is a transport over a periph I2C bus, typically /dev/i2c-N.
// Each transaction runs under its own deadline; a bus that does not answer
// in time yields poll.ErrTimeout. Only one Tx is ever outstanding on the
// bus: after a timeout the transport stays failed, and after a cancelled
// call the next one first waits for the abandoned Tx to return.
type Periph struct {
	mu       sync.Mutex
	dev      i2c.Dev
	timeout  time.Duration
	inflight chan struct{} // closed when an abandoned Tx returns
	failed   bool
	closer   func() error
	log      *log.Entry
}

// NewPeriph uses an already opened bus.
func NewPeriph(bus i2c.Bus, addr uint16, timeout time.Duration) *Periph {
	return &Periph{
		dev:     i2c.Dev{Bus: bus, Addr: addr},
		timeout: timeout,
		log:     log.WithField("component", "i2c-dev"),
	}
}

// OpenPeriph initializes periph host drivers and opens the named bus (""
// selects the first one available).
func OpenPeriph(name string, addr uint16, timeout time.Duration) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("i2cbus: periph host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2cbus: open bus %q: %w", name, err)
	}
	p := NewPeriph(bus, addr, timeout)
	p.closer = bus.Close
	p.log.Infof("opened %s, device 0x%02X", bus, addr)
	return p, nil
}

// Close releases the bus if OpenPeriph opened it.
func (p *Periph) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// tx runs one write-then-read transaction. The transaction writes into a
// private buffer so that an abandoned call cannot touch r after returning.
func (p *Periph) tx(ctx context.Context, w, r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failed {
		return fmt.Errorf("i2cbus: tx 0x%02X: earlier transaction never completed: %w", p.dev.Addr, poll.ErrTimeout)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if p.inflight != nil {
		select {
		case <-p.inflight:
			p.inflight = nil
		case <-ctx.Done():
			return p.abandon(ctx, p.inflight)
		}
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		var data []byte
		if len(r) > 0 {
			data = make([]byte, len(r))
		}
		err := p.dev.Tx(w, data)
		done <- result{data, err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("i2cbus: tx 0x%02X: %w", p.dev.Addr, res.err)
		}
		copy(r, res.data)
		return nil
	case <-ctx.Done():
		return p.abandon(ctx, finished)
	}
}

// abandon records a Tx still running on the bus when ctx ended. A timeout
// leaves the transport failed for good.
func (p *Periph) abandon(ctx context.Context, finished chan struct{}) error {
	p.inflight = finished
	if ctx.Err() == context.DeadlineExceeded {
		p.failed = true
		p.log.Warnf("device 0x%02X did not answer, transport unusable until reopened", p.dev.Addr)
		return fmt.Errorf("i2cbus: tx 0x%02X: %w", p.dev.Addr, poll.ErrTimeout)
	}
	return ctx.Err()
}

// WriteRegister implements adxl345.Transport.
func (p *Periph) WriteRegister(ctx context.Context, reg adxl345.Register, value byte) error {
	return p.tx(ctx, []byte{byte(reg), value}, nil)
}

// ReadRegister implements adxl345.Transport.
func (p *Periph) ReadRegister(ctx context.Context, reg adxl345.Register) (byte, error) {
	var b [1]byte
	if err := p.tx(ctx, []byte{byte(reg)}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadRegisters implements adxl345.Transport. The device auto-increments
// the register address across a multi-byte read.
func (p *Periph) ReadRegisters(ctx context.Context, reg adxl345.Register, buf []byte) error {
	return p.tx(ctx, []byte{byte(reg)}, buf)
}
