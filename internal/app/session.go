// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/accel_computer/internal/accel"
	"github.com/relabs-tech/accel_computer/internal/adxl345"
	"github.com/relabs-tech/accel_computer/internal/config"
	"github.com/relabs-tech/accel_computer/internal/i2cbus"
	"github.com/relabs-tech/accel_computer/internal/platform"
	"github.com/relabs-tech/accel_computer/internal/sim"
)

// SourceName tags samples published by this board.
const SourceName = "adxl345"

// Session owns one accelerometer and its transport. Every operation holds
// the session lock for its whole register sequence, so initialize,
// calibrate and sampling never interleave on the bus.
type Session struct {
	mu     sync.Mutex
	dev    *adxl345.Dev
	closer io.Closer
	closed bool
	scale  int
	last   adxl345.Axes
	log    *log.Entry
}

// NewSession confirms the device identity over tr and picks up the scale of
// the current data format. closer, if not nil, is closed with the session,
// or right away when either read fails.
func NewSession(ctx context.Context, tr adxl345.Transport, closer io.Closer, o *adxl345.Opts) (*Session, error) {
	l := log.WithField("component", "session")
	var opts adxl345.Opts
	if o != nil {
		opts = *o
	} else {
		opts = adxl345.DefaultOpts
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "adxl345")
	}
	dev, err := adxl345.New(ctx, tr, &opts)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	df, err := dev.ReadDataFormat(ctx)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	l.Infof("accelerometer found, device ID 0x%02X, %d mg/LSB", dev.ID(), df.Scale())
	return &Session{
		dev:    dev,
		closer: closer,
		scale:  df.Scale(),
		log:    l,
	}, nil
}

// OpenSession opens the transport selected by cfg and confirms the device
// identity.
func OpenSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	var (
		tr     adxl345.Transport
		closer io.Closer
	)
	switch cfg.Transport {
	case config.TransportDevMem:
		b, err := platform.OpenDE1SoC(ctx, cfg.TransportTimeout(), cfg.PollInterval())
		if err != nil {
			return nil, err
		}
		tr, closer = b, b
	case config.TransportPeriph:
		p, err := i2cbus.OpenPeriph(cfg.I2CBus, cfg.I2CAddr, cfg.TransportTimeout())
		if err != nil {
			return nil, err
		}
		tr, closer = p, p
	case config.TransportSim:
		d := sim.New()
		d.SetSteady(adxl345.Axes{X: 0, Y: 0, Z: adxl345.OneGFullRes})
		tr = d
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	opts := adxl345.DefaultOpts
	opts.PollInterval = cfg.PollInterval()
	return NewSession(ctx, tr, closer, &opts)
}

// Setup brings the device to the configured state: initialize, then either
// calibrate or install saved offsets, then the configured format and rate.
func (s *Session) Setup(ctx context.Context, cfg *config.Config) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	if cfg.CalibrateOnStart {
		c, err := s.Calibrate(ctx)
		if err != nil {
			return err
		}
		if cfg.OffsetsFile != "" {
			if err := SaveOffsets(cfg.OffsetsFile, c.Offsets); err != nil {
				s.log.Warnf("could not save offsets: %v", err)
			}
		}
	} else if cfg.OffsetsFile != "" {
		f, err := LoadOffsets(cfg.OffsetsFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			s.log.Infof("no saved offsets in %s", cfg.OffsetsFile)
		case err != nil:
			return err
		default:
			if err := s.ApplyOffsets(ctx, f.Offsets); err != nil {
				return err
			}
			s.log.Infof("applied offsets from %s (calibrated %s)", cfg.OffsetsFile, f.CalibratedAt.Format("2006-01-02 15:04"))
		}
	}
	if _, err := s.SetFormat(ctx, cfg.AccelFullRes, cfg.AccelRangeG); err != nil {
		return err
	}
	_, err := s.SetRate(ctx, cfg.AccelRateHz)
	return err
}

func (s *Session) lock() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return adxl345.ErrClosed
	}
	return nil
}

// Close releases the transport. Further calls return adxl345.ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Scale returns the mg/LSB factor matching the current data format.
func (s *Session) Scale() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// Initialize programs the power-on configuration and resets the scale to
// that of ±16g fixed resolution.
func (s *Session) Initialize(ctx context.Context) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	scale, err := s.dev.Initialize(ctx)
	if err != nil {
		return err
	}
	s.scale = scale
	return nil
}

// DeviceID reads DEVID.
func (s *Session) DeviceID(ctx context.Context) (byte, error) {
	if err := s.lock(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()
	return s.dev.ReadDeviceID(ctx)
}

// Calibrate runs offset calibration. The data format is restored, so the
// scale is unchanged.
func (s *Session) Calibrate(ctx context.Context) (adxl345.Calibration, error) {
	if err := s.lock(); err != nil {
		return adxl345.Calibration{}, err
	}
	defer s.mu.Unlock()
	return s.dev.Calibrate(ctx)
}

// SetFormat selects resolution and range and returns the new scale.
func (s *Session) SetFormat(ctx context.Context, fullResolution bool, rangeG int) (int, error) {
	if err := s.lock(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()
	scale, err := s.dev.SetRange(ctx, fullResolution, rangeG)
	if err != nil {
		return 0, err
	}
	s.scale = scale
	return scale, nil
}

// SetRate selects the output data rate.
func (s *Session) SetRate(ctx context.Context, hz float64) (adxl345.Rate, error) {
	if err := s.lock(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()
	return s.dev.SetOutputRate(ctx, hz)
}

// Read polls INT_SOURCE and, when data is ready, the axes. The returned
// sample always carries the latest axes read; fresh reports whether they
// were read by this call.
func (s *Session) Read(ctx context.Context) (sample accel.Sample, fresh bool, err error) {
	if err := s.lock(); err != nil {
		return accel.Sample{}, false, err
	}
	defer s.mu.Unlock()
	flags, err := s.dev.ReadInterruptSource(ctx)
	if err != nil {
		return accel.Sample{}, false, err
	}
	if flags.Has(adxl345.DataReady) {
		a, err := s.dev.ReadAxes(ctx)
		if err != nil {
			return accel.Sample{}, false, err
		}
		s.last = a
		fresh = true
	}
	return accel.NewSample(SourceName, s.last, s.scale, flags), fresh, nil
}

// ReadOffsets returns the installed offset trims.
func (s *Session) ReadOffsets(ctx context.Context) (adxl345.Offsets, error) {
	if err := s.lock(); err != nil {
		return adxl345.Offsets{}, err
	}
	defer s.mu.Unlock()
	return s.dev.ReadOffsets(ctx)
}

// ApplyOffsets installs offset trims.
func (s *Session) ApplyOffsets(ctx context.Context, o adxl345.Offsets) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	return s.dev.WriteOffsets(ctx, o)
}

// ReadRegister reads one register.
func (s *Session) ReadRegister(ctx context.Context, reg adxl345.Register) (byte, error) {
	if err := s.lock(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()
	return s.dev.ReadRegister(ctx, reg)
}

// WriteRegister writes one register. A DATA_FORMAT write updates the scale
// so that samples stay consistent with the device.
func (s *Session) WriteRegister(ctx context.Context, reg adxl345.Register, v byte) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if err := s.dev.WriteRegister(ctx, reg, v); err != nil {
		return err
	}
	if reg == adxl345.RegDataFormat {
		s.scale = adxl345.DecodeDataFormat(v).Scale()
	}
	return nil
}

// ReadAllRegisters reads every register of the register map except the
// data registers, whose reads would consume samples, and INT_SOURCE, whose
// read clears latched tap and activity events.
func (s *Session) ReadAllRegisters(ctx context.Context) (map[adxl345.Register]byte, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	out := make(map[adxl345.Register]byte)
	for _, info := range adxl345.RegisterMap() {
		if info.Address >= adxl345.RegDataX0 && info.Address <= adxl345.RegDataZ1 ||
			info.Address == adxl345.RegIntSource {
			continue
		}
		v, err := s.dev.ReadRegister(ctx, info.Address)
		if err != nil {
			return nil, err
		}
		out[info.Address] = v
	}
	return out, nil
}
