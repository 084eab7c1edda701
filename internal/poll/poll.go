// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package poll provides the bounded wait used wherever the hardware is
// polled for a status flag.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when a condition did not become true before the
// deadline.
var ErrTimeout = errors.New("timed out waiting for hardware")

// Waiter polls a condition until it holds, the context is done, or Timeout
// elapses. A zero Timeout means only the context bounds the wait.
type Waiter struct {
	Timeout  time.Duration
	Interval time.Duration
}

// Wait blocks until cond reports true.
//
// cond is always evaluated at least once, so a condition that already holds
// never times out. Errors returned by cond abort the wait unchanged.
func (w Waiter) Wait(ctx context.Context, cond func() (bool, error)) error {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if w.Interval <= 0 {
			select {
			case <-ctx.Done():
				return timeoutErr(ctx)
			default:
			}
			continue
		}
		t := time.NewTimer(w.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return timeoutErr(ctx)
		case <-t.C:
		}
	}
}

// Until is shorthand for Waiter{timeout, interval}.Wait(ctx, cond).
func Until(ctx context.Context, timeout, interval time.Duration, cond func() (bool, error)) error {
	return Waiter{Timeout: timeout, Interval: interval}.Wait(ctx, cond)
}

func timeoutErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return ErrTimeout
}
