// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package adxl345

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/accel_computer/internal/poll"
)

var (
	// ErrTransportTimeout indicates the bus never completed a transaction.
	// The device and bus state are unspecified afterwards; the session
	// should be discarded and the device re-initialized.
	ErrTransportTimeout = poll.ErrTimeout

	// ErrIdentityMismatch indicates DEVID did not read back as expected.
	ErrIdentityMismatch = errors.New("device identity mismatch")

	// ErrClosed indicates the device has been closed.
	ErrClosed = errors.New("closed")
)

// IdentityMismatchError carries the ID that was actually read.
type IdentityMismatchError struct {
	Got  byte
	Want byte
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("adxl345: device ID 0x%02X, expected 0x%02X", e.Got, e.Want)
}

func (e *IdentityMismatchError) Unwrap() error {
	return ErrIdentityMismatch
}
