// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package adxl345

import "context"

// Transport performs register transactions against the device.
//
// Every call is physical bus I/O; nothing is cached. Implementations must
// bound each wait on the bus and report an unresponsive bus with an error
// wrapping ErrTransportTimeout. Transports are not reentrant: callers must
// serialize access for the whole of any multi-step procedure.
type Transport interface {
	// WriteRegister selects reg and writes one data byte.
	WriteRegister(ctx context.Context, reg Register, value byte) error
	// ReadRegister selects reg and returns one byte read from it.
	ReadRegister(ctx context.Context, reg Register) (byte, error)
	// ReadRegisters selects reg and fills buf with consecutive registers in
	// ascending address order. It never returns a short read.
	ReadRegisters(ctx context.Context, reg Register, buf []byte) error
}
