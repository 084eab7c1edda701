// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package platform

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Window is a mapped range of physical memory accessed as 32-bit registers.
type Window struct {
	mem  []byte
	base uint32
	// unmap is nil for windows not backed by mmap.
	unmap func([]byte) error
}

// Map maps span bytes of physical memory starting at base through path,
// normally /dev/mem. base must be page aligned.
func Map(path string, base, span uint32) (*Window, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("platform: open %s: %w", path, err)
	}
	// The mapping stays valid after the descriptor is closed.
	defer f.Close()

	mem, err := unix.Mmap(int(f.Fd()), int64(base), int(span), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("platform: mmap 0x%08X+0x%X: %w", base, span, err)
	}
	return &Window{mem: mem, base: base, unmap: unix.Munmap}, nil
}

func newWindow(mem []byte, base uint32) *Window {
	return &Window{mem: mem, base: base}
}

func (w *Window) String() string {
	return fmt.Sprintf("0x%08X+0x%X", w.base, len(w.mem))
}

func (w *Window) word(off uint32) *uint32 {
	if off&3 != 0 || int(off)+4 > len(w.mem) {
		panic(fmt.Sprintf("platform: register offset 0x%X outside window %s", off, w))
	}
	return (*uint32)(unsafe.Pointer(&w.mem[off]))
}

// Read32 loads the register at byte offset off.
func (w *Window) Read32(off uint32) uint32 {
	return atomic.LoadUint32(w.word(off))
}

// Write32 stores v to the register at byte offset off.
func (w *Window) Write32(off uint32, v uint32) {
	atomic.StoreUint32(w.word(off), v)
}

// Close unmaps the window. Registers must not be accessed afterwards.
func (w *Window) Close() error {
	if w.unmap == nil || w.mem == nil {
		return nil
	}
	err := w.unmap(w.mem)
	w.mem = nil
	return err
}
