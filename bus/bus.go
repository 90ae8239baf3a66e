// Package bus defines the byte-addressed, little-endian memory bus
// contract shared by a HART (or several, in a multi-HART system) and a
// flat in-memory implementation of it.
package bus

import (
	"github.com/sarchlab/rvsim/except"
)

// Width is an access width in bits; the only legal values are 8, 16, 32
// and 64.
type Width uint8

// Supported access widths.
const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// Bytes returns the number of bytes the width spans.
func (w Width) Bytes() uint64 {
	return uint64(w) / 8
}

// Bus is the memory contract: naturally-aligned or unaligned reads and
// writes at widths {8,16,32,64}, little-endian, over a byte-addressed
// space. Out-of-range accesses raise LoadAccessFault/StoreAccessFault.
type Bus interface {
	// Read returns the little-endian value of width bits at addr.
	Read(addr uint64, width Width) (uint64, error)
	// Write stores the low width bits of value at addr, little-endian.
	Write(addr uint64, value uint64, width Width) error
	// Size returns the bus's addressable size in bytes.
	Size() uint64
}

// DefaultSize is the default size, in bytes, of a FlatBus created with
// NewFlatBus(0).
const DefaultSize = 16 * 1024 * 1024

// FlatBus is a contiguous byte array implementing Bus. Address 0 is
// valid; only accesses that run off the end of the array fault.
type FlatBus struct {
	mem []byte
}

// NewFlatBus creates a FlatBus of the given size in bytes. A size of 0
// selects DefaultSize.
func NewFlatBus(size uint64) *FlatBus {
	if size == 0 {
		size = DefaultSize
	}
	return &FlatBus{mem: make([]byte, size)}
}

// Size returns the number of addressable bytes.
func (b *FlatBus) Size() uint64 {
	return uint64(len(b.mem))
}

// Read implements Bus.
func (b *FlatBus) Read(addr uint64, width Width) (uint64, error) {
	n := width.Bytes()
	if addr+n > b.Size() || addr+n < addr {
		return 0, except.NewMemFault(except.ErrLoadAccessFault, 0, addr)
	}
	var v uint64
	for i := uint64(0); i < n; i++ {
		v |= uint64(b.mem[addr+i]) << (8 * i)
	}
	return v, nil
}

// Write implements Bus.
func (b *FlatBus) Write(addr uint64, value uint64, width Width) error {
	n := width.Bytes()
	if addr+n > b.Size() || addr+n < addr {
		return except.NewMemFault(except.ErrStoreAccessFault, 0, addr)
	}
	for i := uint64(0); i < n; i++ {
		b.mem[addr+i] = byte(value >> (8 * i))
	}
	return nil
}

// LoadAt copies data into the bus starting at addr, bypassing width
// checks; used by loaders to place program/segment bytes directly.
func (b *FlatBus) LoadAt(addr uint64, data []byte) error {
	if addr+uint64(len(data)) > b.Size() {
		return except.NewMemFault(except.ErrStoreAccessFault, 0, addr)
	}
	copy(b.mem[addr:], data)
	return nil
}
