package hart

import (
	"github.com/sarchlab/rvsim/except"
	"github.com/sarchlab/rvsim/isa"
)

// CSRFile holds the control/status registers this core implements,
// indexed by their full 12-bit address.
type CSRFile struct {
	regs [4096]uint64
}

// Read returns the value of CSR addr. Unknown addresses fault with
// ErrIllegalInstruction, since reading an unimplemented CSR is as
// illegal as executing an unrecognized opcode.
func (c *CSRFile) Read(addr uint32, pc uint64) (uint64, error) {
	if !isa.CSRKnown(addr) {
		return 0, except.NewFault(except.ErrIllegalInstruction, pc)
	}
	return c.regs[addr&0xfff], nil
}

// Write stores value into CSR addr. Writing a read-only or unknown
// CSR faults with ErrIllegalInstruction: the Rust original this core
// is modeled on wrote every CSR index unconditionally; this core raises
// the illegal-instruction fault the ISA manual calls for instead.
func (c *CSRFile) Write(addr uint32, value uint64, pc uint64) error {
	if !isa.CSRKnown(addr) {
		return except.NewFault(except.ErrIllegalInstruction, pc)
	}
	if isa.CSRReadOnly(addr) {
		return except.NewFault(except.ErrIllegalInstruction, pc)
	}
	c.regs[addr&0xfff] = value
	return nil
}

// SetCycle seeds the read-only cycle/instret/time counters; called by
// Hart after every retired instruction rather than exposed as a public
// write path.
func (c *CSRFile) SetCycle(cycle, instret, time uint64) {
	c.regs[isa.CSRCycle] = cycle
	c.regs[isa.CSRInstret] = instret
	c.regs[isa.CSRTime] = time
	c.regs[isa.CSRCycleH] = cycle >> 32
}

// FFlags returns the accrued floating-point exception flags (low 5
// bits of fflags/fcsr).
func (c *CSRFile) FFlags() uint32 {
	return uint32(c.regs[isa.CSRFflags]) & 0x1f
}

// SetFFlags ORs newFlags into the accrued exception flags, per the
// ISA's accumulate-don't-replace semantics for FP exception bits.
func (c *CSRFile) SetFFlags(newFlags uint32) {
	c.regs[isa.CSRFflags] = (c.regs[isa.CSRFflags] | uint64(newFlags)) & 0x1f
	c.regs[isa.CSRFcsr] = c.regs[isa.CSRFcsr] | uint64(newFlags)&0x1f
}

// RoundingMode returns the dynamic rounding mode from frm.
func (c *CSRFile) RoundingMode() uint8 {
	return uint8(c.regs[isa.CSRFrm]) & 0x7
}

// FP exception flag bits, accumulated into fflags/fcsr.
const (
	FFlagNX uint32 = 1 << iota // inexact
	FFlagUF                    // underflow
	FFlagOF                    // overflow
	FFlagDZ                    // divide by zero
	FFlagNV                    // invalid operation
)
