package hart

import (
	"github.com/sarchlab/rvsim/except"
	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/isa"
)

// execSystem turns ECALL/EBREAK into the corresponding sentinel fault.
// Both are control transfers rather than genuine faults — see
// except.IsControlTransfer — and this core stops short of interpreting
// them: an external supervisor decides what an environment call means.
func (h *Hart) execSystem(in insts.SystemType, pc uint64) error {
	switch in.Kind {
	case insts.SystemECALL:
		return except.NewFault(except.ErrEnvironmentCall, pc)
	case insts.SystemEBREAK:
		return except.NewFault(except.ErrBreakpoint, pc)
	default:
		return except.NewFault(except.ErrIllegalInstruction, pc)
	}
}

func csrNewValue(op insts.CSROp, old, operand uint64) uint64 {
	switch op {
	case insts.CSRRW:
		return operand
	case insts.CSRRS:
		return old | operand
	default: // insts.CSRRC
		return old &^ operand
	}
}

// execCSR handles CSRRW/CSRRS/CSRRC. Per the ISA manual, CSRRS/CSRRC
// with rs1=x0 reads without attempting a write at all — this is what
// lets software poll a read-only CSR with CSRRS rd, csr, x0 without
// faulting.
func (h *Hart) execCSR(in insts.CSRType, pc uint64) error {
	old, err := h.CSR.Read(in.CSR, pc)
	if err != nil {
		return err
	}
	operand := h.Reg.ReadX(in.Rs1.Index())
	writeNeeded := in.Op == insts.CSRRW || in.Rs1 != isa.X0
	if writeNeeded {
		if err := h.CSR.Write(in.CSR, csrNewValue(in.Op, old, operand), pc); err != nil {
			return err
		}
	}
	h.Reg.WriteX(in.Rd.Index(), old)
	return nil
}

// execCSRI handles CSRRWI/CSRRSI/CSRRCI, the immediate-sourced forms.
func (h *Hart) execCSRI(in insts.CSRIType, pc uint64) error {
	old, err := h.CSR.Read(in.CSR, pc)
	if err != nil {
		return err
	}
	operand := uint64(in.Zimm)
	writeNeeded := in.Op == insts.CSRRW || in.Zimm != 0
	if writeNeeded {
		if err := h.CSR.Write(in.CSR, csrNewValue(in.Op, old, operand), pc); err != nil {
			return err
		}
	}
	h.Reg.WriteX(in.Rd.Index(), old)
	return nil
}
