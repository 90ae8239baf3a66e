package hart

import (
	"github.com/sarchlab/rvsim/except"
	"github.com/sarchlab/rvsim/insts"
)

func (h *Hart) execJAL(in insts.JALType, pc uint64) error {
	target := uint64(int64(pc) + in.Imm)
	if target%4 != 0 {
		return except.NewMemFault(except.ErrInstructionAddressMisaligned, pc, target)
	}
	h.Reg.WriteX(in.Rd.Index(), pc+4)
	h.Reg.PC = target
	return nil
}

func (h *Hart) execJALR(in insts.JALRType, pc uint64) error {
	base := h.Reg.ReadX(in.Rs1.Index())
	target := (uint64(int64(base)+in.Imm)) &^ 1
	if target%4 != 0 {
		return except.NewMemFault(except.ErrInstructionAddressMisaligned, pc, target)
	}
	h.Reg.WriteX(in.Rd.Index(), pc+4)
	h.Reg.PC = target
	return nil
}

func (h *Hart) execBranch(in insts.BranchType, pc uint64) error {
	rs1 := h.Reg.ReadX(in.Rs1.Index())
	rs2 := h.Reg.ReadX(in.Rs2.Index())

	var taken bool
	switch in.Cond {
	case insts.CondEQ:
		taken = rs1 == rs2
	case insts.CondNE:
		taken = rs1 != rs2
	case insts.CondLT:
		taken = int64(rs1) < int64(rs2)
	case insts.CondGE:
		taken = int64(rs1) >= int64(rs2)
	case insts.CondLTU:
		taken = rs1 < rs2
	case insts.CondGEU:
		taken = rs1 >= rs2
	default:
		return except.NewFault(except.ErrIllegalInstruction, pc)
	}

	if !taken {
		return nil
	}
	target := uint64(int64(pc) + in.Imm)
	if target%4 != 0 {
		return except.NewMemFault(except.ErrInstructionAddressMisaligned, pc, target)
	}
	h.Reg.PC = target
	return nil
}
