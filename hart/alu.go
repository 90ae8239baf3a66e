package hart

import (
	"math/bits"

	"github.com/sarchlab/rvsim/except"
	"github.com/sarchlab/rvsim/insts"
)

// shiftMask returns the bit mask a shift amount is reduced through
// before use: 5 bits for any 32-bit-result shift (RV32 or a W-suffixed
// RV64 form), 6 bits for a genuine RV64 64-bit shift.
func shiftMask(word32, is64 bool) uint64 {
	if is64 && !word32 {
		return 0x3f
	}
	return 0x1f
}

func (h *Hart) execRType(in insts.RType) error {
	rs1 := h.Reg.ReadX(in.Rs1.Index())
	rs2 := h.Reg.ReadX(in.Rs2.Index())
	if in.Word32 {
		rs1, rs2 = uint64(uint32(rs1)), uint64(uint32(rs2))
	}

	var result uint64
	switch in.Op {
	case insts.OpADD:
		result = rs1 + rs2
	case insts.OpSUB:
		result = rs1 - rs2
	case insts.OpSLL:
		result = rs1 << (rs2 & shiftMask(in.Word32, h.table.Is64()))
	case insts.OpSLT:
		result = boolToU64(int64(rs1) < int64(rs2))
	case insts.OpSLTU:
		result = boolToU64(rs1 < rs2)
	case insts.OpXOR:
		result = rs1 ^ rs2
	case insts.OpSRL:
		result = rs1 >> (rs2 & shiftMask(in.Word32, h.table.Is64()))
	case insts.OpSRA:
		if in.Word32 {
			result = uint64(int32(uint32(rs1)) >> (rs2 & 0x1f))
		} else {
			result = uint64(int64(rs1) >> (rs2 & shiftMask(false, h.table.Is64())))
		}
	case insts.OpOR:
		result = rs1 | rs2
	case insts.OpAND:
		result = rs1 & rs2
	case insts.OpMUL:
		result = rs1 * rs2
	case insts.OpMULH:
		result = uint64(mulh(int64(rs1), int64(rs2)))
	case insts.OpMULHSU:
		result = uint64(mulhsu(int64(rs1), rs2))
	case insts.OpMULHU:
		result = mulhu(rs1, rs2)
	case insts.OpDIV:
		a, b := int64(rs1), int64(rs2)
		if in.Word32 {
			a, b = int64(int32(uint32(rs1))), int64(int32(uint32(rs2)))
		}
		result = uint64(divSigned(a, b, in.Word32))
	case insts.OpDIVU:
		result = divUnsigned(rs1, rs2, in.Word32)
	case insts.OpREM:
		a, b := int64(rs1), int64(rs2)
		if in.Word32 {
			a, b = int64(int32(uint32(rs1))), int64(int32(uint32(rs2)))
		}
		result = uint64(remSigned(a, b, in.Word32))
	case insts.OpREMU:
		result = remUnsigned(rs1, rs2, in.Word32)
	default:
		return except.NewFault(except.ErrIllegalInstruction, h.Reg.PC)
	}

	if in.Word32 && in.Op != insts.OpMULH && in.Op != insts.OpMULHSU && in.Op != insts.OpMULHU {
		result = uint64(int32(uint32(result)))
	}
	h.Reg.WriteX(in.Rd.Index(), result)
	return nil
}

func (h *Hart) execIType(in insts.IType) error {
	rs1 := h.Reg.ReadX(in.Rs1.Index())
	if in.Word32 {
		rs1 = uint64(uint32(rs1))
	}

	var result uint64
	if in.IsShift {
		shamt := uint64(in.Shamt)
		switch in.Op {
		case insts.OpSLL:
			result = rs1 << shamt
		case insts.OpSRL:
			result = rs1 >> shamt
		case insts.OpSRA:
			if in.Word32 {
				result = uint64(int32(uint32(rs1)) >> shamt)
			} else {
				result = uint64(int64(rs1) >> shamt)
			}
		default:
			return except.NewFault(except.ErrIllegalInstruction, h.Reg.PC)
		}
	} else {
		imm := uint64(in.Imm)
		switch in.Op {
		case insts.OpADD:
			result = rs1 + imm
		case insts.OpSLT:
			result = boolToU64(int64(rs1) < in.Imm)
		case insts.OpSLTU:
			result = boolToU64(rs1 < imm)
		case insts.OpXOR:
			result = rs1 ^ imm
		case insts.OpOR:
			result = rs1 | imm
		case insts.OpAND:
			result = rs1 & imm
		default:
			return except.NewFault(except.ErrIllegalInstruction, h.Reg.PC)
		}
	}

	if in.Word32 {
		result = uint64(int32(uint32(result)))
	}
	h.Reg.WriteX(in.Rd.Index(), result)
	return nil
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// mulh, mulhsu, and mulhu return the high 64 bits of a signed*signed,
// signed*unsigned, and unsigned*unsigned 128-bit product respectively.
func mulh(a, b int64) int64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return int64(hi)
}

func mulhsu(a int64, b uint64) int64 {
	hi, _ := bits.Mul64(uint64(a), b)
	if a < 0 {
		hi -= b
	}
	return int64(hi)
}

func mulhu(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	return hi
}

// divSigned implements DIV/DIVW: division by zero yields -1, and the
// one representable overflow (MinInt / -1) yields the dividend
// unchanged, per the ISA manual's table rather than a trap.
func divSigned(a, b int64, word32 bool) int64 {
	minVal := int64(-1) << 63
	if word32 {
		minVal = int64(int32(-1) << 31)
	}
	if b == 0 {
		return -1
	}
	if a == minVal && b == -1 {
		return a
	}
	return a / b
}

func divUnsigned(a, b uint64, word32 bool) uint64 {
	if b == 0 {
		if word32 {
			return 0xffffffff
		}
		return 0xffffffffffffffff
	}
	return a / b
}

// remSigned implements REM/REMW: remainder by zero returns the
// dividend, and the MinInt/-1 overflow case returns 0.
func remSigned(a, b int64, word32 bool) int64 {
	minVal := int64(-1) << 63
	if word32 {
		minVal = int64(int32(-1) << 31)
	}
	if b == 0 {
		return a
	}
	if a == minVal && b == -1 {
		return 0
	}
	return a % b
}

func remUnsigned(a, b uint64, word32 bool) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}
