package hart

import (
	"math"

	"github.com/sarchlab/rvsim/except"
	"github.com/sarchlab/rvsim/insts"
)

const (
	signMask32 = uint64(1) << 31
	signMask64 = uint64(1) << 63
)

func (h *Hart) execFLoad(in insts.FLoadType, pc uint64) error {
	addr := uint64(int64(h.Reg.ReadX(in.Rs1.Index())) + in.Imm)
	raw, err := h.bus.Read(addr, widthOf(in.Width))
	if err != nil {
		return except.NewMemFault(except.ErrLoadAccessFault, pc, addr)
	}
	if in.Width == 32 {
		h.FReg.F[in.Rd.Index()] = nanBoxedSingle | (raw & 0xffffffff)
	} else {
		h.FReg.WriteF(in.Rd.Index(), raw)
	}
	return nil
}

func (h *Hart) execFStore(in insts.FStoreType, pc uint64) error {
	addr := uint64(int64(h.Reg.ReadX(in.Rs1.Index())) + in.Imm)
	value := h.FReg.ReadF(in.Rs2.Index())
	if in.Width == 32 {
		value = value & 0xffffffff
	}
	if err := h.bus.Write(addr, value, widthOf(in.Width)); err != nil {
		return except.NewMemFault(except.ErrStoreAccessFault, pc, addr)
	}
	return nil
}

func signInject(op insts.FOp, rs1Bits, rs2Bits, mask uint64) uint64 {
	mag := rs1Bits &^ mask
	var sign uint64
	switch op {
	case insts.FOpSGNJ:
		sign = rs2Bits & mask
	case insts.FOpSGNJN:
		sign = (^rs2Bits) & mask
	case insts.FOpSGNJX:
		sign = (rs1Bits ^ rs2Bits) & mask
	}
	return mag | sign
}

func fmin64(a, b float64) float64 {
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return math.NaN()
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	case a == 0 && b == 0:
		if math.Signbit(a) {
			return a
		}
		return b
	case a < b:
		return a
	default:
		return b
	}
}

func fmax64(a, b float64) float64 {
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return math.NaN()
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	case a == 0 && b == 0:
		if math.Signbit(a) {
			return b
		}
		return a
	case a > b:
		return a
	default:
		return b
	}
}

func (h *Hart) execFR(in insts.FRType) error {
	rd, rs1, rs2 := in.Rd.Index(), in.Rs1.Index(), in.Rs2.Index()
	if in.Double {
		a, b := h.FReg.ReadF64(rs1), h.FReg.ReadF64(rs2)
		switch in.Op {
		case insts.FOpADD:
			h.FReg.WriteF64(rd, a+b)
		case insts.FOpSUB:
			h.FReg.WriteF64(rd, a-b)
		case insts.FOpMUL:
			h.FReg.WriteF64(rd, a*b)
		case insts.FOpDIV:
			if b == 0 {
				h.CSR.SetFFlags(FFlagDZ)
			}
			h.FReg.WriteF64(rd, a/b)
		case insts.FOpMIN:
			h.FReg.WriteF64(rd, fmin64(a, b))
		case insts.FOpMAX:
			h.FReg.WriteF64(rd, fmax64(a, b))
		case insts.FOpSGNJ, insts.FOpSGNJN, insts.FOpSGNJX:
			h.FReg.WriteF(rd, signInject(in.Op, h.FReg.ReadF(rs1), h.FReg.ReadF(rs2), signMask64))
		}
		return nil
	}
	a, b := h.FReg.ReadF32(rs1), h.FReg.ReadF32(rs2)
	switch in.Op {
	case insts.FOpADD:
		h.FReg.WriteF32(rd, a+b)
	case insts.FOpSUB:
		h.FReg.WriteF32(rd, a-b)
	case insts.FOpMUL:
		h.FReg.WriteF32(rd, a*b)
	case insts.FOpDIV:
		if b == 0 {
			h.CSR.SetFFlags(FFlagDZ)
		}
		h.FReg.WriteF32(rd, a/b)
	case insts.FOpMIN:
		h.FReg.WriteF32(rd, float32(fmin64(float64(a), float64(b))))
	case insts.FOpMAX:
		h.FReg.WriteF32(rd, float32(fmax64(float64(a), float64(b))))
	case insts.FOpSGNJ, insts.FOpSGNJN, insts.FOpSGNJX:
		bits := signInject(in.Op, h.FReg.ReadF(rs1)&0xffffffff, h.FReg.ReadF(rs2)&0xffffffff, signMask32)
		h.FReg.F[rd] = nanBoxedSingle | bits
	}
	return nil
}

func (h *Hart) execFSqrt(in insts.FSqrtType) error {
	rd, rs1 := in.Rd.Index(), in.Rs1.Index()
	if in.Double {
		a := h.FReg.ReadF64(rs1)
		if a < 0 {
			h.CSR.SetFFlags(FFlagNV)
		}
		h.FReg.WriteF64(rd, math.Sqrt(a))
		return nil
	}
	a := h.FReg.ReadF32(rs1)
	if a < 0 {
		h.CSR.SetFFlags(FFlagNV)
	}
	h.FReg.WriteF32(rd, float32(math.Sqrt(float64(a))))
	return nil
}

func (h *Hart) execFCmp(in insts.FCmpType) error {
	var a, b float64
	if in.Double {
		a, b = h.FReg.ReadF64(in.Rs1.Index()), h.FReg.ReadF64(in.Rs2.Index())
	} else {
		a, b = float64(h.FReg.ReadF32(in.Rs1.Index())), float64(h.FReg.ReadF32(in.Rs2.Index()))
	}
	nan := math.IsNaN(a) || math.IsNaN(b)
	var result bool
	switch in.Kind {
	case insts.FCmpEQ:
		result = !nan && a == b
	case insts.FCmpLT:
		result = !nan && a < b
	case insts.FCmpLE:
		result = !nan && a <= b
	}
	if nan {
		h.CSR.SetFFlags(FFlagNV)
	}
	h.Reg.WriteX(in.Rd.Index(), boolToU64(result))
	return nil
}

// floatToIntBits converts f to the integer encoding FCVT.{W,WU,L,LU}
// produces, clamping out-of-range and NaN inputs to the relevant
// extreme per the ISA manual's table rather than wrapping. The 32-bit
// (W/WU) forms are sign-extended to fill the 64-bit register, per the
// manual's convention for W-suffixed results.
func floatToIntBits(f float64, signed, long bool) (uint64, bool) {
	nan := math.IsNaN(f)
	switch {
	case signed && long:
		switch {
		case nan || f >= 9223372036854775808.0:
			return uint64(int64(math.MaxInt64)), true
		case f < -9223372036854775808.0:
			return uint64(int64(math.MinInt64)), true
		default:
			return uint64(int64(f)), false
		}
	case signed && !long:
		switch {
		case nan || f >= 2147483648.0:
			return signExtendWidth(uint64(uint32(math.MaxInt32)), 32), true
		case f < -2147483648.0:
			return signExtendWidth(uint64(uint32(math.MinInt32)), 32), true
		default:
			return signExtendWidth(uint64(uint32(int32(f))), 32), false
		}
	case !signed && long:
		switch {
		case nan || f >= 18446744073709551615.0:
			return ^uint64(0), true
		case f < 0:
			return 0, true
		default:
			return uint64(f), false
		}
	default: // unsigned, 32-bit
		switch {
		case nan || f >= 4294967295.0:
			return signExtendWidth(uint64(math.MaxUint32), 32), true
		case f < 0:
			return signExtendWidth(0, 32), true
		default:
			return signExtendWidth(uint64(uint32(f)), 32), false
		}
	}
}

func (h *Hart) execFCvt(in insts.FCvtType) error {
	if in.ToInt {
		var f float64
		if in.Double {
			f = h.FReg.ReadF64(in.FloatReg.Index())
		} else {
			f = float64(h.FReg.ReadF32(in.FloatReg.Index()))
		}
		rm := in.RM
		if rm == 0b111 { // dynamic: use frm
			rm = h.CSR.RoundingMode()
		}
		// RTZ and the reserved modes keep the truncation floatToIntBits applies.
		switch rm {
		case 0b000: // RNE
			f = math.RoundToEven(f)
		case 0b010: // RDN
			f = math.Floor(f)
		case 0b011: // RUP
			f = math.Ceil(f)
		case 0b100: // RMM
			f = math.Round(f)
		}
		result, invalid := floatToIntBits(f, in.Signed, in.Long)
		if invalid {
			h.CSR.SetFFlags(FFlagNV)
		}
		h.Reg.WriteX(in.IntReg.Index(), result)
		return nil
	}

	raw := h.Reg.ReadX(in.IntReg.Index())
	var f float64
	switch {
	case in.Signed && in.Long:
		f = float64(int64(raw))
	case in.Signed && !in.Long:
		f = float64(int32(uint32(raw)))
	case !in.Signed && in.Long:
		f = float64(raw)
	default:
		f = float64(uint32(raw))
	}
	if in.Double {
		h.FReg.WriteF64(in.FloatReg.Index(), f)
	} else {
		h.FReg.WriteF32(in.FloatReg.Index(), float32(f))
	}
	return nil
}

func (h *Hart) execFMV(in insts.FMVType) error {
	if in.Dir == insts.FMVToInt {
		bits := h.FReg.ReadF(in.FloatReg.Index())
		if !in.Double {
			bits = signExtendWidth(bits&0xffffffff, 32)
		}
		h.Reg.WriteX(in.IntReg.Index(), bits)
		return nil
	}
	v := h.Reg.ReadX(in.IntReg.Index())
	if in.Double {
		h.FReg.WriteF(in.FloatReg.Index(), v)
	} else {
		h.FReg.F[in.FloatReg.Index()] = nanBoxedSingle | (v & 0xffffffff)
	}
	return nil
}

// fclassBits computes the 10-bit one-hot RISC-V FCLASS result for the
// raw bit pattern bits, interpreted at double or single precision.
func fclassBits(bits uint64, double bool) uint64 {
	signMask, mantMask, mantBits, expMask := signMask64, uint64(1)<<52-1, uint(52), uint64(0x7ff)
	if !double {
		bits &= 0xffffffff
		signMask, mantMask, mantBits, expMask = signMask32, uint64(1)<<23-1, 23, 0xff
	}
	sign := bits&signMask != 0
	exp := (bits >> mantBits) & expMask
	mant := bits & mantMask

	switch {
	case exp == expMask && mant == 0:
		if sign {
			return 1 << 0 // -infinity
		}
		return 1 << 7 // +infinity
	case exp == expMask:
		if mant&(uint64(1)<<(mantBits-1)) != 0 {
			return 1 << 9 // quiet NaN
		}
		return 1 << 8 // signaling NaN
	case exp == 0 && mant == 0:
		if sign {
			return 1 << 3 // -0
		}
		return 1 << 4 // +0
	case exp == 0:
		if sign {
			return 1 << 2 // negative subnormal
		}
		return 1 << 5 // positive subnormal
	default:
		if sign {
			return 1 << 1 // negative normal
		}
		return 1 << 6 // positive normal
	}
}

func (h *Hart) execFClass(in insts.FClassType) error {
	bits := h.FReg.ReadF(in.Rs1.Index())
	h.Reg.WriteX(in.Rd.Index(), fclassBits(bits, in.Double))
	return nil
}

func (h *Hart) execFMA(in insts.FMAType) error {
	rd := in.Rd.Index()
	if in.Double {
		a, b, c := h.FReg.ReadF64(in.Rs1.Index()), h.FReg.ReadF64(in.Rs2.Index()), h.FReg.ReadF64(in.Rs3.Index())
		var result float64
		switch in.Op {
		case insts.FMAMADD:
			result = math.FMA(a, b, c)
		case insts.FMAMSUB:
			result = math.FMA(a, b, -c)
		case insts.FMANMSUB:
			result = math.FMA(-a, b, c)
		case insts.FMANMADD:
			result = math.FMA(-a, b, -c)
		}
		h.FReg.WriteF64(rd, result)
		return nil
	}
	a, b, c := float64(h.FReg.ReadF32(in.Rs1.Index())), float64(h.FReg.ReadF32(in.Rs2.Index())), float64(h.FReg.ReadF32(in.Rs3.Index()))
	var result float64
	switch in.Op {
	case insts.FMAMADD:
		result = math.FMA(a, b, c)
	case insts.FMAMSUB:
		result = math.FMA(a, b, -c)
	case insts.FMANMSUB:
		result = math.FMA(-a, b, c)
	case insts.FMANMADD:
		result = math.FMA(-a, b, -c)
	}
	h.FReg.WriteF32(rd, float32(result))
	return nil
}
