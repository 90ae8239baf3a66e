package insts

import "github.com/sarchlab/rvsim/isa"

// Base opcodes (word bits [6:0]). Naming and numeric layout follow the
// unprivileged RISC-V ISA manual, Chapter 24 ("RV32/64G Instruction Set
// Listings").
const (
	opLoad    = 0b0000011
	opLoadFP  = 0b0000111
	opMiscMem = 0b0001111
	opOpImm   = 0b0010011
	opAUIPC   = 0b0010111
	opOpImm32 = 0b0011011
	opStore   = 0b0100011
	opStoreFP = 0b0100111
	opAMO     = 0b0101111
	opOp      = 0b0110011
	opLUI     = 0b0110111
	opOp32    = 0b0111011
	opMadd    = 0b1000011
	opMsub    = 0b1000111
	opNmsub   = 0b1001011
	opNmadd   = 0b1001111
	opOpFP    = 0b1010011
	opBranch  = 0b1100011
	opJALR    = 0b1100111
	opJAL     = 0b1101111
	opSystem  = 0b1110011
)

func fieldOpcode(w uint32) uint32 { return w & 0x7f }
func fieldRd(w uint32) uint32     { return (w >> 7) & 0x1f }
func fieldFunct3(w uint32) uint32 { return (w >> 12) & 0x7 }
func fieldRs1(w uint32) uint32    { return (w >> 15) & 0x1f }
func fieldRs2(w uint32) uint32    { return (w >> 20) & 0x1f }
func fieldRs3(w uint32) uint32    { return (w >> 27) & 0x1f }
func fieldFunct7(w uint32) uint32 { return (w >> 25) & 0x7f }
func fieldFunct5(w uint32) uint32 { return (w >> 27) & 0x1f }
func fieldFunct2(w uint32) uint32 { return (w >> 25) & 0x3 }
func fieldCSR(w uint32) uint32    { return (w >> 20) & 0xfff }
func fieldAQ(w uint32) bool       { return (w>>26)&1 != 0 }
func fieldRL(w uint32) bool       { return (w>>25)&1 != 0 }

// immI sign-extends the I-type immediate, bits [31:20].
func immI(w uint32) int64 {
	return int64(int32(w)) >> 20
}

// immB sign-extends the B-type immediate, {bit31,bit7,bits30:25,bits11:8,0}.
func immB(w uint32) int64 {
	v := (w>>31&1)<<12 | (w>>7&1)<<11 | (w>>25&0x3f)<<5 | (w>>8&0xf)<<1
	return signExtend(uint64(v), 13)
}

// immU sign-extends the U-type immediate, bits[31:12] placed at [31:12].
func immU(w uint32) int64 {
	return int64(int32(w & 0xfffff000))
}

// immJ sign-extends the J-type immediate, {bit31,bits19:12,bit20,bits30:21,0}.
func immJ(w uint32) int64 {
	v := (w>>31&1)<<20 | (w>>12&0xff)<<12 | (w>>20&1)<<11 | (w>>21&0x3ff)<<1
	return signExtend(uint64(v), 21)
}

// signExtend sign-extends the low bits-wide field of v to 64 bits.
func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

// immS sign-extends the S-type immediate, {bits[31:25], bits[11:7]}.
func immS(w uint32) int64 {
	v := ((w>>25)&0x7f)<<5 | (w>>7)&0x1f
	return signExtend(uint64(v), 12)
}

func reg(idx uint32) isa.Reg   { return isa.RegFromIndex(idx) }
func freg(idx uint32) isa.FReg { return isa.FRegFromIndex(idx) }

// Decode converts a 32-bit little-endian instruction word into an
// Instruction, given the extensions enabled by table. Decode is pure
// and side-effect free: unrecognized or extension-disabled encodings
// yield Undefined.
func Decode(word uint32, table isa.Table) Instruction {
	switch fieldOpcode(word) {
	case opLUI:
		return LUIType{Rd: reg(fieldRd(word)), Imm: immU(word)}
	case opAUIPC:
		return AUIPCType{Rd: reg(fieldRd(word)), Imm: immU(word)}
	case opJAL:
		return JALType{Rd: reg(fieldRd(word)), Imm: immJ(word)}
	case opJALR:
		if fieldFunct3(word) != 0 {
			return Undefined{Raw: word}
		}
		return JALRType{Rd: reg(fieldRd(word)), Rs1: reg(fieldRs1(word)), Imm: immI(word)}
	case opBranch:
		return decodeBranch(word)
	case opLoad:
		return decodeLoad(word, table)
	case opStore:
		return decodeStore(word, table)
	case opOpImm:
		return decodeOpImm(word, table, false)
	case opOpImm32:
		if !table.Is64() {
			return Undefined{Raw: word}
		}
		return decodeOpImm(word, table, true)
	case opOp:
		return decodeOp(word, table, false)
	case opOp32:
		if !table.Is64() {
			return Undefined{Raw: word}
		}
		return decodeOp(word, table, true)
	case opMiscMem:
		return decodeMiscMem(word, table)
	case opSystem:
		return decodeSystem(word, table)
	case opAMO:
		return decodeAMO(word, table)
	case opLoadFP:
		return decodeLoadFP(word, table)
	case opStoreFP:
		return decodeStoreFP(word, table)
	case opOpFP:
		return decodeOpFP(word, table)
	case opMadd, opMsub, opNmsub, opNmadd:
		return decodeFMA(word, table)
	default:
		return Undefined{Raw: word}
	}
}

func decodeBranch(word uint32) Instruction {
	var cond BranchCond
	switch fieldFunct3(word) {
	case 0b000:
		cond = CondEQ
	case 0b001:
		cond = CondNE
	case 0b100:
		cond = CondLT
	case 0b101:
		cond = CondGE
	case 0b110:
		cond = CondLTU
	case 0b111:
		cond = CondGEU
	default:
		return Undefined{Raw: word}
	}
	return BranchType{Cond: cond, Rs1: reg(fieldRs1(word)), Rs2: reg(fieldRs2(word)), Imm: immB(word)}
}

func decodeLoad(word uint32, table isa.Table) Instruction {
	rd, rs1, imm := reg(fieldRd(word)), reg(fieldRs1(word)), immI(word)
	switch fieldFunct3(word) {
	case 0b000:
		return LoadType{Rd: rd, Rs1: rs1, Imm: imm, Width: 8, Signed: true}
	case 0b001:
		return LoadType{Rd: rd, Rs1: rs1, Imm: imm, Width: 16, Signed: true}
	case 0b010:
		return LoadType{Rd: rd, Rs1: rs1, Imm: imm, Width: 32, Signed: true}
	case 0b011:
		if !table.Is64() {
			return Undefined{Raw: word}
		}
		return LoadType{Rd: rd, Rs1: rs1, Imm: imm, Width: 64, Signed: true}
	case 0b100:
		return LoadType{Rd: rd, Rs1: rs1, Imm: imm, Width: 8, Signed: false}
	case 0b101:
		return LoadType{Rd: rd, Rs1: rs1, Imm: imm, Width: 16, Signed: false}
	case 0b110:
		if !table.Is64() {
			return Undefined{Raw: word}
		}
		return LoadType{Rd: rd, Rs1: rs1, Imm: imm, Width: 32, Signed: false}
	default:
		return Undefined{Raw: word}
	}
}

func decodeStore(word uint32, table isa.Table) Instruction {
	rs1, rs2, imm := reg(fieldRs1(word)), reg(fieldRs2(word)), immS(word)
	switch fieldFunct3(word) {
	case 0b000:
		return StoreType{Rs1: rs1, Rs2: rs2, Imm: imm, Width: 8}
	case 0b001:
		return StoreType{Rs1: rs1, Rs2: rs2, Imm: imm, Width: 16}
	case 0b010:
		return StoreType{Rs1: rs1, Rs2: rs2, Imm: imm, Width: 32}
	case 0b011:
		if !table.Is64() {
			return Undefined{Raw: word}
		}
		return StoreType{Rs1: rs1, Rs2: rs2, Imm: imm, Width: 64}
	default:
		return Undefined{Raw: word}
	}
}

// decodeOpImm handles OP-IMM (word32=false) and OP-IMM-32 (word32=true).
func decodeOpImm(word uint32, table isa.Table, word32 bool) Instruction {
	rd, rs1, f3 := reg(fieldRd(word)), reg(fieldRs1(word)), fieldFunct3(word)
	if !word32 {
		switch f3 {
		case 0b000:
			return IType{Op: OpADD, Rd: rd, Rs1: rs1, Imm: immI(word)}
		case 0b010:
			return IType{Op: OpSLT, Rd: rd, Rs1: rs1, Imm: immI(word)}
		case 0b011:
			return IType{Op: OpSLTU, Rd: rd, Rs1: rs1, Imm: immI(word)}
		case 0b100:
			return IType{Op: OpXOR, Rd: rd, Rs1: rs1, Imm: immI(word)}
		case 0b110:
			return IType{Op: OpOR, Rd: rd, Rs1: rs1, Imm: immI(word)}
		case 0b111:
			return IType{Op: OpAND, Rd: rd, Rs1: rs1, Imm: immI(word)}
		case 0b001, 0b101:
			return decodeShiftImm(word, rd, rs1, f3, table.Is64(), false)
		}
	} else {
		switch f3 {
		case 0b000:
			return IType{Op: OpADD, Rd: rd, Rs1: rs1, Imm: immI(word), Word32: true}
		case 0b001, 0b101:
			return decodeShiftImm(word, rd, rs1, f3, false, true)
		}
	}
	return Undefined{Raw: word}
}

// decodeShiftImm decodes SLLI/SRLI/SRAI (and their W-suffixed 32-bit
// forms). is64 selects a 6-bit shamt (RV64 non-W forms), whose top bit
// lives in funct7 bit 0 (instruction bit 25); W-forms and RV32 always
// use a 5-bit shamt and require that bit to be zero like the rest of
// funct6. funct6 bit 4 (instruction bit 30) is the arith selector; any
// other funct6 bit set makes the encoding Undefined.
func decodeShiftImm(word uint32, rd, rs1 isa.Reg, f3 uint32, is64, word32 bool) Instruction {
	f7 := fieldFunct7(word)
	arith := (f7 >> 5) & 1 // instruction bit 30

	shamt := fieldRs2(word)
	funct6Rest := f7 &^ (1 << 5)
	if is64 && !word32 {
		shamt |= (f7 & 1) << 5 // instruction bit 25 extends shamt to 6 bits
		funct6Rest &^= 1
	}
	if funct6Rest != 0 {
		return Undefined{Raw: word}
	}
	op := OpSLL
	if f3 == 0b101 {
		if arith == 1 {
			op = OpSRA
		} else {
			op = OpSRL
		}
	}
	return IType{Op: op, Rd: rd, Rs1: rs1, Shamt: uint8(shamt), IsShift: true, Word32: word32}
}

// decodeOp handles OP (word32=false) and OP-32 (word32=true).
func decodeOp(word uint32, table isa.Table, word32 bool) Instruction {
	rd, rs1, rs2, f3, f7 := reg(fieldRd(word)), reg(fieldRs1(word)), reg(fieldRs2(word)), fieldFunct3(word), fieldFunct7(word)
	if f7 == 0b0000001 {
		if !table.Has(isa.M) {
			return Undefined{Raw: word}
		}
		return decodeMulDiv(word, rd, rs1, rs2, f3, word32)
	}
	if word32 {
		switch {
		case f7 == 0b0000000 && f3 == 0b000:
			return RType{Op: OpADD, Rd: rd, Rs1: rs1, Rs2: rs2, Word32: true}
		case f7 == 0b0100000 && f3 == 0b000:
			return RType{Op: OpSUB, Rd: rd, Rs1: rs1, Rs2: rs2, Word32: true}
		case f7 == 0b0000000 && f3 == 0b001:
			return RType{Op: OpSLL, Rd: rd, Rs1: rs1, Rs2: rs2, Word32: true}
		case f7 == 0b0000000 && f3 == 0b101:
			return RType{Op: OpSRL, Rd: rd, Rs1: rs1, Rs2: rs2, Word32: true}
		case f7 == 0b0100000 && f3 == 0b101:
			return RType{Op: OpSRA, Rd: rd, Rs1: rs1, Rs2: rs2, Word32: true}
		}
		return Undefined{Raw: word}
	}
	switch {
	case f7 == 0b0000000:
		switch f3 {
		case 0b000:
			return RType{Op: OpADD, Rd: rd, Rs1: rs1, Rs2: rs2}
		case 0b001:
			return RType{Op: OpSLL, Rd: rd, Rs1: rs1, Rs2: rs2}
		case 0b010:
			return RType{Op: OpSLT, Rd: rd, Rs1: rs1, Rs2: rs2}
		case 0b011:
			return RType{Op: OpSLTU, Rd: rd, Rs1: rs1, Rs2: rs2}
		case 0b100:
			return RType{Op: OpXOR, Rd: rd, Rs1: rs1, Rs2: rs2}
		case 0b101:
			return RType{Op: OpSRL, Rd: rd, Rs1: rs1, Rs2: rs2}
		case 0b110:
			return RType{Op: OpOR, Rd: rd, Rs1: rs1, Rs2: rs2}
		case 0b111:
			return RType{Op: OpAND, Rd: rd, Rs1: rs1, Rs2: rs2}
		}
	case f7 == 0b0100000:
		switch f3 {
		case 0b000:
			return RType{Op: OpSUB, Rd: rd, Rs1: rs1, Rs2: rs2}
		case 0b101:
			return RType{Op: OpSRA, Rd: rd, Rs1: rs1, Rs2: rs2}
		}
	}
	return Undefined{Raw: word}
}

func decodeMulDiv(word uint32, rd, rs1, rs2 isa.Reg, f3 uint32, word32 bool) Instruction {
	if word32 {
		switch f3 {
		case 0b000:
			return RType{Op: OpMUL, Rd: rd, Rs1: rs1, Rs2: rs2, Word32: true}
		case 0b100:
			return RType{Op: OpDIV, Rd: rd, Rs1: rs1, Rs2: rs2, Word32: true}
		case 0b101:
			return RType{Op: OpDIVU, Rd: rd, Rs1: rs1, Rs2: rs2, Word32: true}
		case 0b110:
			return RType{Op: OpREM, Rd: rd, Rs1: rs1, Rs2: rs2, Word32: true}
		case 0b111:
			return RType{Op: OpREMU, Rd: rd, Rs1: rs1, Rs2: rs2, Word32: true}
		}
		return Undefined{Raw: word}
	}
	switch f3 {
	case 0b000:
		return RType{Op: OpMUL, Rd: rd, Rs1: rs1, Rs2: rs2}
	case 0b001:
		return RType{Op: OpMULH, Rd: rd, Rs1: rs1, Rs2: rs2}
	case 0b010:
		return RType{Op: OpMULHSU, Rd: rd, Rs1: rs1, Rs2: rs2}
	case 0b011:
		return RType{Op: OpMULHU, Rd: rd, Rs1: rs1, Rs2: rs2}
	case 0b100:
		return RType{Op: OpDIV, Rd: rd, Rs1: rs1, Rs2: rs2}
	case 0b101:
		return RType{Op: OpDIVU, Rd: rd, Rs1: rs1, Rs2: rs2}
	case 0b110:
		return RType{Op: OpREM, Rd: rd, Rs1: rs1, Rs2: rs2}
	case 0b111:
		return RType{Op: OpREMU, Rd: rd, Rs1: rs1, Rs2: rs2}
	}
	return Undefined{Raw: word}
}

func decodeMiscMem(word uint32, table isa.Table) Instruction {
	switch fieldFunct3(word) {
	case 0b000:
		return FenceType{Kind: FenceMem}
	case 0b001:
		if !table.Has(isa.Zifencei) {
			return Undefined{Raw: word}
		}
		return FenceType{Kind: FenceI}
	}
	return Undefined{Raw: word}
}

func decodeSystem(word uint32, table isa.Table) Instruction {
	f3 := fieldFunct3(word)
	if f3 == 0 {
		switch fieldCSR(word) {
		case 0x000:
			return SystemType{Kind: SystemECALL}
		case 0x001:
			return SystemType{Kind: SystemEBREAK}
		}
		return Undefined{Raw: word}
	}
	if !table.Has(isa.Zicsr) {
		return Undefined{Raw: word}
	}
	rd, csr := reg(fieldRd(word)), fieldCSR(word)
	switch f3 {
	case 0b001:
		return CSRType{Op: CSRRW, Rd: rd, Rs1: reg(fieldRs1(word)), CSR: csr}
	case 0b010:
		return CSRType{Op: CSRRS, Rd: rd, Rs1: reg(fieldRs1(word)), CSR: csr}
	case 0b011:
		return CSRType{Op: CSRRC, Rd: rd, Rs1: reg(fieldRs1(word)), CSR: csr}
	case 0b101:
		return CSRIType{Op: CSRRW, Rd: rd, Zimm: fieldRs1(word), CSR: csr}
	case 0b110:
		return CSRIType{Op: CSRRS, Rd: rd, Zimm: fieldRs1(word), CSR: csr}
	case 0b111:
		return CSRIType{Op: CSRRC, Rd: rd, Zimm: fieldRs1(word), CSR: csr}
	}
	return Undefined{Raw: word}
}

func decodeAMO(word uint32, table isa.Table) Instruction {
	if !table.Has(isa.A) {
		return Undefined{Raw: word}
	}
	f3 := fieldFunct3(word)
	var width uint8
	switch f3 {
	case 0b010:
		width = 32
	case 0b011:
		if !table.Is64() {
			return Undefined{Raw: word}
		}
		width = 64
	default:
		return Undefined{Raw: word}
	}
	rd, rs1, rs2 := reg(fieldRd(word)), reg(fieldRs1(word)), reg(fieldRs2(word))
	aq, rl := fieldAQ(word), fieldRL(word)
	base := AMOType{Rd: rd, Rs1: rs1, Rs2: rs2, Width: width, AQ: aq, RL: rl}
	switch fieldFunct5(word) {
	case 0b00010:
		base.Op = AMOLR
	case 0b00011:
		base.Op = AMOSC
	case 0b00001:
		base.Op = AMOSWAP
	case 0b00000:
		base.Op = AMOADD
	case 0b00100:
		base.Op = AMOXOR
	case 0b01100:
		base.Op = AMOAND
	case 0b01000:
		base.Op = AMOOR
	case 0b10000:
		base.Op = AMOMIN
	case 0b10100:
		base.Op = AMOMAX
	case 0b11000:
		base.Op = AMOMINU
	case 0b11100:
		base.Op = AMOMAXU
	default:
		return Undefined{Raw: word}
	}
	return base
}

func fpExtensionEnabled(table isa.Table, double bool) bool {
	if double {
		return table.Has(isa.D) || table.Has(isa.Q)
	}
	return table.Has(isa.F)
}

func decodeLoadFP(word uint32, table isa.Table) Instruction {
	rd, rs1, imm := freg(fieldRd(word)), reg(fieldRs1(word)), immI(word)
	switch fieldFunct3(word) {
	case 0b010:
		if !table.Has(isa.F) {
			return Undefined{Raw: word}
		}
		return FLoadType{Rd: rd, Rs1: rs1, Imm: imm, Width: 32}
	case 0b011:
		if !fpExtensionEnabled(table, true) {
			return Undefined{Raw: word}
		}
		return FLoadType{Rd: rd, Rs1: rs1, Imm: imm, Width: 64}
	}
	return Undefined{Raw: word}
}

func decodeStoreFP(word uint32, table isa.Table) Instruction {
	rs1, rs2, imm := reg(fieldRs1(word)), freg(fieldRs2(word)), immS(word)
	switch fieldFunct3(word) {
	case 0b010:
		if !table.Has(isa.F) {
			return Undefined{Raw: word}
		}
		return FStoreType{Rs1: rs1, Rs2: rs2, Imm: imm, Width: 32}
	case 0b011:
		if !fpExtensionEnabled(table, true) {
			return Undefined{Raw: word}
		}
		return FStoreType{Rs1: rs1, Rs2: rs2, Imm: imm, Width: 64}
	}
	return Undefined{Raw: word}
}

// decodeOpFP decodes OP-FP (funct7 selects operation; bits [26:25] of
// funct7, the fmt field, select precision: 00=S, 01=D, 11=Q).
func decodeOpFP(word uint32, table isa.Table) Instruction {
	f7 := fieldFunct7(word)
	fmtBits := f7 & 0b11
	double := fmtBits == 0b01 || fmtBits == 0b11
	if !fpExtensionEnabled(table, double) {
		return Undefined{Raw: word}
	}
	rd, rs1, rs2 := freg(fieldRd(word)), freg(fieldRs1(word)), freg(fieldRs2(word))
	rm := uint8(fieldFunct3(word))
	funct5 := f7 >> 2
	switch funct5 {
	case 0b00000:
		return FRType{Op: FOpADD, Rd: rd, Rs1: rs1, Rs2: rs2, RM: rm, Double: double}
	case 0b00001:
		return FRType{Op: FOpSUB, Rd: rd, Rs1: rs1, Rs2: rs2, RM: rm, Double: double}
	case 0b00010:
		return FRType{Op: FOpMUL, Rd: rd, Rs1: rs1, Rs2: rs2, RM: rm, Double: double}
	case 0b00011:
		return FRType{Op: FOpDIV, Rd: rd, Rs1: rs1, Rs2: rs2, RM: rm, Double: double}
	case 0b01011:
		return FSqrtType{Rd: rd, Rs1: rs1, RM: rm, Double: double}
	case 0b00100:
		switch fieldFunct3(word) {
		case 0b000:
			return FRType{Op: FOpSGNJ, Rd: rd, Rs1: rs1, Rs2: rs2, Double: double}
		case 0b001:
			return FRType{Op: FOpSGNJN, Rd: rd, Rs1: rs1, Rs2: rs2, Double: double}
		case 0b010:
			return FRType{Op: FOpSGNJX, Rd: rd, Rs1: rs1, Rs2: rs2, Double: double}
		}
		return Undefined{Raw: word}
	case 0b00101:
		switch fieldFunct3(word) {
		case 0b000:
			return FRType{Op: FOpMIN, Rd: rd, Rs1: rs1, Rs2: rs2, Double: double}
		case 0b001:
			return FRType{Op: FOpMAX, Rd: rd, Rs1: rs1, Rs2: rs2, Double: double}
		}
		return Undefined{Raw: word}
	case 0b10100:
		cmp := FCmpType{Rd: reg(fieldRd(word)), Rs1: rs1, Rs2: rs2, Double: double}
		switch fieldFunct3(word) {
		case 0b010:
			cmp.Kind = FCmpEQ
		case 0b001:
			cmp.Kind = FCmpLT
		case 0b000:
			cmp.Kind = FCmpLE
		default:
			return Undefined{Raw: word}
		}
		return cmp
	case 0b11000:
		return decodeFCvtToInt(word, double, table)
	case 0b11010:
		return decodeFCvtToFloat(word, double, table)
	case 0b11100:
		if fieldRs2(word) != 0 {
			return Undefined{Raw: word}
		}
		switch fieldFunct3(word) {
		case 0b000:
			return FMVType{Dir: FMVToInt, IntReg: reg(fieldRd(word)), FloatReg: rs1, Double: double}
		case 0b001:
			return FClassType{Rd: reg(fieldRd(word)), Rs1: rs1, Double: double}
		}
		return Undefined{Raw: word}
	case 0b11110:
		if fieldRs2(word) != 0 || fieldFunct3(word) != 0 {
			return Undefined{Raw: word}
		}
		return FMVType{Dir: FMVToFloat, IntReg: reg(fieldRs1(word)), FloatReg: rd, Double: double}
	}
	return Undefined{Raw: word}
}

func decodeFCvtToInt(word uint32, double bool, table isa.Table) Instruction {
	rm := uint8(fieldFunct3(word))
	out := FCvtType{ToInt: true, IntReg: reg(fieldRd(word)), FloatReg: freg(fieldRs1(word)), RM: rm, Double: double}
	switch fieldRs2(word) {
	case 0b00000:
		out.Signed, out.Long = true, false
	case 0b00001:
		out.Signed, out.Long = false, false
	case 0b00010:
		if !table.Is64() {
			return Undefined{Raw: word}
		}
		out.Signed, out.Long = true, true
	case 0b00011:
		if !table.Is64() {
			return Undefined{Raw: word}
		}
		out.Signed, out.Long = false, true
	default:
		return Undefined{Raw: word}
	}
	return out
}

func decodeFCvtToFloat(word uint32, double bool, table isa.Table) Instruction {
	rm := uint8(fieldFunct3(word))
	out := FCvtType{ToInt: false, IntReg: reg(fieldRs1(word)), FloatReg: freg(fieldRd(word)), RM: rm, Double: double}
	switch fieldRs2(word) {
	case 0b00000:
		out.Signed, out.Long = true, false
	case 0b00001:
		out.Signed, out.Long = false, false
	case 0b00010:
		if !table.Is64() {
			return Undefined{Raw: word}
		}
		out.Signed, out.Long = true, true
	case 0b00011:
		if !table.Is64() {
			return Undefined{Raw: word}
		}
		out.Signed, out.Long = false, true
	default:
		return Undefined{Raw: word}
	}
	return out
}

func decodeFMA(word uint32, table isa.Table) Instruction {
	fmtBits := fieldFunct2(word)
	double := fmtBits == 0b01 || fmtBits == 0b11
	if !fpExtensionEnabled(table, double) {
		return Undefined{Raw: word}
	}
	out := FMAType{
		Rd: freg(fieldRd(word)), Rs1: freg(fieldRs1(word)), Rs2: freg(fieldRs2(word)), Rs3: freg(fieldRs3(word)),
		RM: uint8(fieldFunct3(word)), Double: double,
	}
	switch fieldOpcode(word) {
	case opMadd:
		out.Op = FMAMADD
	case opMsub:
		out.Op = FMAMSUB
	case opNmsub:
		out.Op = FMANMSUB
	case opNmadd:
		out.Op = FMANMADD
	default:
		return Undefined{Raw: word}
	}
	return out
}
