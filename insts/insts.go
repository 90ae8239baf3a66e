// Package insts provides the RISC-V instruction representation and the
// pure decoder that turns a 32-bit instruction word into it.
//
// Instruction is a tagged union realized as a sealed Go interface: each
// concrete type carries only the fields its own operation needs (rd,
// rs1, rs2, rs3, imm, shamt, csr, rm, aq/rl), rather than one wide
// struct pretending every field is always present.
package insts

import "github.com/sarchlab/rvsim/isa"

// Instruction is implemented by every decoded instruction shape. The
// unexported marker method seals the interface to this package.
type Instruction interface {
	isInstruction()
}

// ALUOp names an integer ALU operation shared by register-register and
// register-immediate forms.
type ALUOp uint8

// Integer ALU operations.
const (
	OpADD ALUOp = iota
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	// M extension
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
)

// RType is a register-register instruction: rd = rs1 OP rs2. Word32 is
// true for the W-suffixed RV64 forms (ADDW, SUBW, ...), which operate on
// the low 32 bits and sign-extend the result.
type RType struct {
	Op     ALUOp
	Rd     isa.Reg
	Rs1    isa.Reg
	Rs2    isa.Reg
	Word32 bool
}

func (RType) isInstruction() {}

// IType is a register-immediate ALU instruction: rd = rs1 OP imm. Imm is
// already sign-extended to 64 bits (except for shift-amount forms,
// where Shamt carries the unsigned shift amount and Op determines
// direction/arithmetic-ness).
type IType struct {
	Op     ALUOp
	Rd     isa.Reg
	Rs1    isa.Reg
	Imm    int64
	Shamt  uint8 // valid only when Op is OpSLL/OpSRL/OpSRA
	IsShift bool
	Word32 bool
}

func (IType) isInstruction() {}

// LUIType writes sign_extend(imm<<12) to Rd.
type LUIType struct {
	Rd  isa.Reg
	Imm int64
}

func (LUIType) isInstruction() {}

// AUIPCType writes PC + sign_extend(imm<<12) to Rd.
type AUIPCType struct {
	Rd  isa.Reg
	Imm int64
}

func (AUIPCType) isInstruction() {}

// JALType links PC+4 into Rd and jumps to PC + Imm.
type JALType struct {
	Rd  isa.Reg
	Imm int64
}

func (JALType) isInstruction() {}

// JALRType links PC+4 into Rd and jumps to (rs1 + Imm) & ^1.
type JALRType struct {
	Rd  isa.Reg
	Rs1 isa.Reg
	Imm int64
}

func (JALRType) isInstruction() {}

// BranchCond names a branch comparison.
type BranchCond uint8

// Branch comparisons.
const (
	CondEQ BranchCond = iota
	CondNE
	CondLT
	CondGE
	CondLTU
	CondGEU
)

// BranchType compares Rs1 and Rs2 and, if taken, adds Imm to PC.
type BranchType struct {
	Cond BranchCond
	Rs1  isa.Reg
	Rs2  isa.Reg
	Imm  int64
}

func (BranchType) isInstruction() {}

// LoadType loads Width bits from rs1+Imm into Rd, sign- or
// zero-extending to 64 bits per Signed.
type LoadType struct {
	Rd     isa.Reg
	Rs1    isa.Reg
	Imm    int64
	Width  uint8 // 8, 16, 32, 64
	Signed bool
}

func (LoadType) isInstruction() {}

// StoreType stores the low Width bits of Rs2 to rs1+Imm.
type StoreType struct {
	Rs1   isa.Reg
	Rs2   isa.Reg
	Imm   int64
	Width uint8
}

func (StoreType) isInstruction() {}

// FenceKind distinguishes FENCE from FENCE.I.
type FenceKind uint8

// Fence kinds.
const (
	FenceMem FenceKind = iota
	FenceI
)

// FenceType is a memory/instruction fence; both forms are representable
// no-ops in this single-HART-per-step model (see the system package for
// the multi-HART ordering discipline).
type FenceType struct {
	Kind FenceKind
}

func (FenceType) isInstruction() {}

// SystemKind distinguishes ECALL from EBREAK.
type SystemKind uint8

// System call/breakpoint kinds.
const (
	SystemECALL SystemKind = iota
	SystemEBREAK
)

// SystemType is ECALL or EBREAK: both suspend the HART and defer to an
// external supervisor.
type SystemType struct {
	Kind SystemKind
}

func (SystemType) isInstruction() {}

// CSROp names a Zicsr read-modify-write operation.
type CSROp uint8

// CSR read-modify-write operations.
const (
	CSRRW CSROp = iota
	CSRRS
	CSRRC
)

// CSRType is a register-sourced CSR instruction (CSRRW/CSRRS/CSRRC).
type CSRType struct {
	Op  CSROp
	Rd  isa.Reg
	Rs1 isa.Reg
	CSR uint32
}

func (CSRType) isInstruction() {}

// CSRIType is an immediate-sourced CSR instruction (CSRRWI/CSRRSI/CSRRCI).
type CSRIType struct {
	Op   CSROp
	Rd   isa.Reg
	Zimm uint32 // 5-bit zero-extended immediate
	CSR  uint32
}

func (CSRIType) isInstruction() {}

// AMOOp names an atomic memory operation.
type AMOOp uint8

// Atomic memory operations.
const (
	AMOLR AMOOp = iota
	AMOSC
	AMOSWAP
	AMOADD
	AMOXOR
	AMOAND
	AMOOR
	AMOMIN
	AMOMAX
	AMOMINU
	AMOMAXU
)

// AMOType is an A-extension atomic instruction (LR/SC/AMO*), word or
// doubleword depending on Width.
type AMOType struct {
	Op    AMOOp
	Rd    isa.Reg
	Rs1   isa.Reg
	Rs2   isa.Reg // unused by LR
	Width uint8   // 32 or 64
	AQ    bool
	RL    bool
}

func (AMOType) isInstruction() {}

// FLoadType loads Width bits from rs1+Imm into the float register Rd,
// preserving the bit pattern (NaN-boxed for 32-bit loads into the
// 64-bit register file).
type FLoadType struct {
	Rd    isa.FReg
	Rs1   isa.Reg
	Imm   int64
	Width uint8
}

func (FLoadType) isInstruction() {}

// FStoreType stores the low Width bits of the float register Rs2 to
// rs1+Imm.
type FStoreType struct {
	Rs1   isa.Reg
	Rs2   isa.FReg
	Imm   int64
	Width uint8
}

func (FStoreType) isInstruction() {}

// FOp names a float-float-float arithmetic or sign-injection operation.
type FOp uint8

// Floating-point arithmetic/sign-injection operations.
const (
	FOpADD FOp = iota
	FOpSUB
	FOpMUL
	FOpDIV
	FOpMIN
	FOpMAX
	FOpSGNJ
	FOpSGNJN
	FOpSGNJX
)

// FRType is a two-source floating-point operation: fd = fs1 OP fs2.
// Double selects double- (true) vs single-precision (false); Q is
// modeled identically to D (see isa.Q).
type FRType struct {
	Op     FOp
	Rd     isa.FReg
	Rs1    isa.FReg
	Rs2    isa.FReg
	RM     uint8
	Double bool
}

func (FRType) isInstruction() {}

// FSqrtType is FSQRT.S/D/Q: fd = sqrt(fs1).
type FSqrtType struct {
	Rd     isa.FReg
	Rs1    isa.FReg
	RM     uint8
	Double bool
}

func (FSqrtType) isInstruction() {}

// FCmpKind names a floating-point comparison.
type FCmpKind uint8

// Floating-point comparisons.
const (
	FCmpEQ FCmpKind = iota
	FCmpLT
	FCmpLE
)

// FCmpType is FEQ/FLT/FLE: rd (integer) = fs1 CMP fs2 ? 1 : 0.
type FCmpType struct {
	Kind   FCmpKind
	Rd     isa.Reg
	Rs1    isa.FReg
	Rs2    isa.FReg
	Double bool
}

func (FCmpType) isInstruction() {}

// FCvtType is one of FCVT.{W,WU,L,LU}.{S,D,Q} (float to integer) or
// FCVT.{S,D,Q}.{W,WU,L,LU} (integer to float), selected by ToInt.
type FCvtType struct {
	ToInt    bool
	Signed   bool // signed (W/L) vs unsigned (WU/LU) integer side
	Long     bool // 64-bit (L/LU) vs 32-bit (W/WU) integer side
	IntReg   isa.Reg
	FloatReg isa.FReg
	RM       uint8
	Double   bool // precision of the float side
}

func (FCvtType) isInstruction() {}

// FMVDir names the direction of a bit-pattern move between register
// files.
type FMVDir uint8

// Move directions.
const (
	FMVToInt   FMVDir = iota // FMV.X.W / FMV.X.D
	FMVToFloat               // FMV.W.X / FMV.D.X
)

// FMVType copies a bit pattern between the integer and float register
// files without conversion.
type FMVType struct {
	Dir      FMVDir
	IntReg   isa.Reg
	FloatReg isa.FReg
	Double   bool
}

func (FMVType) isInstruction() {}

// FClassType writes a 10-bit one-hot classification of Rs1 to Rd.
type FClassType struct {
	Rd     isa.Reg
	Rs1    isa.FReg
	Double bool
}

func (FClassType) isInstruction() {}

// FMAOp names a fused multiply-add variant.
type FMAOp uint8

// Fused multiply-add variants.
const (
	FMAMADD FMAOp = iota
	FMAMSUB
	FMANMSUB
	FMANMADD
)

// FMAType is FMADD/FMSUB/FNMSUB/FNMADD: a single rounding over
// ±(rs1×rs2)±rs3.
type FMAType struct {
	Op     FMAOp
	Rd     isa.FReg
	Rs1    isa.FReg
	Rs2    isa.FReg
	Rs3    isa.FReg
	RM     uint8
	Double bool
}

func (FMAType) isInstruction() {}

// Undefined is returned for unrecognized or extension-disabled
// encodings. Raw preserves the original word for diagnostics.
type Undefined struct {
	Raw uint32
}

func (Undefined) isInstruction() {}
