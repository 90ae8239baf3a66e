package hart

import (
	"github.com/sarchlab/rvsim/bus"
	"github.com/sarchlab/rvsim/except"
	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/isa"
)

// StepResult describes the instruction a single Step executed.
type StepResult struct {
	PC     uint64 // address the executed instruction was fetched from
	NextPC uint64 // address Step will fetch from next
	Word   uint32 // raw instruction word
}

// fetcher is implemented by a Bus that distinguishes instruction
// fetches from data accesses, e.g. bus.Probe. A plain bus.Bus is used
// through its Read method when it doesn't implement fetcher.
type fetcher interface {
	ReadFetch(addr uint64, width bus.Width) (uint64, error)
}

// Hart is one RV64G hardware thread: an integer and floating-point
// register file, a CSR file, a private load-reserved/store-conditional
// reservation, and a pure fetch/decode/execute loop over a shared Bus.
// A Hart has no notion of other HARTs; a system.Machine composes
// several Harts over one Bus and invalidates reservations across them
// per the A-extension's machine-wide invalidation rule.
type Hart struct {
	Reg  RegFile
	FReg FRegFile
	CSR  CSRFile

	bus   bus.Bus
	table isa.Table

	reservation      uint64
	reservationValid bool

	instructionCount uint64
	maxInstructions  uint64 // 0 means unbounded
}

// Option configures a Hart at construction time.
type Option func(*Hart)

// WithTable overrides the default fully-enabled extension table.
func WithTable(t isa.Table) Option {
	return func(h *Hart) { h.table = t }
}

// WithEntryPoint sets the initial program counter.
func WithEntryPoint(pc uint64) Option {
	return func(h *Hart) { h.Reg.PC = pc }
}

// WithStackPointer sets the initial stack pointer (x2).
func WithStackPointer(sp uint64) Option {
	return func(h *Hart) { h.Reg.X[isa.X2] = sp }
}

// WithMaxInstructions caps the number of instructions RunUntilHalt
// will retire. A value of 0 (the default) means unbounded.
func WithMaxInstructions(max uint64) Option {
	return func(h *Hart) { h.maxInstructions = max }
}

// NewHart builds a Hart over the given Bus with RV64I and every
// modeled extension enabled unless overridden by WithTable.
func NewHart(b bus.Bus, opts ...Option) *Hart {
	h := &Hart{
		bus:   b,
		table: isa.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InstructionCount returns the number of instructions retired so far.
func (h *Hart) InstructionCount() uint64 {
	return h.instructionCount
}

// PC returns the current program counter.
func (h *Hart) PC() uint64 {
	return h.Reg.PC
}

// InvalidateReservation clears this Hart's LR/SC reservation,
// regardless of address. A system.Machine calls this on every Hart,
// the storing one included, after each successful store through its
// shared bus, whatever the store's address.
func (h *Hart) InvalidateReservation() {
	h.reservationValid = false
}

func (h *Hart) fetch(addr uint64) (uint32, error) {
	if addr%4 != 0 {
		return 0, except.NewMemFault(except.ErrInstructionAddressMisaligned, addr, addr)
	}
	var v uint64
	var err error
	if f, ok := h.bus.(fetcher); ok {
		v, err = f.ReadFetch(addr, bus.Width32)
	} else {
		v, err = h.bus.Read(addr, bus.Width32)
	}
	if err != nil {
		return 0, except.NewMemFault(except.ErrLoadAccessFault, addr, addr)
	}
	return uint32(v), nil
}

// Step fetches, decodes, and executes exactly one instruction. It
// returns the instruction's address and the address of the next
// instruction to fetch (the one PC will hold on a normal return) on
// success. A non-nil error is either a genuine fault or, for
// ECALL/EBREAK, a control transfer the caller should detect with
// except.IsControlTransfer and handle externally: executing the
// system call itself is outside this core's scope.
func (h *Hart) Step() (StepResult, error) {
	pc := h.Reg.PC
	word, err := h.fetch(pc)
	if err != nil {
		return StepResult{PC: pc}, err
	}

	inst := insts.Decode(word, h.table)
	nextPC := pc + 4
	h.Reg.PC = nextPC

	if err := h.execute(inst, pc); err != nil {
		h.Reg.PC = pc
		return StepResult{PC: pc, Word: word}, err
	}

	h.instructionCount++
	h.CSR.SetCycle(h.instructionCount, h.instructionCount, h.instructionCount)
	return StepResult{PC: pc, NextPC: h.Reg.PC, Word: word}, nil
}

// RunUntilHalt steps until a control transfer (ECALL/EBREAK), a fault,
// or the instruction budget set by WithMaxInstructions is exhausted.
// The returned error is nil only when the instruction budget is what
// stopped execution; callers that care about ECALL/EBREAK vs. genuine
// faults should inspect the error with except.IsControlTransfer.
func (h *Hart) RunUntilHalt() error {
	for {
		_, err := h.Step()
		if err != nil {
			return err
		}
		if h.maxInstructions != 0 && h.instructionCount >= h.maxInstructions {
			return nil
		}
	}
}

// execute dispatches a decoded Instruction to its execution unit. The
// switch is exhaustive over every concrete type insts.Decode can
// produce; Undefined and any instruction disabled by the Hart's
// extension table fault as an illegal instruction.
func (h *Hart) execute(inst insts.Instruction, pc uint64) error {
	switch in := inst.(type) {
	case insts.RType:
		return h.execRType(in)
	case insts.IType:
		return h.execIType(in)
	case insts.LUIType:
		h.Reg.WriteX(in.Rd.Index(), uint64(in.Imm))
		return nil
	case insts.AUIPCType:
		h.Reg.WriteX(in.Rd.Index(), pc+uint64(in.Imm))
		return nil
	case insts.JALType:
		return h.execJAL(in, pc)
	case insts.JALRType:
		return h.execJALR(in, pc)
	case insts.BranchType:
		return h.execBranch(in, pc)
	case insts.LoadType:
		return h.execLoad(in, pc)
	case insts.StoreType:
		return h.execStore(in, pc)
	case insts.FenceType:
		return nil
	case insts.SystemType:
		return h.execSystem(in, pc)
	case insts.CSRType:
		return h.execCSR(in, pc)
	case insts.CSRIType:
		return h.execCSRI(in, pc)
	case insts.AMOType:
		return h.execAMO(in, pc)
	case insts.FLoadType:
		return h.execFLoad(in, pc)
	case insts.FStoreType:
		return h.execFStore(in, pc)
	case insts.FRType:
		return h.execFR(in)
	case insts.FSqrtType:
		return h.execFSqrt(in)
	case insts.FCmpType:
		return h.execFCmp(in)
	case insts.FCvtType:
		return h.execFCvt(in)
	case insts.FMVType:
		return h.execFMV(in)
	case insts.FClassType:
		return h.execFClass(in)
	case insts.FMAType:
		return h.execFMA(in)
	default:
		return except.NewFault(except.ErrIllegalInstruction, pc)
	}
}
