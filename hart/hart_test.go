package hart_test

import (
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/bus"
	"github.com/sarchlab/rvsim/except"
	"github.com/sarchlab/rvsim/hart"
	"github.com/sarchlab/rvsim/isa"
)

func TestHart(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Hart Suite")
}

// Encoding helpers build raw instruction words matching the unprivileged
// ISA manual's field layout, independent of the decoder under test.

func encodeR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeI(imm, rs1, funct3, rd, opcode uint32) uint32 {
	return (imm&0xfff)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeS(imm, rs2, rs1, funct3, opcode uint32) uint32 {
	return (imm>>5&0x7f)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (imm&0x1f)<<7 | opcode
}

func encodeB(imm, rs2, rs1, funct3, opcode uint32) uint32 {
	b12 := (imm >> 12) & 1
	b10_5 := (imm >> 5) & 0x3f
	b4_1 := (imm >> 1) & 0xf
	b11 := (imm >> 11) & 1
	return b12<<31 | b10_5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | b4_1<<8 | b11<<7 | opcode
}

func encodeAMO(funct5 uint32, aq, rl bool, rs2, rs1, funct3, rd uint32) uint32 {
	var aqb, rlb uint32
	if aq {
		aqb = 1
	}
	if rl {
		rlb = 1
	}
	return funct5<<27 | aqb<<26 | rlb<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | 0b0101111
}

func encodeSystem(csr, rs1, funct3, rd uint32) uint32 {
	return csr<<20 | rs1<<15 | funct3<<12 | rd<<7 | 0b1110011
}

func encodeOpFP(funct5, fmtBits, rs2, rs1, rm, rd uint32) uint32 {
	f7 := funct5<<2 | fmtBits
	return f7<<25 | rs2<<20 | rs1<<15 | rm<<12 | rd<<7 | 0b1010011
}

func newTestHart(program []uint32) (*hart.Hart, bus.Bus) {
	b := bus.NewFlatBus(bus.DefaultSize)
	for i, w := range program {
		_ = b.Write(uint64(i*4), uint64(w), bus.Width32)
	}
	return hart.NewHart(b), b
}

var _ = Describe("Hart", func() {
	Describe("integer ALU", func() {
		It("executes ADDI and advances PC by 4", func() {
			h, _ := newTestHart([]uint32{
				encodeI(5, uint32(isa.X0), 0b000, uint32(isa.X1), 0b0010011), // addi x1, x0, 5
			})
			_, err := h.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Reg.ReadX(uint8(isa.X1))).To(Equal(uint64(5)))
			Expect(h.PC()).To(Equal(uint64(4)))
		})

		It("executes ADD across two registers", func() {
			h, _ := newTestHart([]uint32{
				encodeI(7, uint32(isa.X0), 0b000, uint32(isa.X1), 0b0010011),                    // addi x1, x0, 7
				encodeI(3, uint32(isa.X0), 0b000, uint32(isa.X2), 0b0010011),                    // addi x2, x0, 3
				encodeR(0, uint32(isa.X2), uint32(isa.X1), 0b000, uint32(isa.X3), 0b0110011),     // add x3, x1, x2
			})
			for i := 0; i < 3; i++ {
				_, err := h.Step()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(h.Reg.ReadX(uint8(isa.X3))).To(Equal(uint64(10)))
		})

		It("never writes through x0", func() {
			h, _ := newTestHart([]uint32{
				encodeI(99, uint32(isa.X0), 0b000, uint32(isa.X0), 0b0010011), // addi x0, x0, 99
			})
			_, err := h.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Reg.ReadX(0)).To(Equal(uint64(0)))
		})
	})

	Describe("branches", func() {
		It("takes BEQ when operands are equal", func() {
			h, _ := newTestHart([]uint32{
				encodeB(8, uint32(isa.X0), uint32(isa.X0), 0b000, 0b1100011), // beq x0, x0, +8
			})
			_, err := h.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(h.PC()).To(Equal(uint64(8)))
		})

		It("faults on a misaligned branch target", func() {
			h, _ := newTestHart([]uint32{
				encodeB(2, uint32(isa.X0), uint32(isa.X0), 0b000, 0b1100011), // beq x0, x0, +2
			})
			_, err := h.Step()
			Expect(err).To(MatchError(except.ErrInstructionAddressMisaligned))
		})
	})

	Describe("load/store", func() {
		It("round trips a word through memory", func() {
			h, _ := newTestHart([]uint32{
				encodeI(100, uint32(isa.X0), 0b000, uint32(isa.X1), 0b0010011),  // addi x1, x0, 100
				encodeI(42, uint32(isa.X0), 0b000, uint32(isa.X2), 0b0010011),   // addi x2, x0, 42
				encodeS(0, uint32(isa.X2), uint32(isa.X1), 0b010, 0b0100011),    // sw x2, 0(x1)
				encodeI(0, uint32(isa.X1), 0b010, uint32(isa.X3), 0b0000011),    // lw x3, 0(x1)
			})
			for i := 0; i < 4; i++ {
				_, err := h.Step()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(h.Reg.ReadX(uint8(isa.X3))).To(Equal(uint64(42)))
		})

		It("permits a misaligned plain load/store", func() {
			// Regression: only atomics enforce natural alignment; a plain
			// LW/SW at an address the bus accepts must not fault.
			h, _ := newTestHart([]uint32{
				encodeI(101, uint32(isa.X0), 0b000, uint32(isa.X1), 0b0010011), // addi x1, x0, 101
				encodeI(7, uint32(isa.X0), 0b000, uint32(isa.X2), 0b0010011),   // addi x2, x0, 7
				encodeS(0, uint32(isa.X2), uint32(isa.X1), 0b010, 0b0100011),   // sw x2, 0(x1)
				encodeI(0, uint32(isa.X1), 0b010, uint32(isa.X3), 0b0000011),   // lw x3, 0(x1)
			})
			for i := 0; i < 4; i++ {
				_, err := h.Step()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(h.Reg.ReadX(uint8(isa.X3))).To(Equal(uint64(7)))
		})
	})

	Describe("atomics", func() {
		It("succeeds an SC following a matching LR", func() {
			h, _ := newTestHart([]uint32{
				encodeI(0x100, uint32(isa.X0), 0b000, uint32(isa.X1), 0b0010011), // addi x1, x0, 0x100
				encodeAMO(0b00010, false, false, uint32(isa.X0), uint32(isa.X1), 0b010, uint32(isa.X2)), // lr.w x2, (x1)
				encodeI(7, uint32(isa.X0), 0b000, uint32(isa.X3), 0b0010011),    // addi x3, x0, 7
				encodeAMO(0b00011, false, false, uint32(isa.X3), uint32(isa.X1), 0b010, uint32(isa.X4)), // sc.w x4, x3, (x1)
			})
			for i := 0; i < 4; i++ {
				_, err := h.Step()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(h.Reg.ReadX(uint8(isa.X4))).To(Equal(uint64(0)))
		})

		It("clears the reservation across an intervening plain store", func() {
			// Regression for the REDESIGN fix: an ordinary store between
			// LR and SC must invalidate the reservation so the SC fails.
			h, _ := newTestHart([]uint32{
				encodeI(0x100, uint32(isa.X0), 0b000, uint32(isa.X1), 0b0010011), // addi x1, x0, 0x100
				encodeAMO(0b00010, false, false, uint32(isa.X0), uint32(isa.X1), 0b010, uint32(isa.X2)), // lr.w x2, (x1)
				encodeI(1, uint32(isa.X0), 0b000, uint32(isa.X5), 0b0010011),    // addi x5, x0, 1
				encodeS(0, uint32(isa.X5), uint32(isa.X1), 0b010, 0b0100011),    // sw x5, 0(x1)   <- clears reservation
				encodeI(7, uint32(isa.X0), 0b000, uint32(isa.X3), 0b0010011),    // addi x3, x0, 7
				encodeAMO(0b00011, false, false, uint32(isa.X3), uint32(isa.X1), 0b010, uint32(isa.X4)), // sc.w x4, x3, (x1)
			})
			for i := 0; i < 6; i++ {
				_, err := h.Step()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(h.Reg.ReadX(uint8(isa.X4))).To(Equal(uint64(1)))
		})

		It("checks AMOMAX.D/AMOMAXU.D alignment against 8, not 4", func() {
			// Regression for the REDESIGN fix: an address aligned to 4 but
			// not 8 must fault on a 64-bit AMO rather than silently proceed.
			h, _ := newTestHart([]uint32{
				encodeI(0x104, uint32(isa.X0), 0b000, uint32(isa.X1), 0b0010011), // addi x1, x0, 0x104
				encodeAMO(0b10100, false, false, uint32(isa.X2), uint32(isa.X1), 0b011, uint32(isa.X3)), // amomax.d x3, x2, (x1)
			})
			_, err := h.Step()
			Expect(err).NotTo(HaveOccurred())
			_, err = h.Step()
			Expect(err).To(MatchError(except.ErrStoreAddressMisaligned))
		})
	})

	Describe("CSR access", func() {
		It("writes and reads back a known read-write CSR", func() {
			h, _ := newTestHart([]uint32{
				encodeI(123, uint32(isa.X0), 0b000, uint32(isa.X1), 0b0010011),          // addi x1, x0, 123
				encodeSystem(isa.CSRScratch, uint32(isa.X1), 0b001, uint32(isa.X0)),     // csrrw x0, scratch, x1
				encodeSystem(isa.CSRScratch, uint32(isa.X0), 0b010, uint32(isa.X2)),     // csrrs x2, scratch, x0
			})
			for i := 0; i < 3; i++ {
				_, err := h.Step()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(h.Reg.ReadX(uint8(isa.X2))).To(Equal(uint64(123)))
		})

		It("faults writing a read-only CSR", func() {
			h, _ := newTestHart([]uint32{
				encodeI(1, uint32(isa.X0), 0b000, uint32(isa.X1), 0b0010011),
				encodeSystem(isa.CSRCycle, uint32(isa.X1), 0b001, uint32(isa.X0)), // csrrw x0, cycle, x1
			})
			_, err := h.Step()
			Expect(err).NotTo(HaveOccurred())
			_, err = h.Step()
			Expect(err).To(MatchError(except.ErrIllegalInstruction))
		})

		It("faults accessing an unknown CSR", func() {
			h, _ := newTestHart([]uint32{
				encodeSystem(0x7ff, uint32(isa.X0), 0b010, uint32(isa.X1)), // csrrs x1, 0x7ff, x0
			})
			_, err := h.Step()
			Expect(err).To(MatchError(except.ErrIllegalInstruction))
		})

		It("never faults polling a read-only CSR with CSRRS rd, csr, x0", func() {
			h, _ := newTestHart([]uint32{
				encodeSystem(isa.CSRCycle, uint32(isa.X0), 0b010, uint32(isa.X1)), // csrrs x1, cycle, x0
			})
			_, err := h.Step()
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("system instructions", func() {
		It("reports ECALL as a control transfer", func() {
			h, _ := newTestHart([]uint32{
				encodeSystem(0x000, 0, 0, 0), // ecall
			})
			_, err := h.Step()
			Expect(err).To(MatchError(except.ErrEnvironmentCall))
			Expect(except.IsControlTransfer(err)).To(BeTrue())
		})
	})

	Describe("multiply/divide", func() {
		It("computes MUL and DIV", func() {
			h, _ := newTestHart([]uint32{
				encodeI(6, uint32(isa.X0), 0b000, uint32(isa.X1), 0b0010011), // addi x1, x0, 6
				encodeI(7, uint32(isa.X0), 0b000, uint32(isa.X2), 0b0010011), // addi x2, x0, 7
				encodeR(0b0000001, uint32(isa.X2), uint32(isa.X1), 0b000, uint32(isa.X3), 0b0110011), // mul x3, x1, x2
				encodeR(0b0000001, uint32(isa.X2), uint32(isa.X1), 0b100, uint32(isa.X4), 0b0110011), // div x4, x1, x2
			})
			for i := 0; i < 4; i++ {
				_, err := h.Step()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(h.Reg.ReadX(uint8(isa.X3))).To(Equal(uint64(42)))
			Expect(h.Reg.ReadX(uint8(isa.X4))).To(Equal(uint64(0))) // 6/7 truncates to 0
		})

		It("rejects multiply/divide without the M extension", func() {
			b := bus.NewFlatBus(bus.DefaultSize)
			word := encodeR(0b0000001, uint32(isa.X2), uint32(isa.X1), 0b000, uint32(isa.X3), 0b0110011)
			_ = b.Write(0, uint64(word), bus.Width32)
			h := hart.NewHart(b, hart.WithTable(isa.NewTable(isa.RV64I)))
			_, err := h.Step()
			Expect(err).To(MatchError(except.ErrIllegalInstruction))
		})
	})

	Describe("floating point", func() {
		It("adds two double-precision values", func() {
			h, _ := newTestHart([]uint32{
				encodeOpFP(0b00000, 0b01, uint32(isa.F1), uint32(isa.F0), 0, uint32(isa.F2)), // fadd.d f2, f0, f1
			})
			h.FReg.WriteF64(uint8(isa.F0), 1.5)
			h.FReg.WriteF64(uint8(isa.F1), 2.25)
			_, err := h.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(h.FReg.ReadF64(uint8(isa.F2))).To(Equal(3.75))
		})

		It("converts a double to a signed 32-bit integer", func() {
			h, _ := newTestHart([]uint32{
				encodeOpFP(0b11000, 0b01, 0, uint32(isa.F0), 0, uint32(isa.X1)), // fcvt.w.d x1, f0
			})
			h.FReg.WriteF64(uint8(isa.F0), -7.0)
			_, err := h.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(int32(h.Reg.ReadX(uint8(isa.X1)))).To(Equal(int32(-7)))
		})

		It("moves a raw bit pattern with FMV.X.D", func() {
			h, _ := newTestHart([]uint32{
				encodeOpFP(0b11100, 0b01, 0, uint32(isa.F3), 0b000, uint32(isa.X5)), // fmv.x.d x5, f3
			})
			h.FReg.WriteF(uint8(isa.F3), 0x4010000000000000) // 4.0 as raw bits
			_, err := h.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Reg.ReadX(uint8(isa.X5))).To(Equal(uint64(0x4010000000000000)))
		})

		It("classifies positive infinity", func() {
			h, _ := newTestHart([]uint32{
				encodeOpFP(0b11100, 0b01, 0, uint32(isa.F4), 0b001, uint32(isa.X6)), // fclass.d x6, f4
			})
			h.FReg.WriteF64(uint8(isa.F4), math.Inf(1))
			_, err := h.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Reg.ReadX(uint8(isa.X6))).To(Equal(uint64(1 << 7)))
		})

		It("rejects double-precision ops without D or Q enabled", func() {
			b := bus.NewFlatBus(bus.DefaultSize)
			word := encodeOpFP(0b00000, 0b01, uint32(isa.F1), uint32(isa.F0), 0, uint32(isa.F2))
			_ = b.Write(0, uint64(word), bus.Width32)
			h := hart.NewHart(b, hart.WithTable(isa.NewTable(isa.RV64I, isa.F)))
			_, err := h.Step()
			Expect(err).To(MatchError(except.ErrIllegalInstruction))
		})
	})

	Describe("RunUntilHalt", func() {
		It("stops cleanly once the instruction budget is exhausted", func() {
			b := bus.NewFlatBus(bus.DefaultSize)
			word := encodeI(1, uint32(isa.X0), 0b000, uint32(isa.X0), 0b0010011) // addi x0, x0, 1 (a no-op)
			_ = b.Write(0, uint64(word), bus.Width32)
			_ = b.Write(4, uint64(word), bus.Width32)
			h := hart.NewHart(b, hart.WithMaxInstructions(2))
			err := h.RunUntilHalt()
			Expect(err).NotTo(HaveOccurred())
			Expect(h.InstructionCount()).To(Equal(uint64(2)))
		})
	})
})
