package insts_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/isa"
)

func TestInsts(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Insts Suite")
}

var _ = Describe("Decode", func() {
	full := isa.Default()
	base := isa.NewTable(isa.RV64I)

	Describe("integer register-immediate", func() {
		It("decodes ADDI x1, x2, 42", func() {
			// imm=42 rs1=2 funct3=000 rd=1 opcode=0010011
			word := uint32(42)<<20 | 2<<15 | 0<<12 | 1<<7 | 0b0010011
			inst := insts.Decode(word, full)
			it, ok := inst.(insts.IType)
			Expect(ok).To(BeTrue())
			Expect(it.Op).To(Equal(insts.OpADD))
			Expect(it.Rd).To(Equal(isa.X1))
			Expect(it.Rs1).To(Equal(isa.X2))
			Expect(it.Imm).To(Equal(int64(42)))
		})

		It("sign-extends a negative ADDI immediate", func() {
			word := uint32(0xfff)<<20 | 1<<15 | 0<<12 | 1<<7 | 0b0010011
			inst := insts.Decode(word, full).(insts.IType)
			Expect(inst.Imm).To(Equal(int64(-1)))
		})

		It("rejects a malformed shift-immediate with a stray funct6 bit", func() {
			// SLLI with a funct6 bit set outside the arith selector.
			word := uint32(0b0000010)<<25 | 5<<20 | 1<<15 | 0b001<<12 | 1<<7 | 0b0010011
			inst := insts.Decode(word, full)
			Expect(inst).To(Equal(insts.Undefined{Raw: word}))
		})

		It("decodes SLLI x1, x2, 5", func() {
			word := uint32(0)<<25 | 5<<20 | 2<<15 | 0b001<<12 | 1<<7 | 0b0010011
			inst := insts.Decode(word, full).(insts.IType)
			Expect(inst.Op).To(Equal(insts.OpSLL))
			Expect(inst.Shamt).To(Equal(uint8(5)))
		})

		It("decodes SRAI x1, x2, 37 using the RV64 6-bit shamt", func() {
			// funct7 bit 0 (instruction bit 25) extends shamt to 37; funct7
			// bit 5 (instruction bit 30) selects arithmetic shift.
			word := uint32(0b0100001)<<25 | 5<<20 | 2<<15 | 0b101<<12 | 1<<7 | 0b0010011
			inst := insts.Decode(word, full).(insts.IType)
			Expect(inst.Op).To(Equal(insts.OpSRA))
			Expect(inst.Shamt).To(Equal(uint8(37)))
		})

		It("decodes SRLI x1, x2, 5 on RV32I with a 5-bit shamt", func() {
			word := uint32(0)<<25 | 5<<20 | 2<<15 | 0b101<<12 | 1<<7 | 0b0010011
			inst := insts.Decode(word, isa.NewTable(isa.RV32I, isa.All)).(insts.IType)
			Expect(inst.Op).To(Equal(insts.OpSRL))
			Expect(inst.Shamt).To(Equal(uint8(5)))
		})

		It("decodes SRAIW x1, x2, 5 with a 5-bit shamt on RV64", func() {
			word := uint32(0b0100000)<<25 | 5<<20 | 2<<15 | 0b101<<12 | 1<<7 | 0b0011011
			inst := insts.Decode(word, full).(insts.IType)
			Expect(inst.Op).To(Equal(insts.OpSRA))
			Expect(inst.Word32).To(BeTrue())
			Expect(inst.Shamt).To(Equal(uint8(5)))
		})

		It("rejects SRAIW with a stray instruction-bit-25 set", func() {
			// W-forms always use a 5-bit shamt; bit 25 must be zero.
			word := uint32(0b0100001)<<25 | 5<<20 | 2<<15 | 0b101<<12 | 1<<7 | 0b0011011
			inst := insts.Decode(word, full)
			Expect(inst).To(Equal(insts.Undefined{Raw: word}))
		})
	})

	Describe("integer register-register", func() {
		It("decodes ADD x3, x1, x2", func() {
			word := uint32(0)<<25 | 2<<20 | 1<<15 | 0<<12 | 3<<7 | 0b0110011
			inst := insts.Decode(word, full).(insts.RType)
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Rd).To(Equal(isa.X3))
		})

		It("decodes MULHU only when M is enabled", func() {
			word := uint32(0b0000001)<<25 | 2<<20 | 1<<15 | 0b011<<12 | 3<<7 | 0b0110011
			Expect(insts.Decode(word, base)).To(Equal(insts.Undefined{Raw: word}))
			inst := insts.Decode(word, full).(insts.RType)
			Expect(inst.Op).To(Equal(insts.OpMULHU))
		})

		It("rejects OP-32 forms on RV32I", func() {
			word := uint32(0)<<25 | 2<<20 | 1<<15 | 0<<12 | 3<<7 | 0b0111011
			inst := insts.Decode(word, isa.NewTable(isa.RV32I, isa.All))
			Expect(inst).To(Equal(insts.Undefined{Raw: word}))
		})
	})

	Describe("loads and stores", func() {
		It("decodes LW x5, 8(x1)", func() {
			word := uint32(8)<<20 | 1<<15 | 0b010<<12 | 5<<7 | 0b0000011
			inst := insts.Decode(word, full).(insts.LoadType)
			Expect(inst.Width).To(Equal(uint8(32)))
			Expect(inst.Signed).To(BeTrue())
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		It("decodes SD x2, -8(x3)", func() {
			imm := uint32(int32(-8)) & 0xfff
			hi := (imm >> 5) & 0x7f
			lo := imm & 0x1f
			word := hi<<25 | 2<<20 | 3<<15 | 0b011<<12 | lo<<7 | 0b0100011
			inst := insts.Decode(word, full).(insts.StoreType)
			Expect(inst.Width).To(Equal(uint8(64)))
			Expect(inst.Imm).To(Equal(int64(-8)))
		})
	})

	Describe("control transfer", func() {
		It("decodes JAL with a forward offset", func() {
			// imm[10:1] occupies word bits [30:21]; imm=16 sets imm bit 4,
			// which is bit 3 of that field, i.e. word bit 24.
			word := uint32(1)<<24 | 1<<7 | 0b1101111
			inst := insts.Decode(word, full).(insts.JALType)
			Expect(inst.Imm).To(Equal(int64(16)))
		})

		It("decodes BEQ", func() {
			word := uint32(0)<<25 | 2<<20 | 1<<15 | 0b000<<12 | 0<<7 | 0b1100011
			inst := insts.Decode(word, full).(insts.BranchType)
			Expect(inst.Cond).To(Equal(insts.CondEQ))
		})
	})

	Describe("system and CSR", func() {
		It("decodes ECALL", func() {
			word := uint32(0b1110011)
			inst := insts.Decode(word, full).(insts.SystemType)
			Expect(inst.Kind).To(Equal(insts.SystemECALL))
		})

		It("decodes CSRRW and rejects it without Zicsr", func() {
			word := uint32(0x140)<<20 | 1<<15 | 0b001<<12 | 2<<7 | 0b1110011
			Expect(insts.Decode(word, base)).To(Equal(insts.Undefined{Raw: word}))
			inst := insts.Decode(word, full).(insts.CSRType)
			Expect(inst.CSR).To(Equal(uint32(0x140)))
		})
	})

	Describe("atomics", func() {
		It("decodes AMOADD.W", func() {
			word := uint32(0b00000)<<27 | 0<<25 | 0<<26 | 2<<20 | 1<<15 | 0b010<<12 | 3<<7 | 0b0101111
			inst := insts.Decode(word, full).(insts.AMOType)
			Expect(inst.Op).To(Equal(insts.AMOADD))
			Expect(inst.Width).To(Equal(uint8(32)))
		})

		It("rejects atomics without A", func() {
			word := uint32(0b00000)<<27 | 2<<20 | 1<<15 | 0b010<<12 | 3<<7 | 0b0101111
			noA := isa.NewTable(isa.RV64I, isa.M)
			Expect(insts.Decode(word, noA)).To(Equal(insts.Undefined{Raw: word}))
		})
	})

	Describe("floating point", func() {
		It("decodes FADD.D", func() {
			word := uint32(0b0000001)<<25 | 2<<20 | 1<<15 | 0b111<<12 | 3<<7 | 0b1010011
			inst := insts.Decode(word, full).(insts.FRType)
			Expect(inst.Op).To(Equal(insts.FOpADD))
			Expect(inst.Double).To(BeTrue())
		})

		It("decodes FMADD.S", func() {
			rs3 := uint32(4)
			word := rs3<<27 | 0<<25 | 2<<20 | 1<<15 | 0<<12 | 3<<7 | 0b1000011
			inst := insts.Decode(word, full).(insts.FMAType)
			Expect(inst.Op).To(Equal(insts.FMAMADD))
			Expect(inst.Double).To(BeFalse())
		})
	})

	Describe("unrecognized encodings", func() {
		It("returns Undefined for a reserved opcode", func() {
			word := uint32(0b1111111)
			Expect(insts.Decode(word, full)).To(Equal(insts.Undefined{Raw: word}))
		})
	})
})
