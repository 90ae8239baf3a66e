package hart

import (
	"github.com/sarchlab/rvsim/bus"
	"github.com/sarchlab/rvsim/except"
	"github.com/sarchlab/rvsim/insts"
)

func widthOf(bits uint8) bus.Width {
	switch bits {
	case 8:
		return bus.Width8
	case 16:
		return bus.Width16
	case 32:
		return bus.Width32
	default:
		return bus.Width64
	}
}

func (h *Hart) execLoad(in insts.LoadType, pc uint64) error {
	addr := uint64(int64(h.Reg.ReadX(in.Rs1.Index())) + in.Imm)
	raw, err := h.bus.Read(addr, widthOf(in.Width))
	if err != nil {
		return except.NewMemFault(except.ErrLoadAccessFault, pc, addr)
	}

	var result uint64
	switch {
	case in.Signed && in.Width < 64:
		result = signExtendWidth(raw, in.Width)
	default:
		result = raw
	}
	h.Reg.WriteX(in.Rd.Index(), result)
	return nil
}

func (h *Hart) execStore(in insts.StoreType, pc uint64) error {
	addr := uint64(int64(h.Reg.ReadX(in.Rs1.Index())) + in.Imm)
	value := h.Reg.ReadX(in.Rs2.Index())
	if err := h.bus.Write(addr, value, widthOf(in.Width)); err != nil {
		return except.NewMemFault(except.ErrStoreAccessFault, pc, addr)
	}
	// A plain store must clear this HART's reservation whether or not
	// the address overlaps it. The original implementation this core
	// is modeled on left the reservation alive across ordinary stores,
	// allowing a subsequent SC to incorrectly succeed.
	h.reservationValid = false
	return nil
}

// signExtendWidth sign-extends the low width bits of raw to 64 bits.
func signExtendWidth(raw uint64, width uint8) uint64 {
	shift := 64 - width
	return uint64(int64(raw<<shift) >> shift)
}
