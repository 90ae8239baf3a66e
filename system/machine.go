package system

import (
	"sync"

	"github.com/sarchlab/rvsim/bus"
	"github.com/sarchlab/rvsim/except"
	"github.com/sarchlab/rvsim/hart"
	"github.com/sarchlab/rvsim/isa"
	"github.com/sarchlab/rvsim/loader"
)

// sharedBus serializes access to an inner bus.Bus across concurrently
// running HARTs with a single mutex, and notifies onStore after every
// successful write so a Machine can enforce the A-extension's
// machine-wide reservation-invalidation rule.
type sharedBus struct {
	mu      sync.Mutex
	inner   bus.Bus
	onStore func(addr uint64, width bus.Width)
}

func (s *sharedBus) Read(addr uint64, width bus.Width) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Read(addr, width)
}

func (s *sharedBus) Write(addr uint64, value uint64, width bus.Width) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.inner.Write(addr, value, width); err != nil {
		return err
	}
	if s.onStore != nil {
		s.onStore(addr, width)
	}
	return nil
}

func (s *sharedBus) Size() uint64 {
	return s.inner.Size()
}

// ReadFetch forwards to the inner bus's ReadFetch when it implements
// one (e.g. bus.Probe), falling back to a plain Read otherwise.
func (s *sharedBus) ReadFetch(addr uint64, width bus.Width) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.inner.(interface {
		ReadFetch(uint64, bus.Width) (uint64, error)
	}); ok {
		return f.ReadFetch(addr, width)
	}
	return s.inner.Read(addr, width)
}

// Machine composes one shared bus.Bus with the HARTs that operate on
// it, round-robin scheduling one Step per HART per round and
// enforcing that any HART's store invalidates every other HART's
// LR/SC reservation.
type Machine struct {
	config *BootConfig
	flat   *bus.FlatBus
	shared *sharedBus
	harts  []*hart.Hart
	halted []bool
	errs   []error
}

// NewMachine constructs a Machine per config, with config.HartCount
// HARTs sharing a config.MemorySize bus.FlatBus (optionally wrapped in
// a bus.Probe when config.EnableProbe is set).
func NewMachine(config *BootConfig) (*Machine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	flat := bus.NewFlatBus(config.MemorySize)
	var inner bus.Bus = flat
	if config.EnableProbe {
		inner = bus.NewProbe(flat, bus.DefaultProbeConfig())
	}

	m := &Machine{
		config: config,
		flat:   flat,
		halted: make([]bool, config.HartCount),
		errs:   make([]error, config.HartCount),
	}
	m.shared = &sharedBus{inner: inner, onStore: m.invalidateAll}

	for i := 0; i < config.HartCount; i++ {
		stackTop := loader.DefaultStackTop - uint64(i)*config.StackSize
		m.harts = append(m.harts, hart.NewHart(
			m.shared,
			hart.WithStackPointer(stackTop),
			hart.WithMaxInstructions(config.MaxInstructions),
		))
	}
	return m, nil
}

func (m *Machine) invalidateAll(addr uint64, width bus.Width) {
	for _, h := range m.harts {
		h.InvalidateReservation()
	}
}

// Harts returns the machine's HARTs in creation order.
func (m *Machine) Harts() []*hart.Hart {
	return m.harts
}

// HaltError returns the error (if any) that stopped HART i: a genuine
// fault, a control transfer (ECALL/EBREAK — check with
// except.IsControlTransfer), or nil if it's still running or stopped
// because its instruction budget ran out.
func (m *Machine) HaltError(i int) error {
	return m.errs[i]
}

// LoadProgram places prog's segments onto the shared bus and sets
// HART 0's entry point and stack pointer from it. Additional HARTs (in
// a multi-HART configuration) start at the same entry point, each with
// its own stack slice.
func (m *Machine) LoadProgram(prog *loader.Program) error {
	if err := prog.PlaceOn(m.flat); err != nil {
		return err
	}
	for i, h := range m.harts {
		h.Reg.PC = prog.EntryPoint
		h.Reg.X[isa.X2] = prog.InitialSP - uint64(i)*m.config.StackSize
	}
	return nil
}

// Run round-robin steps every HART once per round until every HART has
// halted (faulted, hit a control transfer, or exhausted its
// instruction budget).
func (m *Machine) Run() {
	for {
		progressed := false
		for i, h := range m.harts {
			if m.halted[i] {
				continue
			}
			_, err := h.Step()
			if err != nil {
				m.halted[i] = true
				m.errs[i] = err
				continue
			}
			progressed = true
			if m.config.MaxInstructions != 0 && h.InstructionCount() >= m.config.MaxInstructions {
				m.halted[i] = true
			}
		}
		if !progressed {
			return
		}
	}
}

// AllHalted reports whether every HART has stopped.
func (m *Machine) AllHalted() bool {
	for _, halted := range m.halted {
		if !halted {
			return false
		}
	}
	return true
}

// AnyFault reports the first non-control-transfer fault observed
// across every HART, or nil if none occurred.
func (m *Machine) AnyFault() error {
	for _, err := range m.errs {
		if err != nil && !except.IsControlTransfer(err) {
			return err
		}
	}
	return nil
}
