package isa

// Base selects the integer base ISA: RV32I or RV64I.
type Base uint8

// Supported base ISAs.
const (
	RV32I Base = iota
	RV64I
)

// Extension is a bit flag for one optional standard extension.
type Extension uint16

// Supported optional extensions.
const (
	M Extension = 1 << iota // integer multiply/divide
	A                       // atomics (word and doubleword)
	F                       // single-precision float
	D                       // double-precision float
	Q                       // quad, modeled at double precision
	Zicsr                   // control/status register access
	Zifencei                // instruction-fetch fence
)

// All is the set of every extension this core can model.
const All = M | A | F | D | Q | Zicsr | Zifencei

// Table describes which base and extensions are enabled for a HART. It
// is read-only after construction and consulted by the decoder to
// classify or reject encodings.
type Table struct {
	base       Base
	extensions Extension
}

// NewTable builds an extension table from a base and a set of
// extensions. Extensions may be OR'd together, e.g. NewTable(RV64I, M, A).
func NewTable(base Base, extensions ...Extension) Table {
	var set Extension
	for _, e := range extensions {
		set |= e
	}
	return Table{base: base, extensions: set}
}

// Default returns RV64I with every modeled extension enabled.
func Default() Table {
	return Table{base: RV64I, extensions: All}
}

// Base returns the configured base ISA.
func (t Table) Base() Base {
	return t.base
}

// Has reports whether extension e is enabled.
func (t Table) Has(e Extension) bool {
	return t.extensions&e != 0
}

// Is64 reports whether the base is RV64I (as opposed to RV32I).
func (t Table) Is64() bool {
	return t.base == RV64I
}
