package isa

import "testing"

func TestTableHas(t *testing.T) {
	tbl := NewTable(RV64I, M, A)
	if !tbl.Has(M) {
		t.Error("expected M enabled")
	}
	if !tbl.Has(A) {
		t.Error("expected A enabled")
	}
	if tbl.Has(F) {
		t.Error("expected F disabled")
	}
	if !tbl.Is64() {
		t.Error("expected RV64I")
	}
}

func TestDefaultEnablesEverything(t *testing.T) {
	tbl := Default()
	for _, e := range []Extension{M, A, F, D, Q, Zicsr, Zifencei} {
		if !tbl.Has(e) {
			t.Errorf("Default() missing extension %d", e)
		}
	}
}

func TestNewTableRV32(t *testing.T) {
	tbl := NewTable(RV32I)
	if tbl.Is64() {
		t.Error("expected RV32I, got Is64()==true")
	}
}
