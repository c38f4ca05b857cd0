package pail

import (
	"testing"

	"hattriego/arena"
	"hattriego/slot"
)

func TestNewAllSlotsEmpty(t *testing.T) {
	a := arena.New(0)
	p := New(a, 127)
	if p.Len() != 127 {
		t.Fatalf("Len() = %d, want 127", p.Len())
	}
	for i := 0; i < p.Len(); i++ {
		if !p.At(i).IsEmpty() {
			t.Fatalf("slot %d not empty on fresh Pail", i)
		}
	}
}

func TestSetGet(t *testing.T) {
	a := arena.New(0)
	p := New(a, 127)
	w := slot.Make(nil, slot.Array)
	p.Set(5, w)
	if p.At(5) != w {
		t.Fatal("round trip through Set/At failed")
	}
	if !p.At(6).IsEmpty() {
		t.Fatal("unrelated slot mutated")
	}
}

func TestIndexDeterministic(t *testing.T) {
	a := []byte("hello")
	i1 := Index(a, 127)
	i2 := Index(a, 127)
	if i1 != i2 {
		t.Fatal("Index is not deterministic for the same input")
	}
	if i1 < 0 || i1 >= 127 {
		t.Fatalf("Index out of range: %d", i1)
	}
}
