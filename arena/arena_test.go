package arena

import (
	"testing"
	"unsafe"
)

func TestAllocZeroed(t *testing.T) {
	a := New(4096)
	p := a.Alloc(0, 32)
	b := unsafe.Slice((*byte)(p), 32)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zero: %d", i, v)
		}
	}
}

func TestAllocAlignment(t *testing.T) {
	a := New(4096)
	for i := 0; i < 50; i++ {
		p := a.Alloc(0, 1+i)
		if uintptr(p)&7 != 0 {
			t.Fatalf("alloc %d not 8-byte aligned: %p", i, p)
		}
	}
}

func TestFreeListRecycle(t *testing.T) {
	a := New(4096)
	p1 := a.Alloc(3, 64)
	*(*byte)(p1) = 0xFF
	a.Free(3, p1)
	p2 := a.Alloc(3, 64)
	if p1 != p2 {
		t.Fatalf("expected recycled pointer %p, got %p", p1, p2)
	}
	if *(*byte)(p2) != 0 {
		t.Fatal("recycled allocation must be zeroed")
	}
}

func TestGrowsNewSlabOnOverflow(t *testing.T) {
	a := New(128)
	// exhaust the first slab
	for i := 0; i < 10; i++ {
		a.Alloc(0, 32)
	}
	if a.head == a.chain && a.head.next == nil {
		t.Fatal("expected arena to have grown beyond one slab")
	}
}

func TestDataIndependentFromClasses(t *testing.T) {
	a := New(4096)
	buf := a.Data(100)
	if len(buf) != 100 {
		t.Fatalf("expected 100 bytes, got %d", len(buf))
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatal("Data buffer must be zeroed")
		}
	}
	// class free lists must stay untouched by Data calls
	if len(a.freeLists) != 0 {
		t.Fatalf("expected no class free lists allocated, got %d", len(a.freeLists))
	}
}

func TestCloseDropsReferences(t *testing.T) {
	a := New(256)
	a.Alloc(0, 32)
	a.Close()
	if a.chain != nil || a.head != nil || a.freeLists != nil {
		t.Fatal("Close must drop all slab and free-list references")
	}
}
