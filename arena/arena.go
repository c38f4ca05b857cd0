// Package arena implements the slab allocator backing every node in the
// hybrid burst trie (spec §4.1). All node allocations — Radix, Bucket,
// Pail, Array(k), and ad-hoc "data" blocks for external callers — are
// served from large slabs and, for recycled node classes, from a
// per-size-class free list.
//
// Grounded on bucketqueue.go's arena-of-fixed-nodes-plus-intrusive-free-list
// idiom (Borrow/Return walk a singly linked free chain stored in the first
// word of a dead node); generalized here from one node type to N
// independently sized classes, and from a fixed array to a growable chain
// of slabs.
package arena

import (
	"unsafe"

	"hattriego/logx"
)

// DefaultSlabSize is the default backing slab size (spec §4.1).
const DefaultSlabSize = 64 << 10

// align is the alignment (in bytes) every allocation is rounded up to, so
// the 3 tag bits of slot.Word never collide with a node's base address.
const align = 8

// Class identifies a recycling pool. A dictionary has a fixed number of
// classes for its whole lifetime: one for Radix nodes, one for the boot
// table, one for Bucket nodes (sized by the configured B), one for Pail
// nodes (sized by P), and one per entry of the configured Array
// size-class table.
type Class int

// slab is one fixed-size backing allocation; allocation bumps cur until a
// request would overflow, at which point a new slab is linked in.
type slab struct {
	buf  []byte
	cur  int
	next *slab
}

// Arena owns every live node of one dictionary. There are no back-pointers
// from child to parent; the arena's slab chain is the sole owner.
type Arena struct {
	slabSize  int
	head      *slab // most recently allocated slab (bump target)
	chain     *slab // oldest slab, kept only so Close can walk + drop refs
	freeLists []unsafe.Pointer
}

// New returns an arena with one slab of slabSize bytes (DefaultSlabSize if
// slabSize <= 0).
func New(slabSize int) *Arena {
	if slabSize <= 0 {
		slabSize = DefaultSlabSize
	}
	a := &Arena{slabSize: slabSize}
	a.growSlab(slabSize)
	return a
}

func (a *Arena) growSlab(min int) {
	sz := a.slabSize
	if min > sz {
		sz = roundUp(min, align)
	}
	defer func() {
		if r := recover(); r != nil {
			logx.Warn("arena: slab allocation failed", nil)
			panic("arena: out of memory allocating slab")
		}
	}()
	s := &slab{buf: make([]byte, sz)}
	if a.head == nil {
		a.chain = s
	} else {
		a.head.next = s
	}
	a.head = s
}

//go:inline
func roundUp(n, to int) int {
	return (n + to - 1) &^ (to - 1)
}

// ensureClass grows freeLists so index class is valid.
func (a *Arena) ensureClass(class Class) {
	if int(class) < len(a.freeLists) {
		return
	}
	grown := make([]unsafe.Pointer, class+1)
	copy(grown, a.freeLists)
	a.freeLists = grown
}

// Alloc returns a zeroed, 8-byte-aligned region of size bytes, tagged with
// class for later recycling. It serves the class free list first, then
// bumps the current slab, allocating a fresh slab if the current one can't
// fit size.
func (a *Arena) Alloc(class Class, size int) unsafe.Pointer {
	a.ensureClass(class)
	size = roundUp(size, align)

	if head := a.freeLists[class]; head != nil {
		next := *(*unsafe.Pointer)(head)
		a.freeLists[class] = next
		zero(head, size)
		return head
	}

	return a.bump(size)
}

// bump hands out size bytes from the current slab's cursor, growing a new
// slab when the request would overflow it. Shared by Alloc's free-list
// miss path and by Data, which never touches the class free lists.
func (a *Arena) bump(size int) unsafe.Pointer {
	if a.head.cur+size > len(a.head.buf) {
		want := size
		if want < a.slabSize {
			want = a.slabSize
		}
		a.growSlab(want)
	}
	p := unsafe.Pointer(&a.head.buf[a.head.cur])
	a.head.cur += size
	return p
}

// Free returns ptr (previously returned by Alloc with the same class and a
// size of at least 8 bytes) to the class free list. The first word of ptr
// is overwritten with the previous free-list head.
func (a *Arena) Free(class Class, ptr unsafe.Pointer) {
	a.ensureClass(class)
	*(*unsafe.Pointer)(ptr) = a.freeLists[class]
	a.freeLists[class] = ptr
}

// Data allocates a zeroed, arena-owned buffer of n bytes for external use
// (spec §6 "data" operation) — e.g. a cursor's key-reconstruction scratch
// buffer, or caller-managed aux storage outside the fixed aux width. Data
// blocks are bump-allocated directly and never recycled; they live until
// Close, and never occupy a class free-list slot.
func (a *Arena) Data(n int) []byte {
	if n <= 0 {
		return nil
	}
	p := a.bump(roundUp(n, align))
	return unsafe.Slice((*byte)(p), n)
}

func zero(p unsafe.Pointer, n int) {
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = 0
	}
}

// Close severs the arena's references to its slab chain so the garbage
// collector can reclaim them; mirrors the reference implementation's
// "walk the slab chain and release each slab" without a manual free() —
// Go has no munmap-equivalent for a make()'d slice, so release here means
// making every slab unreachable.
func (a *Arena) Close() {
	for s := a.chain; s != nil; {
		next := s.next
		s.buf = nil
		s.next = nil
		s = next
	}
	a.chain = nil
	a.head = nil
	a.freeLists = nil
}
