// Package bucket implements the large hash-of-(Array|Pail) container (spec
// §4.3 Bucket): B fixed slots, each either empty or the tagged address of
// one Array(k) or Pail child, plus a live-key counter compared against
// Bucket_max to decide when the whole bucket bursts into a Radix node.
//
// Grounded on pairidx's two-level bucket -> cluster table shape ("one hash,
// reused at every level" — the same residue hash that chose this bucket's
// slot is reused unchanged to pick the nested Pail's slot, spec §4.3).
package bucket

import (
	"unsafe"

	"hattriego/arena"
	"hattriego/nodeclass"
	"hattriego/residuehash"
	"hattriego/slot"
)

const wordSize = int(unsafe.Sizeof(slot.Word(0)))

// headerWords is the number of leading slot.Word-sized words reserved for
// the live-key counter, so the slot array stays word-aligned right after it.
const headerWords = 1

// Bucket is a thin wrapper over an arena-owned header + array of B
// slot.Words.
type Bucket struct {
	header *uintptr // live-key counter
	words  []slot.Word
}

// New allocates a fresh Bucket with b empty slots and a zeroed counter.
func New(a *arena.Arena, b int) *Bucket {
	buf := a.Alloc(nodeclass.Bucket, (b+headerWords)*wordSize)
	header := (*uintptr)(buf)
	words := unsafe.Slice((*slot.Word)(unsafe.Add(buf, wordSize*headerWords)), b)
	return &Bucket{header: header, words: words}
}

// FromAddr reconstructs a Bucket wrapper around a previously allocated
// buffer at addr, given the dictionary's configured slot count b.
func FromAddr(addr unsafe.Pointer, b int) *Bucket {
	header := (*uintptr)(addr)
	words := unsafe.Slice((*slot.Word)(unsafe.Add(addr, wordSize*headerWords)), b)
	return &Bucket{header: header, words: words}
}

// Addr returns this bucket's base address, for packing into a slot.Word.
func (bk *Bucket) Addr() unsafe.Pointer { return unsafe.Pointer(bk.header) }

// Len returns the configured slot count B.
func (bk *Bucket) Len() int { return len(bk.words) }

// LiveCount returns the number of entries currently reachable through this
// bucket's subtree (spec §4.3: compared against Bucket_max to trigger a
// burst into a Radix node).
func (bk *Bucket) LiveCount() int { return int(*bk.header) }

// IncLiveCount increments the live-key counter by one, exactly once per
// successful insertion anywhere under this bucket (spec §9: "the Bucket's
// live-key counter increments exactly once per successful insert").
func (bk *Bucket) IncLiveCount() { *bk.header++ }

// AddLiveCount bumps the live-key counter by n in one step. Nothing in
// this module calls it: a Bucket built by a burst is seeded one entry at a
// time through IncLiveCount.
func (bk *Bucket) AddLiveCount(n int) { *bk.header += uintptr(n) }

// Index returns the slot index for residue under a bucket of b slots.
//
//go:nosplit
//go:inline
func Index(residue []byte, b int) int {
	return int(residuehash.Hash(residue) % uint32(b))
}

// At returns the slot.Word stored at slot i.
func (bk *Bucket) At(i int) slot.Word { return bk.words[i] }

// Set stores w at slot i.
func (bk *Bucket) Set(i int, w slot.Word) { bk.words[i] = w }

// Free returns this Bucket's backing allocation to the arena's Bucket free
// list. The caller is responsible for first freeing every non-empty child
// slot.
func (bk *Bucket) Free(a *arena.Arena) {
	a.Free(nodeclass.Bucket, unsafe.Pointer(bk.header))
}
