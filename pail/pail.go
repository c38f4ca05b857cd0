// Package pail implements the small hash-of-arrays container (spec §4.3
// Pail): P fixed slots, each either empty or the tagged address of one
// Array(k) leaf holding every residue whose hash falls in that slot.
// Collisions within a slot are resolved inside that slot's single Array,
// not by probing neighboring slots — unlike a Robin-Hood table, a full
// slot's Array simply reports "doesn't fit" and the caller promotes or
// bursts it, same as any other Array.
//
// Grounded on localidx's fixed-capacity-table construction (fixed-size
// slice sized once at creation, no resizing), but not its open-addressing
// probe sequence: the residue hash (residuehash.Hash) picks exactly one
// slot, full stop.
package pail

import (
	"unsafe"

	"hattriego/arena"
	"hattriego/nodeclass"
	"hattriego/residuehash"
	"hattriego/slot"
)

const wordSize = int(unsafe.Sizeof(slot.Word(0)))

// Pail is a thin wrapper over an arena-owned array of P slot.Words.
type Pail struct {
	words []slot.Word
}

// New allocates a fresh Pail with p empty slots.
func New(a *arena.Arena, p int) *Pail {
	buf := a.Alloc(nodeclass.Pail, p*wordSize)
	return &Pail{words: unsafe.Slice((*slot.Word)(buf), p)}
}

// FromAddr reconstructs a Pail wrapper around a previously allocated
// buffer at addr, given the dictionary's configured slot count p.
func FromAddr(addr unsafe.Pointer, p int) *Pail {
	return &Pail{words: unsafe.Slice((*slot.Word)(addr), p)}
}

// Addr returns this pail's base address, for packing into a slot.Word.
func (pl *Pail) Addr() unsafe.Pointer { return unsafe.Pointer(&pl.words[0]) }

// Len returns the configured slot count P.
func (pl *Pail) Len() int { return len(pl.words) }

// Index returns the slot index for residue under a pail of p slots.
//
//go:nosplit
//go:inline
func Index(residue []byte, p int) int {
	return int(residuehash.Hash(residue) % uint32(p))
}

// At returns the slot.Word stored at slot i.
func (pl *Pail) At(i int) slot.Word { return pl.words[i] }

// Set stores w at slot i.
func (pl *Pail) Set(i int, w slot.Word) { pl.words[i] = w }

// Free returns this Pail's backing allocation to the arena's Pail free
// list. The caller is responsible for first freeing every non-empty
// child slot.
func (pl *Pail) Free(a *arena.Arena) {
	a.Free(nodeclass.Pail, unsafe.Pointer(&pl.words[0]))
}
