// Package radix implements the interior child-dispatch nodes and the
// pre-materialized boot cascade (spec §4.4).
//
// Width deviates from the literal spec text: see SPEC_FULL.md's "Radix/Boot
// fan-out width" note. Both the boot table and every interior Radix node are
// indexed by the *full* key byte (0-255), not its low 7 bits, so descent is
// lossless over arbitrary binary keys — required for the uniqueness
// invariant and for round-tripping keys with bytes >= 0x80 through the
// cursor. A key shorter than the bytes a level needs contributes 0.
//
// Grounded on constants.go's fixed-size indexed probe arrays, generalized
// from a flat lookup table to a tagged-child dispatch node.
package radix

import (
	"unsafe"

	"hattriego/arena"
	"hattriego/nodeclass"
	"hattriego/slot"
)

// Width is the fan-out of one interior Radix node and of one boot level.
const Width = 256

const wordSize = int(unsafe.Sizeof(slot.Word(0)))

// Node is one interior 256-way Radix node, created only when a Bucket
// bursts (spec §4.5) and never grown, shrunk, or promoted afterward.
type Node struct {
	words []slot.Word
}

// NewNode allocates a fresh Radix node with all 256 slots empty.
func NewNode(a *arena.Arena) *Node {
	buf := a.Alloc(nodeclass.Radix, Width*wordSize)
	return &Node{words: unsafe.Slice((*slot.Word)(buf), Width)}
}

// FromAddr reconstructs a Node wrapper around a previously allocated
// buffer at addr. Every interior node has exactly Width slots.
func FromAddr(addr unsafe.Pointer) *Node {
	return &Node{words: unsafe.Slice((*slot.Word)(addr), Width)}
}

// Addr returns this node's base address, for packing into a slot.Word.
func (n *Node) Addr() unsafe.Pointer { return unsafe.Pointer(&n.words[0]) }

// At returns the slot.Word at child index i.
func (n *Node) At(i int) slot.Word { return n.words[i] }

// Set stores w at child index i.
func (n *Node) Set(i int, w slot.Word) { n.words[i] = w }

// Free returns this node's backing allocation to the arena's Radix free
// list. The caller is responsible for first freeing every non-empty child.
func (n *Node) Free(a *arena.Arena) {
	a.Free(nodeclass.Radix, unsafe.Pointer(&n.words[0]))
}

// Boot is the pre-materialized root cascade (spec §4.4): Width^levels flat
// slots computed once at Open and never resized. Only levels == 0 is a
// special case handled by the caller (hattrie.Open pre-seeds the single
// boot slot with an empty Bucket rather than leaving it Empty, since with
// no boot discrimination at all a bare Array there would need to burst
// almost immediately).
type Boot struct {
	words  []slot.Word
	levels int
}

// Size returns Width^levels, the slot count of a boot table with the given
// level count.
func Size(levels int) int {
	n := 1
	for i := 0; i < levels; i++ {
		n *= Width
	}
	return n
}

// NewBoot allocates a fresh boot table for levels boot levels, all slots
// empty.
func NewBoot(a *arena.Arena, levels int) *Boot {
	n := Size(levels)
	buf := a.Alloc(nodeclass.Boot, n*wordSize)
	return &Boot{words: unsafe.Slice((*slot.Word)(buf), n), levels: levels}
}

// Levels returns the configured boot level count L.
func (b *Boot) Levels() int { return b.levels }

// Index computes the boot slot for key: the big-endian concatenation of
// the first Levels() bytes of key, each contributing a full byte (0 for any
// position past the end of key).
func (b *Boot) Index(key []byte) int {
	idx := 0
	for i := 0; i < b.levels; i++ {
		var by byte
		if i < len(key) {
			by = key[i]
		}
		idx = idx<<8 | int(by)
	}
	return idx
}

// At returns the slot.Word at boot index i.
func (b *Boot) At(i int) slot.Word { return b.words[i] }

// Set stores w at boot index i.
func (b *Boot) Set(i int, w slot.Word) { b.words[i] = w }

// Free returns this boot table's backing allocation to the arena's Boot
// free list. The caller is responsible for first freeing every non-empty
// slot. Nothing in this module calls it: Dict.Close releases the boot
// table together with the rest of the arena.
func (b *Boot) Free(a *arena.Arena) {
	a.Free(nodeclass.Boot, unsafe.Pointer(&b.words[0]))
}
