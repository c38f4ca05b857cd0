// Package arrayleaf implements the Array(k) leaf container (spec §4.3
// Array): a fixed-capacity allocation holding forward-growing,
// variable-length-prefixed key residues and a backward-growing region of
// fixed-width aux slots, paired by reverse index.
//
// Physical layout inside one allocation (spec §3 "Array(k) physical
// layout"):
//
//	[ header (8B) ][ key region, growing forward -->  ...  <-- backward, aux region ]
//
// Grounded on pairidx/map.go's cluster{bitmap; slots[16]} packed-field
// layout, adapted from a fixed-slot array to this split forward/backward
// growth; b2s (utils.go) is reused verbatim for zero-copy residue compare.
package arrayleaf

import (
	"unsafe"

	"hattriego/arena"
	"hattriego/nodeclass"
	"hattriego/sizeclass"
)

const headerSize = 8

// header field offsets within the allocation.
const (
	offClassIdx = 0 // uint8
	offCount    = 1 // uint8
	offKeyUsed  = 2 // uint16, little-endian
)

// Array is a thin wrapper over an arena-owned byte buffer.
type Array struct {
	buf []byte
}

// Entry is one flattened (residue, aux) pair, used by the cursor to
// materialize a leaf for sorting (spec §4.6).
type Entry struct {
	Residue []byte
	Aux     []byte
}

//go:nosplit
//go:inline
func b2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// New allocates a fresh, empty Array at size-class index classIdx.
func New(a *arena.Arena, table *sizeclass.Table, classIdx int) *Array {
	p := a.Alloc(nodeclass.Array(classIdx), table.Bytes(classIdx))
	buf := unsafe.Slice((*byte)(p), table.Bytes(classIdx))
	buf[offClassIdx] = byte(classIdx)
	return &Array{buf: buf}
}

// FromAddr reconstructs an Array wrapper around a previously allocated
// buffer at addr. The allocation's size-class index is stored in its own
// header byte, so only the address and the dictionary's size-class table
// (needed to recover the buffer length) are required — this is how the
// engine turns a bare slot.Word address back into a usable Array.
func FromAddr(addr unsafe.Pointer, table *sizeclass.Table) *Array {
	classIdx := int(*(*byte)(addr))
	n := table.Bytes(classIdx)
	return &Array{buf: unsafe.Slice((*byte)(addr), n)}
}

// Addr returns this array's base address, for packing into a slot.Word.
func (a *Array) Addr() unsafe.Pointer { return unsafe.Pointer(&a.buf[0]) }

// ClassIdx returns the size-class index of this allocation.
func (a *Array) ClassIdx() int { return int(a.buf[offClassIdx]) }

// Count returns the number of (residue, aux) entries currently stored.
func (a *Array) Count() int { return int(a.buf[offCount]) }

func (a *Array) keyUsed() int {
	return int(a.buf[offKeyUsed]) | int(a.buf[offKeyUsed+1])<<8
}

func (a *Array) setKeyUsed(n int) {
	a.buf[offKeyUsed] = byte(n)
	a.buf[offKeyUsed+1] = byte(n >> 8)
}

// encodeLen writes the 1- or 2-byte length prefix for n (spec §3: one byte
// if n < 128, else two bytes little-endian-7-bit with the high bit set on
// the first) into dst, returning the number of bytes written.
func encodeLen(dst []byte, n int) int {
	if n < 128 {
		dst[0] = byte(n)
		return 1
	}
	dst[0] = 0x80 | byte(n&0x7F)
	dst[1] = byte(n >> 7)
	return 2
}

// decodeLen reads a length prefix starting at src[0], returning the decoded
// length and the number of prefix bytes consumed.
func decodeLen(src []byte) (n, consumed int) {
	if src[0]&0x80 == 0 {
		return int(src[0]), 1
	}
	return int(src[0]&0x7F) | int(src[1])<<7, 2
}

func prefixLen(n int) int {
	if n < 128 {
		return 1
	}
	return 2
}

// auxAt returns the byte slice for the i-th inserted entry's aux slot
// (0-indexed insertion order). Spec: "the k-th aux slot (counting from the
// end of the allocation) pairs with the k-th key encountered scanning the
// key region from the start" — k = i+1.
func (a *Array) auxAt(i, auxWidth int) []byte {
	if auxWidth == 0 {
		return a.buf[len(a.buf):len(a.buf)]
	}
	end := len(a.buf) - i*auxWidth
	start := end - auxWidth
	return a.buf[start:end]
}

// Find scans the key region front-to-back for an exact residue match.
func (a *Array) Find(residue []byte, auxWidth int) ([]byte, bool) {
	off := headerSize
	used := a.keyUsed()
	limit := headerSize + used
	i := 0
	for off < limit {
		n, consumed := decodeLen(a.buf[off:])
		off += consumed
		if n == len(residue) && b2s(a.buf[off:off+n]) == b2s(residue) {
			return a.auxAt(i, auxWidth), true
		}
		off += n
		i++
	}
	return nil, false
}

// fits reports whether an additional residue of length n, with count
// existing entries, would fit in capacity bytes total.
func fits(capacity, keyUsed, count, n, auxWidth int) bool {
	need := headerSize + keyUsed + prefixLen(n) + n + (count+1)*auxWidth
	return need <= capacity && count < 255
}

// TryInsert appends residue as a new entry if it fits, returning its aux
// slot and true. Returns (nil, false) without mutating the array if the
// entry doesn't fit — the caller must then Promote or burst (spec §4.3:
// "Otherwise fail with 'doesn't fit'"). The caller is responsible for
// having already confirmed residue is absent (Find returned false); this
// is pure footgun-mode, per the engine/public-API validation split.
func (a *Array) TryInsert(residue []byte, auxWidth int) ([]byte, bool) {
	count := a.Count()
	used := a.keyUsed()
	if !fits(len(a.buf), used, count, len(residue), auxWidth) {
		return nil, false
	}
	off := headerSize + used
	off += encodeLen(a.buf[off:], len(residue))
	copy(a.buf[off:], residue)
	a.setKeyUsed(used + prefixLen(len(residue)) + len(residue))
	a.buf[offCount] = byte(count + 1)
	return a.auxAt(count, auxWidth), true
}

// NeededBytesFresh returns the allocation size a brand-new, empty array
// would need to hold exactly one entry of residue length n — used to pick
// the right starting size class before any Array exists yet.
func NeededBytesFresh(n, auxWidth int) int {
	return headerSize + prefixLen(n) + n + auxWidth
}

// NeededBytes returns the total allocation size (in bytes) required to fit
// one more entry of length n on top of this array's current contents —
// used to pick the right promotion target via sizeclass.Table.Smallest.
func (a *Array) NeededBytes(n, auxWidth int) int {
	return headerSize + a.keyUsed() + prefixLen(n) + n + (a.Count()+1)*auxWidth
}

// Promote migrates this array's entries into a freshly allocated array at
// the given larger size class, preserving (residue, aux) pairing, and
// frees the old allocation. Returns nil if count has already hit the
// 255-entry hard cap (spec §4.5: "If count == 255 is reached the Array is
// considered full regardless of bytes").
func Promote(old *Array, a *arena.Arena, table *sizeclass.Table, newClassIdx, auxWidth int) *Array {
	if old.Count() >= 255 {
		return nil
	}
	fresh := New(a, table, newClassIdx)
	used := old.keyUsed()
	copy(fresh.buf[headerSize:headerSize+used], old.buf[headerSize:headerSize+used])
	fresh.setKeyUsed(used)
	count := old.Count()
	fresh.buf[offCount] = byte(count)
	for i := 0; i < count; i++ {
		if auxWidth == 0 {
			continue
		}
		copy(fresh.auxAt(i, auxWidth), old.auxAt(i, auxWidth))
	}
	old.Free(a)
	return fresh
}

// Free returns this array's backing allocation to the arena's free list
// for its size class.
func (a *Array) Free(arn *arena.Arena) {
	arn.Free(nodeclass.Array(a.ClassIdx()), unsafe.Pointer(&a.buf[0]))
}

// Entries flattens every (residue, aux) pair into dst (reusing its
// capacity if large enough), in insertion order — the cursor sorts this
// slice afterward (spec §4.6).
func (a *Array) Entries(auxWidth int, dst []Entry) []Entry {
	dst = dst[:0]
	off := headerSize
	used := a.keyUsed()
	limit := headerSize + used
	i := 0
	for off < limit {
		n, consumed := decodeLen(a.buf[off:])
		off += consumed
		dst = append(dst, Entry{Residue: a.buf[off : off+n], Aux: a.auxAt(i, auxWidth)})
		off += n
		i++
	}
	return dst
}
