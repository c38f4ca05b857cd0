// cursor.go implements the ordered cursor (spec §4.6): a stack of
// descended nodes with a per-level scan index, lazy per-leaf
// materialize-and-sort, and key reconstruction from the path plus the
// current leaf's residue.
//
// Grounded on aggregator.go's "gather a batch, then sort before emitting"
// stage shape for the lazy-sort-on-arrival idiom (materialize one leaf's
// entries only when traversal reaches it, not eagerly for the whole
// trie).
package hattrie

import (
	"sort"

	"hattriego/arrayleaf"
	"hattriego/bucket"
	"hattriego/pail"
	"hattriego/radix"
	"hattriego/slot"
)

// frame is one level of the cursor's descent stack: the holder being
// scanned, its child count, and the child index currently selected.
type frame struct {
	h     holder
	width int
	idx   int
}

// Cursor traverses a Dict's keys in ascending lexicographic order. It
// borrows from its Dict for its whole lifetime (spec §5) and must not
// outlive it; any mutation to the Dict while a cursor is open invalidates
// the cursor.
type Cursor struct {
	d        *Dict
	stack    []frame
	entries  []arrayleaf.Entry
	entryIdx int // -1 when not positioned at a key
}

func newCursor(d *Dict) *Cursor {
	c := &Cursor{d: d, entryIdx: -1}
	stack := []frame{{h: d.boot, width: radix.Size(d.tun.BootLevels), idx: 0}}
	st, entries, ok := d.descendFirst(stack)
	if ok {
		c.stack, c.entries = st, entries
	}
	return c
}

// Next advances to the next key, returning whether one now exists (spec
// §6 "cursor_next"). Called once right after CursorOpen, it lands on the
// smallest key.
func (c *Cursor) Next() bool {
	if c.entryIdx == -1 {
		if len(c.entries) == 0 {
			return false
		}
		c.entryIdx = 0
		return true
	}
	if c.entryIdx+1 < len(c.entries) {
		c.entryIdx++
		return true
	}
	stack, entries, ok := c.d.advanceStack(c.stack)
	c.stack, c.entries = stack, entries
	if !ok {
		c.entryIdx = -1
		return false
	}
	c.entryIdx = 0
	return true
}

// Prev retreats to the previous key, returning whether one now exists
// (spec §6 "cursor_prev").
func (c *Cursor) Prev() bool {
	if c.entryIdx > 0 {
		c.entryIdx--
		return true
	}
	if c.entryIdx == -1 || len(c.stack) == 0 {
		return false
	}
	stack := c.stack
	stack[len(stack)-1].idx--
	st, entries, ok := c.d.descendLast(stack)
	c.stack, c.entries = st, entries
	if !ok {
		c.entryIdx = -1
		return false
	}
	c.entryIdx = len(entries) - 1
	return true
}

// Last positions the cursor at the greatest key (spec §6 "cursor_last").
func (c *Cursor) Last() bool {
	levels := c.d.tun.BootLevels
	width := radix.Size(levels)
	stack := []frame{{h: c.d.boot, width: width, idx: width - 1}}
	st, entries, ok := c.d.descendLast(stack)
	c.stack, c.entries = st, entries
	if !ok {
		c.entryIdx = -1
		return false
	}
	c.entryIdx = len(entries) - 1
	return true
}

// Seek positions at the least key >= key, or leaves the cursor not
// positioned if none exists (spec §4.6 "Seek semantics").
func (c *Cursor) Seek(key []byte) bool {
	levels := c.d.tun.BootLevels
	bootIdx := c.d.boot.Index(key)
	stack := []frame{{h: c.d.boot, width: radix.Size(levels), idx: bootIdx}}
	residue := residueAfterBoot(key, levels)
	for {
		top := &stack[len(stack)-1]
		w := top.h.At(top.idx)
		if w.IsEmpty() {
			return c.seekAdvance(stack)
		}
		switch w.Kind() {
		case slot.Radix:
			node := radix.FromAddr(w.Addr())
			var b byte
			b, residue = peelByte(residue)
			stack = append(stack, frame{h: node, width: radix.Width, idx: int(b)})
		default: // Array, Bucket, Pail: a leaf container
			entries := c.d.leafEntries(w)
			idx := seekIn(entries, residue)
			if idx < len(entries) {
				c.stack, c.entries, c.entryIdx = stack, entries, idx
				return true
			}
			return c.seekAdvance(stack)
		}
	}
}

func (c *Cursor) seekAdvance(stack []frame) bool {
	stack, entries, ok := c.d.advanceStack(stack)
	c.stack, c.entries = stack, entries
	if !ok {
		c.entryIdx = -1
		return false
	}
	c.entryIdx = 0
	return true
}

// CurrentKey reconstructs the current key into buf, copying as many
// bytes as fit, and returns the key's true full length regardless of
// truncation (spec §6 "cursor_key"). Returns 0 if not positioned.
func (c *Cursor) CurrentKey(buf []byte) int {
	if c.entryIdx < 0 {
		return 0
	}
	path := c.currentPathBytes()
	residue := c.entries[c.entryIdx].Residue
	n := copy(buf, path)
	if n < len(buf) {
		copy(buf[n:], residue)
	}
	return len(path) + len(residue)
}

// CurrentAux returns the aux region of the current key, and whether the
// cursor is positioned at all (spec §6 "cursor_aux").
func (c *Cursor) CurrentAux() ([]byte, bool) {
	if c.entryIdx < 0 {
		return nil, false
	}
	return c.entries[c.entryIdx].Aux, true
}

// Close releases cursor resources (spec §6 "cursor_close"). A Cursor
// holds no arena allocations of its own — it only borrows into its
// Dict's nodes — so this just clears the cursor's own state.
func (c *Cursor) Close() {
	c.d = nil
	c.stack = nil
	c.entries = nil
	c.entryIdx = -1
}

func (c *Cursor) currentPathBytes() []byte {
	out := bootBytes(c.stack[0].idx, c.d.tun.BootLevels)
	for _, fr := range c.stack[1:] {
		out = append(out, byte(fr.idx))
	}
	return out
}

func bootBytes(idx, levels int) []byte {
	out := make([]byte, levels)
	for k := levels - 1; k >= 0; k-- {
		out[k] = byte(idx)
		idx >>= 8
	}
	return out
}

// descendFirst finds, starting at the top frame's current index, the
// first reachable leaf at or after that position — pushing deeper Radix
// frames and popping exhausted ones as needed — and returns the
// materialized, sorted leaf entries.
func (d *Dict) descendFirst(stack []frame) ([]frame, []arrayleaf.Entry, bool) {
	for {
		top := &stack[len(stack)-1]
		i, w, ok := firstNonEmpty(top.h, top.width, top.idx)
		if !ok {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return stack, nil, false
			}
			stack[len(stack)-1].idx++
			continue
		}
		top.idx = i
		if w.Kind() == slot.Radix {
			node := radix.FromAddr(w.Addr())
			stack = append(stack, frame{h: node, width: radix.Width, idx: 0})
			continue
		}
		entries := d.leafEntries(w)
		if len(entries) == 0 {
			// an empty Bucket shell (the L=0 pre-seed) is a non-empty slot
			// word with nothing beneath it yet — keep scanning forward.
			top.idx++
			continue
		}
		return stack, entries, true
	}
}

// descendLast is descendFirst's mirror image, searching each frame from
// its current index downward to 0 and pushing/popping accordingly.
func (d *Dict) descendLast(stack []frame) ([]frame, []arrayleaf.Entry, bool) {
	for {
		top := &stack[len(stack)-1]
		i, w, ok := lastNonEmpty(top.h, top.idx)
		if !ok {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return stack, nil, false
			}
			stack[len(stack)-1].idx--
			continue
		}
		top.idx = i
		if w.Kind() == slot.Radix {
			node := radix.FromAddr(w.Addr())
			stack = append(stack, frame{h: node, width: radix.Width, idx: radix.Width - 1})
			continue
		}
		entries := d.leafEntries(w)
		if len(entries) == 0 {
			top.idx--
			continue
		}
		return stack, entries, true
	}
}

// advanceStack moves past the deepest frame's current slot and resumes
// descendFirst from there, popping and incrementing parent frames as
// needed — the shared "move to the next leaf" step for Next and Seek.
func (d *Dict) advanceStack(stack []frame) ([]frame, []arrayleaf.Entry, bool) {
	if len(stack) == 0 {
		return stack, nil, false
	}
	stack[len(stack)-1].idx++
	return d.descendFirst(stack)
}

func firstNonEmpty(h holder, width, from int) (int, slot.Word, bool) {
	for i := from; i < width; i++ {
		if w := h.At(i); !w.IsEmpty() {
			return i, w, true
		}
	}
	return 0, slot.Empty, false
}

func lastNonEmpty(h holder, upto int) (int, slot.Word, bool) {
	for i := upto; i >= 0; i-- {
		if w := h.At(i); !w.IsEmpty() {
			return i, w, true
		}
	}
	return 0, slot.Empty, false
}

// leafEntries flattens every (residue, aux) pair reachable from a leaf
// slot's word — an Array directly, or every Array beneath a Pail or
// Bucket (including a Bucket's nested Pails) — and sorts the result
// (spec §4.6 "Leaf materialization").
func (d *Dict) leafEntries(w slot.Word) []arrayleaf.Entry {
	var raw []arrayleaf.Entry
	switch w.Kind() {
	case slot.Array:
		arr := arrayleaf.FromAddr(w.Addr(), d.table)
		raw = arr.Entries(d.tun.AuxWidth, nil)
	case slot.Bucket:
		bk := bucket.FromAddr(w.Addr(), d.tun.BucketSlots)
		raw = d.collectBucket(bk)
	case slot.Pail:
		pl := pail.FromAddr(w.Addr(), d.tun.PailSlots)
		raw = d.collectPail(pl)
	}
	sortEntries(raw)
	return raw
}

func (d *Dict) collectBucket(bk *bucket.Bucket) []arrayleaf.Entry {
	var out []arrayleaf.Entry
	for i := 0; i < bk.Len(); i++ {
		w := bk.At(i)
		if w.IsEmpty() {
			continue
		}
		switch w.Kind() {
		case slot.Array:
			arr := arrayleaf.FromAddr(w.Addr(), d.table)
			out = append(out, arr.Entries(d.tun.AuxWidth, nil)...)
		case slot.Pail:
			pl := pail.FromAddr(w.Addr(), d.tun.PailSlots)
			out = append(out, d.collectPail(pl)...)
		}
	}
	return out
}

func (d *Dict) collectPail(pl *pail.Pail) []arrayleaf.Entry {
	var out []arrayleaf.Entry
	for i := 0; i < pl.Len(); i++ {
		w := pl.At(i)
		if w.IsEmpty() {
			continue
		}
		arr := arrayleaf.FromAddr(w.Addr(), d.table)
		out = append(out, arr.Entries(d.tun.AuxWidth, nil)...)
	}
	return out
}

// sortEntries orders entries by residue, lexicographic over unsigned
// bytes, via a three-way radix-partition quicksort keyed byte-by-byte
// from an offset carried alongside the recursion, falling back to
// insertion sort at counts <= 10 (spec §4.6/§9).
func sortEntries(entries []arrayleaf.Entry) {
	radixSort(entries, 0)
}

func radixSort(entries []arrayleaf.Entry, depth int) {
	if len(entries) <= 10 {
		insertionSort(entries, depth)
		return
	}
	lo, mid, hi := 0, 0, len(entries)-1
	pivot := byteAt(entries[len(entries)/2].Residue, depth)
	for mid <= hi {
		b := byteAt(entries[mid].Residue, depth)
		switch {
		case b < pivot:
			entries[lo], entries[mid] = entries[mid], entries[lo]
			lo++
			mid++
		case b > pivot:
			entries[mid], entries[hi] = entries[hi], entries[mid]
			hi--
		default:
			mid++
		}
	}
	radixSort(entries[:lo], depth)
	if pivot >= 0 {
		radixSort(entries[lo:hi+1], depth+1)
	}
	radixSort(entries[hi+1:], depth)
}

func insertionSort(entries []arrayleaf.Entry, depth int) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && lessFrom(entries[j].Residue, entries[j-1].Residue, depth); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// byteAt returns the byte of residue at index depth, or -1 if residue is
// shorter than depth+1 — sorts before any real byte, so a residue that is
// a strict prefix of another compares smaller (spec's "shorter is
// smaller only when the longer shares the shorter as prefix").
func byteAt(residue []byte, depth int) int {
	if depth >= len(residue) {
		return -1
	}
	return int(residue[depth])
}

func lessFrom(a, b []byte, depth int) bool {
	for i := depth; ; i++ {
		ab, bb := byteAt(a, i), byteAt(b, i)
		if ab != bb {
			return ab < bb
		}
		if ab == -1 {
			return false
		}
	}
}

func compareResidue(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}

// seekIn returns the index of the smallest entry whose residue >= target
// in an already-sorted entries slice, or len(entries) if none qualify.
func seekIn(entries []arrayleaf.Entry, target []byte) int {
	return sort.Search(len(entries), func(i int) bool {
		return compareResidue(entries[i].Residue, target) >= 0
	})
}
