// engine.go implements the shared descent protocol and the insert overflow
// cascade (spec §4.5): Array → [Pail] → Bucket → Radix, as one
// state-machine loop rather than recursion, so a cascading burst can never
// re-count an already-counted insert in a Bucket's live-key field (spec §9).
//
// Grounded on main.go's phased orchestration (main runs Phase 0/1/2/3 in
// sequence, each phase's failure handled before the next begins),
// generalized here into a for{} loop that retries from wherever a burst
// just happened instead of recursing, exactly as spec.md §9 requires.
package hattrie

import (
	"hattriego/arrayleaf"
	"hattriego/bucket"
	"hattriego/pail"
	"hattriego/radix"
	"hattriego/slot"
)

// holder is satisfied by every node kind that stores a flat, indexable
// array of slot.Words: the boot table, an interior radix node, a bucket's
// own B-slot table, and a pail's own P-slot table. The engine is written
// once against this interface and never needs a type switch to dispatch
// At/Set — only to decide *which* overflow rule applies at a given slot.
type holder interface {
	At(i int) slot.Word
	Set(i int, w slot.Word)
}

// ref names the (holder, index) pair where one specific child slot's
// tagged word lives, so a later burst can overwrite exactly that word.
type ref struct {
	h holder
	i int
}

func residueAfterBoot(key []byte, levels int) []byte {
	if levels >= len(key) {
		return nil
	}
	return key[levels:]
}

func peelByte(residue []byte) (byte, []byte) {
	if len(residue) == 0 {
		return 0, residue
	}
	return residue[0], residue[1:]
}

func copyEntries(src []arrayleaf.Entry) []arrayleaf.Entry {
	out := make([]arrayleaf.Entry, len(src))
	for i, e := range src {
		out[i] = arrayleaf.Entry{
			Residue: append([]byte(nil), e.Residue...),
			Aux:     append([]byte(nil), e.Aux...),
		}
	}
	return out
}

func (d *Dict) cell(key []byte) []byte {
	idx := d.boot.Index(key)
	residue := residueAfterBoot(key, d.tun.BootLevels)
	aux, _ := d.walk(d.boot, idx, residue, nil, nil, nil, true)
	return aux
}

func (d *Dict) find(key []byte) ([]byte, bool) {
	idx := d.boot.Index(key)
	residue := residueAfterBoot(key, d.tun.BootLevels)
	return d.walk(d.boot, idx, residue, nil, nil, nil, false)
}

// walk is the shared descent protocol (spec §4.5 "Descent protocol"). It
// switches on the current slot's tag and either returns (lookup and
// found-insert) or mutates and loops (overflow cascade). bk is the
// nearest enclosing Bucket, if any, for live-counter bookkeeping;
// bucketFrame/pailFrame name where that Bucket's or the nearest enclosing
// Pail's own tagged word lives, so a burst can replace it in place.
func (d *Dict) walk(h holder, i int, residue []byte, bk *bucket.Bucket, bucketFrame, pailFrame *ref, insert bool) ([]byte, bool) {
	for {
		w := h.At(i)
		if w.IsEmpty() {
			if !insert {
				return nil, false
			}
			if classIdx, ok := d.table.Smallest(arrayleaf.NeededBytesFresh(len(residue), d.tun.AuxWidth)); ok {
				arr := arrayleaf.New(d.arena, d.table, classIdx)
				aux, ok := arr.TryInsert(residue, d.tun.AuxWidth)
				if !ok {
					panic("hattrie: fresh array rejected its only entry")
				}
				h.Set(i, slot.Make(arr.Addr(), slot.Array))
				return d.counted(aux, residue, bk, bucketFrame)
			}
			h, i, bk, bucketFrame, pailFrame = d.escalate(h, i, nil, bk, bucketFrame, pailFrame)
			continue
		}
		switch w.Kind() {
		case slot.Radix:
			node := radix.FromAddr(w.Addr())
			var c byte
			c, residue = peelByte(residue)
			h, i = node, int(c)
		case slot.Bucket:
			nb := bucket.FromAddr(w.Addr(), d.tun.BucketSlots)
			bf := ref{h, i}
			bk, bucketFrame, pailFrame = nb, &bf, nil
			h, i = nb, bucket.Index(residue, d.tun.BucketSlots)
		case slot.Pail:
			pl := pail.FromAddr(w.Addr(), d.tun.PailSlots)
			pf := ref{h, i}
			pailFrame = &pf
			h, i = pl, pail.Index(residue, d.tun.PailSlots)
		case slot.Array:
			arr := arrayleaf.FromAddr(w.Addr(), d.table)
			if aux, ok := arr.Find(residue, d.tun.AuxWidth); ok {
				return aux, true
			}
			if !insert {
				return nil, false
			}
			if aux, ok := arr.TryInsert(residue, d.tun.AuxWidth); ok {
				return d.counted(aux, residue, bk, bucketFrame)
			}
			if classIdx, ok := d.table.Smallest(arr.NeededBytes(len(residue), d.tun.AuxWidth)); ok {
				if fresh := arrayleaf.Promote(arr, d.arena, d.table, classIdx, d.tun.AuxWidth); fresh != nil {
					aux, ok := fresh.TryInsert(residue, d.tun.AuxWidth)
					if !ok {
						panic("hattrie: promoted array still rejected its entry")
					}
					h.Set(i, slot.Make(fresh.Addr(), slot.Array))
					return d.counted(aux, residue, bk, bucketFrame)
				}
			}
			h, i, bk, bucketFrame, pailFrame = d.escalate(h, i, arr, bk, bucketFrame, pailFrame)
		}
	}
}

// bumpBucket increments bk's live-key counter exactly once for a
// successful insert, then bursts bk to Radix if that crossed Bucket_max
// (spec §4.5 "Insert overflow cascade" / §9: increment once, before the
// burst check), and reports whether it burst.
func (d *Dict) bumpBucket(bk *bucket.Bucket, bucketFrame *ref) bool {
	if bk == nil {
		return false
	}
	bk.IncLiveCount()
	if bk.LiveCount() > d.tun.BucketMax {
		d.burstBucketToRadix(*bucketFrame, bk)
		return true
	}
	return false
}

// counted finishes a successful insert of residue under bk. If the count
// bump burst bk, the new entry was moved and aux points into a freed
// Array, so the entry is looked up again from bk's former slot.
func (d *Dict) counted(aux, residue []byte, bk *bucket.Bucket, bucketFrame *ref) ([]byte, bool) {
	if d.bumpBucket(bk, bucketFrame) {
		return d.walk(bucketFrame.h, bucketFrame.i, residue, nil, nil, nil, false)
	}
	return aux, true
}

// escalate handles an Array that cannot grow (arr is nil when the slot
// was Empty but too small for even one fresh entry — an oversized
// residue that only repeated Radix byte-peels can ever shrink enough to
// fit). Which rule applies depends on where the overflowing slot lives:
//
//   - directly under Boot/Radix (the default branch): promote that one
//     slot to a Pail if enabled, else straight to a Bucket (spec's tag
//     transition diagram, the top-level Array→Pail/Bucket edges).
//   - inside a Pail's own table (case *pail.Pail): a Pail is reachable
//     either as a top-level slot or nested inside one Bucket slot
//     (insertIntoBucketSlot), so pailFrame.h names either a Boot/Radix
//     owner or that enclosing *bucket.Bucket. In the first case the Pail
//     bursts to a Bucket in place. In the second, a Bucket slot may never
//     hold another Bucket, so the whole enclosing Bucket bursts to Radix
//     instead — the same rule promoteBucketSlotToPail's own overflow
//     path already applies.
//   - inside a Bucket's own table (case *bucket.Bucket): nest a Pail at
//     that one slot if enabled, else the whole enclosing Bucket bursts to
//     Radix (a Bucket slot may never hold another Bucket).
func (d *Dict) escalate(h holder, i int, arr *arrayleaf.Array, bk *bucket.Bucket, bucketFrame, pailFrame *ref) (holder, int, *bucket.Bucket, *ref, *ref) {
	switch hh := h.(type) {
	case *pail.Pail:
		if enclosingBk, ok := pailFrame.h.(*bucket.Bucket); ok {
			d.burstBucketToRadix(*bucketFrame, enclosingBk)
			return bucketFrame.h, bucketFrame.i, nil, nil, nil
		}
		result := d.burstPailToBucket(*pailFrame, hh)
		if newBk, ok := result.(*bucket.Bucket); ok {
			return pailFrame.h, pailFrame.i, newBk, pailFrame, nil
		}
		return pailFrame.h, pailFrame.i, nil, nil, nil
	case *bucket.Bucket:
		if d.tun.PailSlots > 0 {
			d.promoteBucketSlotToPail(hh, *bucketFrame, i, arr)
			return h, i, bk, bucketFrame, pailFrame
		}
		d.burstBucketToRadix(*bucketFrame, hh)
		return bucketFrame.h, bucketFrame.i, nil, nil, nil
	default:
		if d.tun.PailSlots > 0 {
			d.promoteTopSlotToPail(h, i, arr)
		} else {
			d.promoteTopSlotToBucket(h, i, arr)
		}
		return h, i, bk, bucketFrame, pailFrame
	}
}

// growLocalArray inserts (residue, auxVal) at slot i of h, where that slot
// may only ever hold a plain Array — a Pail's own table, or one
// not-yet-escalated Bucket-internal slot. It never creates anything
// richer than an Array; callers decide what to do when it returns false.
func (d *Dict) growLocalArray(h holder, i int, residue, auxVal []byte) bool {
	w := h.At(i)
	if w.IsEmpty() {
		classIdx, ok := d.table.Smallest(arrayleaf.NeededBytesFresh(len(residue), d.tun.AuxWidth))
		if !ok {
			return false
		}
		arr := arrayleaf.New(d.arena, d.table, classIdx)
		aux, ok := arr.TryInsert(residue, d.tun.AuxWidth)
		if !ok {
			panic("hattrie: fresh array rejected its only entry")
		}
		copy(aux, auxVal)
		h.Set(i, slot.Make(arr.Addr(), slot.Array))
		return true
	}
	arr := arrayleaf.FromAddr(w.Addr(), d.table)
	if aux, ok := arr.TryInsert(residue, d.tun.AuxWidth); ok {
		copy(aux, auxVal)
		return true
	}
	classIdx, ok := d.table.Smallest(arr.NeededBytes(len(residue), d.tun.AuxWidth))
	if !ok {
		return false
	}
	fresh := arrayleaf.Promote(arr, d.arena, d.table, classIdx, d.tun.AuxWidth)
	if fresh == nil {
		return false
	}
	aux, ok := fresh.TryInsert(residue, d.tun.AuxWidth)
	if !ok {
		panic("hattrie: promoted array still rejected its entry")
	}
	copy(aux, auxVal)
	h.Set(i, slot.Make(fresh.Addr(), slot.Array))
	return true
}

// buildPail redistributes entries into a fresh Pail's own slots, which
// may only ever hold a plain Array (spec §3 node-variant table). If one
// slot's share can't fit even after every promotion, construction aborts:
// onOverflow receives every entry already placed plus every entry not yet
// placed, and its result replaces the Pail (spec §4.3: "the Pail signals
// overflow to the caller, which bursts the whole Pail to a Bucket").
func (d *Dict) buildPail(entries []arrayleaf.Entry, onOverflow func(extra []arrayleaf.Entry) holder) holder {
	pl := pail.New(d.arena, d.tun.PailSlots)
	for idx, e := range entries {
		if d.growLocalArray(pl, pail.Index(e.Residue, d.tun.PailSlots), e.Residue, e.Aux) {
			continue
		}
		extra := d.flattenPail(pl)
		pl.Free(d.arena)
		extra = append(extra, entries[idx:]...)
		return onOverflow(extra)
	}
	return pl
}

// buildBucketAt creates a fresh Bucket at owner, redistributes entries
// into it through the bounded per-slot helper (never escalating the
// Bucket itself mid-batch), then checks Bucket_max exactly once — after
// the batch, against a stable reference, never through one a nested burst
// may already have invalidated (spec §9).
func (d *Dict) buildBucketAt(owner ref, entries []arrayleaf.Entry) holder {
	bk := bucket.New(d.arena, d.tun.BucketSlots)
	owner.h.Set(owner.i, slot.Make(bk.Addr(), slot.Bucket))
	for _, e := range entries {
		d.insertIntoBucketSlot(bk, bucket.Index(e.Residue, d.tun.BucketSlots), e.Residue, e.Aux)
	}
	if bk.LiveCount() > d.tun.BucketMax {
		return d.burstBucketToRadix(owner, bk)
	}
	return bk
}

// insertIntoBucketSlot places (residue, auxVal) at bk's slot si, growing
// a plain Array there, or nesting one Pail if that Array can't grow
// further and pails are enabled (spec §4.3 Bucket). It never bursts bk
// itself to Radix; the caller checks Bucket_max once per batch.
func (d *Dict) insertIntoBucketSlot(bk *bucket.Bucket, si int, residue, auxVal []byte) {
	w := bk.At(si)
	if w.IsEmpty() || w.Kind() == slot.Array {
		if d.growLocalArray(bk, si, residue, auxVal) {
			bk.IncLiveCount()
			return
		}
		if d.tun.PailSlots == 0 {
			// No finer-grained container is available here; this needs a
			// pathologically small size-class table relative to
			// Bucket_slots to trigger and is not specially handled.
			return
		}
		var entries []arrayleaf.Entry
		if !w.IsEmpty() {
			arr := arrayleaf.FromAddr(w.Addr(), d.table)
			entries = copyEntries(arr.Entries(d.tun.AuxWidth, nil))
			arr.Free(d.arena)
		}
		entries = append(entries, arrayleaf.Entry{Residue: residue, Aux: auxVal})
		pl := pail.New(d.arena, d.tun.PailSlots)
		for j, e := range entries {
			// entries moved out of the old Array were already counted;
			// only the new last entry adds to bk's live count.
			if d.growLocalArray(pl, pail.Index(e.Residue, d.tun.PailSlots), e.Residue, e.Aux) && j == len(entries)-1 {
				bk.IncLiveCount()
			}
		}
		bk.Set(si, slot.Make(pl.Addr(), slot.Pail))
		return
	}
	pl := pail.FromAddr(w.Addr(), d.tun.PailSlots)
	if d.growLocalArray(pl, pail.Index(residue, d.tun.PailSlots), residue, auxVal) {
		bk.IncLiveCount()
	}
}

// promoteTopSlotToPail replaces the Array (or Empty slot, if arr is nil)
// at (h, i) — a slot directly under Boot/Radix — with a fresh Pail.
func (d *Dict) promoteTopSlotToPail(h holder, i int, arr *arrayleaf.Array) {
	entries := drainArray(d, arr)
	owner := ref{h, i}
	result := d.buildPail(entries, func(extra []arrayleaf.Entry) holder {
		return d.buildBucketAt(owner, extra)
	})
	if pl, ok := result.(*pail.Pail); ok {
		h.Set(i, slot.Make(pl.Addr(), slot.Pail))
	}
}

// promoteTopSlotToBucket replaces the Array (or Empty slot, if arr is
// nil) at (h, i) — a slot directly under Boot/Radix — with a fresh
// Bucket (the pails-disabled top-level overflow branch).
func (d *Dict) promoteTopSlotToBucket(h holder, i int, arr *arrayleaf.Array) {
	entries := drainArray(d, arr)
	d.buildBucketAt(ref{h, i}, entries)
}

// promoteBucketSlotToPail promotes bk's own slot si to a nested Pail. If
// that Pail can't hold its share even after every promotion, a Bucket
// slot may never hold another Bucket (spec's node-variant table), so the
// whole enclosing Bucket bursts to Radix instead.
func (d *Dict) promoteBucketSlotToPail(bk *bucket.Bucket, bucketFrame ref, si int, arr *arrayleaf.Array) {
	entries := drainArray(d, arr)
	var aborted []arrayleaf.Entry
	result := d.buildPail(entries, func(extra []arrayleaf.Entry) holder {
		aborted = extra
		return nil
	})
	if aborted != nil {
		bk.Set(si, slot.Empty)
		d.burstBucketToRadix(bucketFrame, bk, aborted)
		return
	}
	pl := result.(*pail.Pail)
	bk.Set(si, slot.Make(pl.Addr(), slot.Pail))
}

// burstPailToBucket replaces the Pail at owner — a top-level slot,
// reached directly under Boot/Radix — with a fresh Bucket, redistributing
// every entry it holds (spec §4.3/§4.5). A Pail nested inside a Bucket's
// own slot table takes a different path on overflow (escalate's
// *pail.Pail branch bursts the enclosing Bucket to Radix instead), since
// a Bucket slot may never hold another Bucket.
func (d *Dict) burstPailToBucket(owner ref, pl *pail.Pail) holder {
	entries := d.flattenPail(pl)
	pl.Free(d.arena)
	return d.buildBucketAt(owner, entries)
}

// burstBucketToRadix replaces the Bucket at owner with a fresh Radix
// node, peeling one leading byte off every live residue (0 if a residue
// is already empty) and reinserting the remainder at that byte's Radix
// slot via the standard descent/insert path (spec §4.5 "Bucket → Radix
// burst"). extra carries entries that overflowed mid-construction of a
// nested container and were never written back into bk.
func (d *Dict) burstBucketToRadix(owner ref, bk *bucket.Bucket, extra ...[]arrayleaf.Entry) *radix.Node {
	entries := d.flattenBucket(bk)
	for _, e := range extra {
		entries = append(entries, e...)
	}
	bk.Free(d.arena)
	node := radix.NewNode(d.arena)
	owner.h.Set(owner.i, slot.Make(node.Addr(), slot.Radix))
	for _, e := range entries {
		c, rest := peelByte(e.Residue)
		aux, _ := d.walk(node, int(c), rest, nil, nil, nil, true)
		copy(aux, e.Aux)
	}
	return node
}

// flattenPail copies out and frees every sub-array in pl, returning every
// (residue, aux) pair it held. pl itself is not freed.
func (d *Dict) flattenPail(pl *pail.Pail) []arrayleaf.Entry {
	var out []arrayleaf.Entry
	for i := 0; i < pl.Len(); i++ {
		w := pl.At(i)
		if w.IsEmpty() {
			continue
		}
		arr := arrayleaf.FromAddr(w.Addr(), d.table)
		out = append(out, copyEntries(arr.Entries(d.tun.AuxWidth, nil))...)
		arr.Free(d.arena)
	}
	return out
}

// flattenBucket copies out and frees every child (Array or nested Pail)
// in bk, returning every (residue, aux) pair reachable beneath it. bk
// itself is not freed.
func (d *Dict) flattenBucket(bk *bucket.Bucket) []arrayleaf.Entry {
	var out []arrayleaf.Entry
	for i := 0; i < bk.Len(); i++ {
		w := bk.At(i)
		if w.IsEmpty() {
			continue
		}
		switch w.Kind() {
		case slot.Array:
			arr := arrayleaf.FromAddr(w.Addr(), d.table)
			out = append(out, copyEntries(arr.Entries(d.tun.AuxWidth, nil))...)
			arr.Free(d.arena)
		case slot.Pail:
			pl := pail.FromAddr(w.Addr(), d.tun.PailSlots)
			out = append(out, d.flattenPail(pl)...)
			pl.Free(d.arena)
		}
	}
	return out
}

func drainArray(d *Dict, arr *arrayleaf.Array) []arrayleaf.Entry {
	if arr == nil {
		return nil
	}
	entries := copyEntries(arr.Entries(d.tun.AuxWidth, nil))
	arr.Free(d.arena)
	return entries
}
