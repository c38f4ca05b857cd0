// Package hattrie is the public surface of the hybrid burst-trie ordered
// dictionary (spec §6): Open/Close/Cell/Find/Data plus cursor traversal.
// This file is the only validated boundary (SPEC_FULL.md §2.2): every
// other package in this module — arena, slot, sizeclass, arrayleaf, pail,
// bucket, radix — is footgun-mode, trusting its caller completely, the
// same two-tier split fastuni/fastuni.go draws between its internal
// Q64.96 arithmetic and its validated public entry points.
package hattrie

import (
	"hattriego/arena"
	"hattriego/bucket"
	"hattriego/config"
	"hattriego/radix"
	"hattriego/sizeclass"
	"hattriego/slot"
)

// Dict is one hybrid burst-trie dictionary instance (spec §3-§5). All
// operations on a Dict must be serialized by the caller; it is single
// threaded and non-reentrant (spec §5) — there is no internal locking.
type Dict struct {
	arena *arena.Arena
	table *sizeclass.Table
	boot  *radix.Boot
	tun   config.Tunables
}

// Open creates a new, empty dictionary configured by tun, which it first
// normalizes (config.Tunables.Normalize). A zero-value Tunables is
// accepted: BucketSlots, BucketMax and SizeClasses fall back to their
// defaults, while BootLevels, PailSlots and AuxWidth stay 0.
func Open(tun config.Tunables) *Dict {
	tun.Normalize()
	a := arena.New(tun.SlabSize)
	table := sizeclass.New(tun.SizeClasses)
	boot := radix.NewBoot(a, tun.BootLevels)
	d := &Dict{arena: a, table: table, boot: boot, tun: tun}
	if tun.BootLevels == 0 {
		// spec §4.4: "Only L = 0 is a special case: a single child slot
		// is pre-initialized to an empty Bucket."
		bk := bucket.New(a, tun.BucketSlots)
		boot.Set(0, slot.Make(bk.Addr(), slot.Bucket))
	}
	return d
}

// Close releases every node ever allocated by d. d must not be used
// afterward (spec §6 "close: releases all memory").
func (d *Dict) Close() {
	d.arena.Close()
}

// Data returns an arena-owned, zeroed buffer of n bytes for caller use —
// e.g. scratch space for a cursor's reconstructed key (spec §6 "data").
func (d *Dict) Data(n int) []byte {
	return d.arena.Data(n)
}

// Cell returns the aux slot for key, inserting a zero-valued entry first
// if key is absent (spec §6 "cell"). The returned slice aliases
// arena-owned memory. It stays valid only until the next Cell that adds a
// new key: that insert may promote or burst the node holding this entry,
// moving the entry and freeing the memory the slice points into. A repeat
// call with an equal key returns a slice over the entry's current aux
// region, holding the same bytes.
func (d *Dict) Cell(key []byte) []byte {
	return d.cell(key)
}

// Find returns the aux slot for key and true if present, or (nil, false)
// if absent (spec §6 "find"). Find never mutates the dictionary.
func (d *Dict) Find(key []byte) ([]byte, bool) {
	return d.find(key)
}

// CursorOpen returns a cursor positioned before the first key (spec §6
// "cursor_open"). The cursor borrows from d and must not outlive it
// (spec §5); it is invalidated by any mutation to d made while it's open.
func (d *Dict) CursorOpen() *Cursor {
	return newCursor(d)
}
