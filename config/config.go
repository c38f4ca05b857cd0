// Package config holds the dictionary's tunables (spec §6): boot level
// count, Pail/Bucket slot counts, the Bucket burst threshold, the Array
// size-class table, the fixed aux payload width, and the arena slab size.
//
// Grounded on constants.go's tunables-with-rationale-comment style — one
// const/struct block per concern, each field commented with its default
// and why it's sized that way.
package config

import (
	"os"

	"github.com/sugawarayuuta/sonnet"

	"hattriego/sizeclass"
)

// Tunables configures one dictionary instance. The zero value is not
// usable directly; call Default() or Normalize an externally constructed
// value before passing it to hattrie.Open.
type Tunables struct {
	// BootLevels is L, the number of pre-materialized boot cascade levels
	// (spec §4.4). Each level multiplies the boot table by 256; 3 gives a
	// 16,777,216-slot root, trading startup memory for avoiding the first
	// few burst cycles on a fresh dictionary.
	BootLevels int `json:"boot_levels"`

	// PailSlots is P, the Pail hash table width (spec §4.3). 0 disables
	// the Pail tier entirely: Arrays burst straight to Bucket.
	PailSlots int `json:"pail_slots"`

	// BucketSlots is B, the Bucket hash table width (spec §4.3).
	BucketSlots int `json:"bucket_slots"`

	// BucketMax is the live-key count past which a Bucket bursts into a
	// Radix node regardless of per-slot occupancy (spec §4.5).
	BucketMax int `json:"bucket_max"`

	// SizeClasses is the Array(k) capacity table, in 16-byte units.
	// Normalize sorts it ascending; an empty table falls back to
	// sizeclass.Default.
	SizeClasses []int `json:"size_classes"`

	// AuxWidth is the fixed width, in bytes, of the payload stored
	// alongside every key (spec §4.3 "aux slots").
	AuxWidth int `json:"aux_width"`

	// SlabSize is the arena's backing slab size in bytes; <= 0 falls back
	// to arena.DefaultSlabSize.
	SlabSize int `json:"slab_size"`
}

// Default returns the spec-mandated default tunables (spec §6).
func Default() Tunables {
	return Tunables{
		BootLevels:  3,
		PailSlots:   127,
		BucketSlots: 2047,
		BucketMax:   65536,
		SizeClasses: append([]int(nil), sizeclass.Default...),
		AuxWidth:    8,
		SlabSize:    0, // arena.DefaultSlabSize
	}
}

// Normalize sorts SizeClasses and repairs nonsensical slot counts in
// place, tolerating a hand-edited or user-supplied config (spec §9
// HAT_24 note: the size-class table need not arrive pre-sorted).
func (t *Tunables) Normalize() {
	if t.BootLevels < 0 {
		t.BootLevels = 0
	}
	if t.PailSlots < 0 {
		t.PailSlots = 0
	}
	if t.BucketSlots < 1 {
		t.BucketSlots = Default().BucketSlots
	}
	if t.BucketMax < 1 {
		t.BucketMax = Default().BucketMax
	}
	if t.AuxWidth < 0 {
		t.AuxWidth = 0
	}
	table := sizeclass.New(t.SizeClasses)
	classes := make([]int, table.Len())
	for i := range classes {
		classes[i] = table.Bytes(i) / sizeclass.Unit
	}
	t.SizeClasses = classes
}

// Load reads Tunables from a JSON file at path and normalizes the result.
// A missing or malformed file panics — config is only ever read once at
// process startup.
func Load(path string) Tunables {
	data, err := os.ReadFile(path)
	if err != nil {
		panic("config: failed to read " + path + ": " + err.Error())
	}
	t := Default()
	if err := sonnet.Unmarshal(data, &t); err != nil {
		panic("config: failed to parse " + path + ": " + err.Error())
	}
	t.Normalize()
	return t
}
