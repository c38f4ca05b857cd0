// Package nodeclass names the fixed arena.Class values each node kind is
// allocated and recycled under. Radix, Boot, Bucket, and Pail each have
// exactly one size and so get one fixed class; Array(k) has one class per
// size-class table entry, offset past the fixed classes so an Array's
// class never collides with another kind's free list.
package nodeclass

import "hattriego/arena"

const (
	Radix arena.Class = iota
	Boot
	Bucket
	Pail
	arrayBase
)

// Array returns the arena.Class for an Array leaf at size-class index
// classIdx. Distinct classIdx values get distinct free lists so a
// recycled Array is only ever handed back out at its own size.
func Array(classIdx int) arena.Class {
	return arrayBase + arena.Class(classIdx)
}
