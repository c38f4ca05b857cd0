// Package sizeclass holds the Array(k) capacity table (spec §3, §4.3) and
// the promotion search that picks the smallest sufficient class for a
// pending insert.
//
// Grounded on the fixed-capacity-family idiom spread across ring24/ring32/
// ring56/quantumqueue64/compactqueue128 — the teacher ships one package per
// fixed buffer capacity; here one table drives many capacities, which is
// the generalization spec.md's burst/promote protocol requires.
package sizeclass

import "sort"

// Unit is the size-class granularity: every class is expressed in 16-byte
// units (spec §3 "Array(k) physical layout").
const Unit = 16

// Default is the default size-class table, in 16-byte units, taken from
// the reference implementation's header (original_source/hattrie64d.c):
// 1,2,3,4,6,8,10,12,14,16,24,32.
var Default = []int{1, 2, 3, 4, 6, 8, 10, 12, 14, 16, 24, 32}

// Table is a sorted, validated size-class table. The zero value is not
// usable; build one with New.
type Table struct {
	classes []int // ascending, in Unit multiples
}

// New sorts classes ascending (spec §9 HAT_24 Open Question: tolerate a
// non-monotonic user-supplied table by sorting at open time) and drops
// non-positive entries. An empty or nil input falls back to Default.
func New(classes []int) *Table {
	if len(classes) == 0 {
		classes = Default
	}
	cleaned := make([]int, 0, len(classes))
	for _, c := range classes {
		if c > 0 {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, Default...)
	}
	sort.Ints(cleaned)
	return &Table{classes: cleaned}
}

// Len returns the number of classes.
func (t *Table) Len() int { return len(t.classes) }

// Bytes returns the byte capacity of class index i.
func (t *Table) Bytes(i int) int { return t.classes[i] * Unit }

// Smallest returns the index of the smallest class whose byte capacity is
// >= need, and false if no class is large enough — the caller must then
// treat the Array as full and burst (spec §4.3 "If no larger class fits,
// signal overflow to the caller which must burst").
func (t *Table) Smallest(need int) (int, bool) {
	i := sort.Search(len(t.classes), func(i int) bool {
		return t.classes[i]*Unit >= need
	})
	if i == len(t.classes) {
		return 0, false
	}
	return i, true
}
