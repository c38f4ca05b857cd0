package sizeclass

import "testing"

func TestNewSortsNonMonotonicTable(t *testing.T) {
	tbl := New([]int{16, 8, 24, 4, 0, -3, 2})
	want := []int{2, 4, 8, 16, 24}
	if tbl.Len() != len(want) {
		t.Fatalf("expected %d classes, got %d", len(want), tbl.Len())
	}
	for i, w := range want {
		if tbl.classes[i] != w {
			t.Fatalf("class[%d] = %d, want %d", i, tbl.classes[i], w)
		}
	}
}

func TestNewFallsBackToDefault(t *testing.T) {
	tbl := New(nil)
	if tbl.Len() != len(Default) {
		t.Fatalf("expected default table of %d entries, got %d", len(Default), tbl.Len())
	}
}

func TestSmallestPicksSufficientClass(t *testing.T) {
	tbl := New(Default)
	i, ok := tbl.Smallest(17 * Unit)
	if !ok {
		t.Fatal("expected a class to fit")
	}
	if tbl.Bytes(i) < 17*Unit {
		t.Fatalf("class %d too small: %d bytes", i, tbl.Bytes(i))
	}
	if i > 0 && tbl.Bytes(i-1) >= 17*Unit {
		t.Fatal("Smallest did not return the minimal sufficient class")
	}
}

func TestSmallestOverflow(t *testing.T) {
	tbl := New([]int{1, 2})
	if _, ok := tbl.Smallest(100 * Unit); ok {
		t.Fatal("expected overflow for a request beyond every class")
	}
}
