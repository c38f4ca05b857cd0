package hattrie

import (
	"bytes"
	"testing"

	"hattriego/arrayleaf"
	"hattriego/config"
)

// Two-key order: cell("banana"); cell("apple"); cursor first -> "apple",
// next -> "banana", next -> not positioned.
func TestCursorTwoKeyOrder(t *testing.T) {
	tun := config.Tunables{BootLevels: 0, BucketSlots: 7, AuxWidth: 0}
	tun.Normalize()
	d := Open(tun)
	defer d.Close()

	d.Cell([]byte("banana"))
	d.Cell([]byte("apple"))

	cur := d.CursorOpen()
	defer cur.Close()

	buf := make([]byte, 32)
	if !cur.Next() {
		t.Fatal("expected a first key")
	}
	if n := cur.CurrentKey(buf); string(buf[:n]) != "apple" {
		t.Fatalf("first key = %q, want apple", buf[:n])
	}
	if !cur.Next() {
		t.Fatal("expected a second key")
	}
	if n := cur.CurrentKey(buf); string(buf[:n]) != "banana" {
		t.Fatalf("second key = %q, want banana", buf[:n])
	}
	if cur.Next() {
		t.Fatal("expected no third key")
	}
}

// Long key: insert a 200-byte key of 0xFF bytes; find returns non-absent;
// cursor_key reconstructs the same 200 bytes.
func TestLongHighByteKeyRoundTrips(t *testing.T) {
	d := Open(config.Default())
	defer d.Close()

	key := bytes.Repeat([]byte{0xFF}, 200)
	aux := d.Cell(key)
	aux[0] = 1

	got, ok := d.Find(key)
	if !ok {
		t.Fatal("long high-byte key not found")
	}
	if got[0] != 1 {
		t.Fatal("aux mismatch for long high-byte key")
	}

	cur := d.CursorOpen()
	defer cur.Close()
	if !cur.Next() {
		t.Fatal("expected the cursor to land on the only key")
	}
	buf := make([]byte, 256)
	n := cur.CurrentKey(buf)
	if n != len(key) {
		t.Fatalf("reconstructed length = %d, want %d", n, len(key))
	}
	if !bytes.Equal(buf[:n], key) {
		t.Fatal("reconstructed key does not match the inserted 200-byte key")
	}
}

func TestCursorSeekLandsOnNextKey(t *testing.T) {
	tun := config.Tunables{BootLevels: 0, BucketSlots: 7, AuxWidth: 0}
	tun.Normalize()
	d := Open(tun)
	defer d.Close()

	for _, k := range []string{"apple", "cherry", "fig"} {
		d.Cell([]byte(k))
	}

	cur := d.CursorOpen()
	defer cur.Close()

	buf := make([]byte, 32)
	if !cur.Seek([]byte("banana")) {
		t.Fatal("expected seek to land on a key >= banana")
	}
	if n := cur.CurrentKey(buf); string(buf[:n]) != "cherry" {
		t.Fatalf("seek(banana) landed on %q, want cherry", buf[:n])
	}
	if !cur.Seek([]byte("cherry")) {
		t.Fatal("expected seek to find an exact match")
	}
	if n := cur.CurrentKey(buf); string(buf[:n]) != "cherry" {
		t.Fatalf("seek(cherry) landed on %q, want cherry", buf[:n])
	}
	if cur.Seek([]byte("zzz")) {
		t.Fatal("expected seek past every key to report not positioned")
	}
}

func TestCursorPrevAndLast(t *testing.T) {
	tun := config.Tunables{BootLevels: 0, BucketSlots: 7, AuxWidth: 0}
	tun.Normalize()
	d := Open(tun)
	defer d.Close()

	for _, k := range []string{"one", "two", "three"} {
		d.Cell([]byte(k))
	}

	cur := d.CursorOpen()
	defer cur.Close()

	buf := make([]byte, 32)
	if !cur.Last() {
		t.Fatal("expected last to position on the greatest key")
	}
	if n := cur.CurrentKey(buf); string(buf[:n]) != "two" {
		t.Fatalf("last key = %q, want two", buf[:n])
	}
	if !cur.Prev() {
		t.Fatal("expected a key before the last")
	}
	if n := cur.CurrentKey(buf); string(buf[:n]) != "three" {
		t.Fatalf("prev key = %q, want three", buf[:n])
	}
	if !cur.Prev() {
		t.Fatal("expected a key before three")
	}
	if n := cur.CurrentKey(buf); string(buf[:n]) != "one" {
		t.Fatalf("prev key = %q, want one", buf[:n])
	}
	if cur.Prev() {
		t.Fatal("expected no key before the smallest")
	}
}

func TestSortEntriesOrdersByResidueAndPrefix(t *testing.T) {
	entries := []arrayleaf.Entry{
		{Residue: []byte("bob")},
		{Residue: []byte("")},
		{Residue: []byte("alice")},
		{Residue: []byte("al")},
		{Residue: []byte("bo")},
	}
	sortEntries(entries)
	want := []string{"", "al", "alice", "bo", "bob"}
	for i, w := range want {
		if string(entries[i].Residue) != w {
			t.Fatalf("entries[%d] = %q, want %q", i, entries[i].Residue, w)
		}
	}
}

func TestSortEntriesManyEntriesBeyondInsertionCutoff(t *testing.T) {
	var entries []arrayleaf.Entry
	for c := byte('z'); c >= 'a'; c-- {
		entries = append(entries, arrayleaf.Entry{Residue: []byte{c}})
	}
	sortEntries(entries)
	for i, e := range entries {
		want := byte('a' + i)
		if e.Residue[0] != want {
			t.Fatalf("entries[%d] = %q, want %q", i, e.Residue, []byte{want})
		}
	}
}
