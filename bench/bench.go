// Package bench drives bulk insert/lookup/traverse passes against a
// dictionary with a deterministic key stream, timing each phase and
// keeping GC out of the timed region.
//
// Grounded on router/update_test.go's makeAddr40 (sha3.Sum256 of a seed
// byte, for deterministic addresses) generalized into a hash chain, and
// on main_linux.go/main_darwin.go's SetGCPercent(-1) + periodic
// ReadMemStats soft-limit trim, adapted from a per-frame ISR loop to a
// per-batch insert loop.
package bench

import (
	"encoding/binary"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/crypto/sha3"

	"hattriego/hattrie"
)

// heapSoftLimit is the HeapAlloc threshold past which a run forces one GC
// cycle mid-benchmark rather than letting the disabled collector run the
// process out of memory on a very large key count.
const heapSoftLimit = 512 * 1024 * 1024

// KeyStream produces an unbounded, deterministic sequence of 32-byte keys
// via a sha3-256 hash chain: each key is the hash of the previous one,
// seeded from a single byte.
type KeyStream struct {
	state [32]byte
}

// NewKeyStream seeds a stream from one byte so repeated runs with the
// same seed reproduce the same key sequence.
func NewKeyStream(seed byte) *KeyStream {
	return &KeyStream{state: sha3.Sum256([]byte{seed})}
}

// Next advances the chain and returns the new 32-byte key. The returned
// slice is freshly allocated and safe to retain.
func (k *KeyStream) Next() []byte {
	k.state = sha3.Sum256(k.state[:])
	out := make([]byte, len(k.state))
	copy(out, k.state[:])
	return out
}

// Result reports the key count and per-phase duration of one Run.
type Result struct {
	Keys      int
	Found     int
	Traversed int
	Insert    time.Duration
	Lookup    time.Duration
	Traverse  time.Duration
}

// Run inserts n keys from a stream seeded by seed, storing each key's
// insertion index in its aux slot (when the dictionary's aux width
// allows it), then times a full lookup pass and a full cursor traversal.
func Run(d *hattrie.Dict, n int, seed byte) Result {
	prevGC := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(prevGC)

	var memstats runtime.MemStats

	ks := NewKeyStream(seed)
	start := time.Now()
	for i := 0; i < n; i++ {
		key := ks.Next()
		aux := d.Cell(key)
		if len(aux) >= 4 {
			binary.LittleEndian.PutUint32(aux, uint32(i))
		}
		if i%4096 == 0 {
			runtime.ReadMemStats(&memstats)
			if memstats.HeapAlloc > heapSoftLimit {
				debug.SetGCPercent(100)
				runtime.GC()
				debug.SetGCPercent(-1)
			}
		}
	}
	insertDur := time.Since(start)

	ks = NewKeyStream(seed)
	found := 0
	start = time.Now()
	for i := 0; i < n; i++ {
		if _, ok := d.Find(ks.Next()); ok {
			found++
		}
	}
	lookupDur := time.Since(start)

	cur := d.CursorOpen()
	traversed := 0
	start = time.Now()
	for cur.Next() {
		traversed++
	}
	cur.Close()
	traverseDur := time.Since(start)

	return Result{
		Keys:      n,
		Found:     found,
		Traversed: traversed,
		Insert:    insertDur,
		Lookup:    lookupDur,
		Traverse:  traverseDur,
	}
}
