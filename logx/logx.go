// Package logx is a tiny, allocation-conscious diagnostic logger used on
// cold paths only: the arena's failed-slab-allocation path and the CLI
// driver's usage and progress messages. Apart from that arena path, the
// trie core never logs.
//
// Grounded on debug/debug.go's DropError/DropMessage: branch on nil instead
// of building a format string, write straight through log.Printf/log.Print.
package logx

import "log"

// Warn prints "<prefix>: <err>" when err is non-nil, or just "<prefix>"
// when err is nil (used as a cheap trace tag, the same dual role
// debug.DropError plays for the teacher).
//
//go:nosplit
//go:inline
func Warn(prefix string, err error) {
	if err != nil {
		log.Printf("%s: %v", prefix, err)
	} else {
		log.Print(prefix)
	}
}

// Note prints "<prefix>: <msg>", for progress/trace messages that are not
// errors.
//
//go:nosplit
//go:inline
func Note(prefix, msg string) {
	log.Printf("%s: %s", prefix, msg)
}
