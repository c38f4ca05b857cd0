// ════════════════════════════════════════════════════════════════════════
// hattriego CLI — Entry Point
// ────────────────────────────────────────────────────────────────────────
// Loads a word corpus, populates a hybrid burst-trie dictionary, and
// either prints a word-frequency report (default) or runs the bulk
// insert/lookup/traverse benchmark (-bench).
//
// Architecture:
//   - Phase 0: flag parsing
//   - Phase 1: corpus loading
//   - Phase 2: dictionary population (or -bench, which drives its own)
//   - Phase 3: report
// ════════════════════════════════════════════════════════════════════════

package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"hattriego/bench"
	"hattriego/config"
	"hattriego/corpus"
	"hattriego/hattrie"
	"hattriego/logx"
)

func main() {
	// PHASE 0: flag parsing
	var (
		corpusPath = flag.String("corpus", "", "path to a word list: .txt (newline-delimited), .json (string array), or .db (sqlite3)")
		table      = flag.String("table", "words", "sqlite3 table name, used with -corpus *.db")
		column     = flag.String("column", "word", "sqlite3 column name, used with -corpus *.db")
		benchN     = flag.Int("bench", 0, "if > 0, run the bulk insert/lookup/traverse benchmark with this many keys instead of the corpus demo")
		benchSeed  = flag.Int("seed", 1, "benchmark key-stream seed byte")
		top        = flag.Int("top", 20, "how many of the most frequent words to print")
		configPath = flag.String("config", "", "path to a JSON tunables file; defaults to config.Default()")
	)
	flag.Parse()

	tun := config.Default()
	if *configPath != "" {
		tun = config.Load(*configPath)
	}

	// -bench mode skips the corpus entirely.
	if *benchN > 0 {
		d := hattrie.Open(tun)
		defer d.Close()
		logx.Note("BENCH", fmt.Sprintf("inserting %d keys", *benchN))
		res := bench.Run(d, *benchN, byte(*benchSeed))
		logx.Note("BENCH", fmt.Sprintf("insert=%s lookup=%s traverse=%s found=%d/%d traversed=%d",
			res.Insert, res.Lookup, res.Traverse, res.Found, res.Keys, res.Traversed))
		return
	}

	if *corpusPath == "" {
		logx.Warn("FLAGS", nil)
		fmt.Fprintln(os.Stderr, "usage: hattriego -corpus <file> [-top N] | -bench N")
		os.Exit(2)
	}

	// PHASE 1: corpus loading
	words := loadCorpus(*corpusPath, *table, *column)
	logx.Note("LOADED", fmt.Sprintf("%d words from %s", len(words), *corpusPath))

	// PHASE 2: dictionary population — tokenize, bump a uint64 counter per
	// word (the aux payload repurposed as a frequency counter).
	tun.AuxWidth = 8
	d := hattrie.Open(tun)
	defer d.Close()

	for _, w := range words {
		tokenizeAndCount(d, w)
	}

	// PHASE 3: report — full cursor traversal, then sort by count desc
	// then key asc, then print the top N.
	type entry struct {
		key   string
		count uint64
	}
	var entries []entry
	cur := d.CursorOpen()
	buf := make([]byte, maxKeyBytes)
	for cur.Next() {
		n := cur.CurrentKey(buf)
		aux, _ := cur.CurrentAux()
		entries = append(entries, entry{key: string(buf[:n]), count: binary.LittleEndian.Uint64(aux)})
	}
	cur.Close()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})

	logx.Note("REPORT", fmt.Sprintf("%d distinct words", len(entries)))
	for i := 0; i < *top && i < len(entries); i++ {
		fmt.Printf("%8d  %s\n", entries[i].count, entries[i].key)
	}
}

// loadCorpus dispatches on corpusPath's extension to the matching corpus
// loader.
func loadCorpus(path, table, column string) []string {
	switch {
	case strings.HasSuffix(path, ".json"):
		return corpus.LoadJSONWordList(path)
	case strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite3"):
		return corpus.LoadSQLite(path, table, column)
	default:
		return corpus.LoadFile(path)
	}
}

// maxKeyBytes is the longest key the core ever sees from this driver; the
// core itself does not validate key length (§2.2), so callers truncate
// before calling in.
const maxKeyBytes = 16383

// tokenizeAndCount splits line on whitespace and bumps each token's
// 8-byte little-endian frequency counter in the dictionary, truncating
// any token longer than maxKeyBytes before it ever reaches Cell.
func tokenizeAndCount(d *hattrie.Dict, line string) {
	scanner := bufio.NewScanner(strings.NewReader(line))
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		word := strings.ToLower(scanner.Text())
		if len(word) > maxKeyBytes {
			word = word[:maxKeyBytes]
		}
		aux := d.Cell([]byte(word))
		binary.LittleEndian.PutUint64(aux, binary.LittleEndian.Uint64(aux)+1)
	}
}
