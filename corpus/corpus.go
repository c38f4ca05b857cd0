// Package corpus loads word lists to populate a dictionary from: plain
// newline-delimited text, a JSON array of strings, or a SQLite table.
//
// Grounded on main.go's loadArbitrageCyclesFromFile (exact line-count
// pre-sizing from a single byte scan before parsing) and
// openDatabase/loadPoolsFromDatabase (sql.Open one-shot connection,
// COUNT(*) pre-sizing, ORDER BY for deterministic row order, panic on
// any setup failure since this only ever runs once at CLI startup).
package corpus

import (
	"database/sql"
	"os"

	"github.com/sugawarayuuta/sonnet"
	_ "github.com/mattn/go-sqlite3"
)

// LoadFile reads path and splits it into one word per line, trimming a
// trailing '\r' from CRLF input and skipping empty lines. The result is
// pre-sized from an exact newline count, not grown incrementally.
func LoadFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		panic("corpus: failed to read " + path + ": " + err.Error())
	}

	lineCount := 0
	for _, b := range data {
		if b == '\n' {
			lineCount++
		}
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		lineCount++
	}

	words := make([]string, 0, lineCount)
	start := 0
	for i := 0; i <= len(data); i++ {
		if i < len(data) && data[i] != '\n' {
			continue
		}
		end := i
		if end > start && data[end-1] == '\r' {
			end--
		}
		if end > start {
			words = append(words, string(data[start:end]))
		}
		start = i + 1
	}
	return words
}

// LoadJSONWordList reads path as a JSON array of strings.
func LoadJSONWordList(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		panic("corpus: failed to read " + path + ": " + err.Error())
	}
	var words []string
	if err := sonnet.Unmarshal(data, &words); err != nil {
		panic("corpus: failed to parse " + path + ": " + err.Error())
	}
	return words
}

// LoadSQLite opens a SQLite database at dbPath and reads every row's
// column column from table, in ascending rowid order, pre-sized from an
// exact COUNT(*). The connection is opened and closed within this call;
// the caller gets back only the loaded words.
func LoadSQLite(dbPath, table, column string) []string {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		panic("corpus: failed to open " + dbPath + ": " + err.Error())
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		panic("corpus: failed to count " + table + ": " + err.Error())
	}

	words := make([]string, 0, count)
	rows, err := db.Query("SELECT " + column + " FROM " + table + " ORDER BY rowid")
	if err != nil {
		panic("corpus: failed to query " + table + ": " + err.Error())
	}
	defer rows.Close()

	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			panic("corpus: failed to scan row: " + err.Error())
		}
		words = append(words, w)
	}
	return words
}
