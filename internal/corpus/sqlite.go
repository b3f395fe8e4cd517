// SQLite-backed corpus ingestion: an alternate source for corpora
// distributed as a database table rather than a flat TSV file, selected
// with --corpus-db/--corpus-query or the corpus.sqlite_dsn config key.
// Not part of spec.md's distilled scope, but a SPEC_FULL.md domain-stack
// addition wiring mattn/go-sqlite3 the way the rest of the example
// corpus uses it for bulk tabular ingestion.
package corpus

import (
	"database/sql"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nakatani/ldig-go/internal/learner"
	"github.com/nakatani/ldig-go/internal/normalize"
	"github.com/nakatani/ldig-go/pkg/model"
)

// PrepareSQLite is Prepare's SQLite-backed counterpart: query must
// select exactly two text columns, label then body, in that order.
func PrepareSQLite(dsn, query string) ([]string, []int32, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	labelSet := map[string]struct{}{}
	var text []int32
	for rows.Next() {
		var label, body string
		if err := rows.Scan(&label, &body); err != nil {
			return nil, nil, err
		}
		labelSet[label] = struct{}{}
		for _, rn := range normalize.Text(body) {
			text = append(text, int32(rn))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels, text, nil
}

// LoadSQLiteDocuments is LoadFile's SQLite-backed counterpart.
func LoadSQLiteDocuments(dsn, query string, m *model.Model) (learner.Corpus, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(learner.Corpus, m.K)
	for rows.Next() {
		var label, body string
		if err := rows.Scan(&label, &body); err != nil {
			return nil, err
		}
		k, ok := m.LabelIndex(label)
		if !ok {
			continue
		}
		runes := normalize.Text(body)
		text := make([]int32, len(runes))
		for i, rn := range runes {
			text[i] = int32(rn)
		}
		events := map[int]int{}
		m.Trie.ExtractFeatures(events, text)
		if len(events) == 0 {
			continue
		}
		out[k] = append(out[k], learner.Document{Label: k, Events: events})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ScanSQLite is the --corpus-db counterpart of scanning detection input a
// line at a time from a file: it streams query's (label, body) rows and
// calls fn for each, in row order, stopping at the first error fn returns.
func ScanSQLite(dsn, query string, fn func(label, body string) error) error {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var label, body string
		if err := rows.Scan(&label, &body); err != nil {
			return err
		}
		if err := fn(label, body); err != nil {
			return err
		}
	}
	return rows.Err()
}
