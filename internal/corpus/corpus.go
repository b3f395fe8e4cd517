// Package corpus loads labeled training/evaluation text into the shapes
// internal/maxsubst and internal/learner need: a flat concatenated,
// normalized text buffer for feature discovery, and per-document sparse
// feature-count events for training and scoring. Model file I/O framing
// and a full corpus-management CLI are spec.md Non-goals; this package
// only owns the two passes ldig.cpp's --init/--detection/--cv modes make
// over a corpus file.
package corpus

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nakatani/ldig-go/internal/learner"
	"github.com/nakatani/ldig-go/internal/logger"
	"github.com/nakatani/ldig-go/internal/normalize"
	"github.com/nakatani/ldig-go/pkg/model"
)

// logg returns this package's logger, built fresh per call so it always
// reflects the current global log level (internal/logger.Default).
func logg() *log.Logger { return logger.Default("corpus") }

// maxLineBytes bounds the line length bufio.Scanner will accept; corpus
// lines are short text plus a label, but some corpora carry long ids.
const maxLineBytes = 4 * 1024 * 1024

func newLineScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return s
}

// splitLabelText splits a raw training line at its first tab: the label
// field, then everything else. Used during the label-discovery pass,
// before any model (and therefore labelmap) exists.
func splitLabelText(line string) (label, text string, ok bool) {
	i := strings.IndexByte(line, '\t')
	if i < 0 {
		return "", "", false
	}
	return line[:i], line[i+1:], true
}

// ExtractLabel mirrors ldig.cpp's extract_label: the label is the field
// before the first tab. If that field isn't one of the model's known
// labels, the line may carry an extra leading id column (a format the
// training corpus didn't have), so the second field (between the first
// and second tabs) is tried before giving up.
func ExtractLabel(m *model.Model, line string) (label, rest string, ok bool) {
	first := strings.IndexByte(line, '\t')
	if first < 0 {
		return "", "", false
	}
	candidate := line[:first]
	if _, known := m.LabelIndex(candidate); known {
		return candidate, line[first+1:], true
	}

	afterFirst := line[first+1:]
	second := strings.IndexByte(afterFirst, '\t')
	if second < 0 {
		return "", "", false
	}
	candidate2 := afterFirst[:second]
	if _, known := m.LabelIndex(candidate2); known {
		return candidate2, afterFirst[second+1:], true
	}
	return "", "", false
}

// Prepare performs the corpus's first pass: discover the sorted set of
// distinct labels and build the single concatenated, normalized text
// buffer internal/maxsubst.Extract scans for candidate features. Each
// line's text is normalized and sentinel-wrapped independently
// (internal/normalize.Text), so no feature can span two documents.
func Prepare(path string) (labels []string, text []int32, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return prepare(f)
}

func prepare(r io.Reader) ([]string, []int32, error) {
	labelSet := map[string]struct{}{}
	var text []int32
	skipped := 0

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		label, body, ok := splitLabelText(line)
		if !ok {
			skipped++
			continue
		}
		labelSet[label] = struct{}{}
		for _, rn := range normalize.Text(body) {
			text = append(text, int32(rn))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if skipped > 0 {
		logg().Warnf("corpus: skipped %d lines with no label field", skipped)
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels, text, nil
}

// LoadFile performs the corpus's second pass, run once a model (and
// therefore its trie) exists: for every line, extract the label and
// scan the normalized text through m.Trie to get the sparse feature
// events that pass, bucketed, straight into a learner.Corpus.
func LoadFile(path string, m *model.Model) (learner.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadDocuments(f, m)
}

func loadDocuments(r io.Reader, m *model.Model) (learner.Corpus, error) {
	out := make(learner.Corpus, m.K)
	skipped := 0

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		label, body, ok := ExtractLabel(m, line)
		if !ok {
			skipped++
			continue
		}
		k, known := m.LabelIndex(label)
		if !known {
			skipped++
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
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		logg().Warnf("corpus: skipped %d unrecognized-label lines", skipped)
	}
	return out, nil
}
