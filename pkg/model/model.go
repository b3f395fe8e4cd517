// Package model defines the trained language-identification model
// container and its binary file format (spec.md §6): a label list, the
// shared feature set, the double-array trie built over it, and the
// learner's weight matrix.
package model

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/nakatani/ldig-go/internal/features"
	"github.com/nakatani/ldig-go/internal/fsutil"
	"github.com/nakatani/ldig-go/internal/trie"
)

// sizeMarker records the word size the writer used for its one
// variable-width field (the text-buffer length prefix), mirroring
// ldigcpp's sizeof(size_t) byte. ldig-go always writes 8.
const sizeMarker = 8

// Model is K labels by M features: Params is row-major with features as
// the outer axis (Params[i*K+k], i = feature index, k = label index),
// matching the learner's hot-loop iteration order over a document's
// sparse feature-count events (spec.md §9).
type Model struct {
	K int
	M int

	Labels   []string
	Features *features.Set
	Trie     *trie.Trie
	Params   []float64

	labelIndex map[string]int
}

// New builds an untrained model: zero weights, a trie over fs.
func New(labels []string, fs *features.Set) *Model {
	m := &Model{
		K:        len(labels),
		M:        fs.Len(),
		Labels:   append([]string(nil), labels...),
		Features: fs,
		Params:   make([]float64, fs.Len()*len(labels)),
	}
	m.Trie = trie.Construct(fs)
	m.buildLabelIndex()
	return m
}

func (m *Model) buildLabelIndex() {
	m.labelIndex = make(map[string]int, len(m.Labels))
	for i, l := range m.Labels {
		m.labelIndex[l] = i
	}
}

// LabelIndex returns label's column index in Params, or false if label
// is not one of the model's trained labels.
func (m *Model) LabelIndex(label string) (int, bool) {
	if m.labelIndex == nil {
		m.buildLabelIndex()
	}
	k, ok := m.labelIndex[label]
	return k, ok
}

// RebuildTrie reconstructs Trie from the current Features. Callers that
// replace Features (internal/learner's pruning pass) must call this
// afterward to keep Trie in sync.
func (m *Model) RebuildTrie() { m.Trie = trie.Construct(m.Features) }

// Save writes m to path using WriteFileAtomic so a crash mid-write never
// leaves a truncated model file behind (spec.md §7).
func (m *Model) Save(path string) error {
	return fsutil.WriteFileAtomic(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if err := writeModel(w, m); err != nil {
			return err
		}
		return w.Flush()
	})
}

func writeModel(w io.Writer, m *Model) error {
	if err := binary.Write(w, binary.LittleEndian, uint8(sizeMarker)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(m.K)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(m.M)); err != nil {
		return err
	}

	for _, label := range m.Labels {
		b := []byte(label)
		if len(b) > 0xff {
			return fmt.Errorf("model: label %q exceeds 255 bytes", label)
		}
		if err := binary.Write(w, binary.LittleEndian, uint8(len(b))); err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}

	textBytes := []byte(string(m.Features.Text()))
	if err := binary.Write(w, binary.LittleEndian, uint64(len(textBytes))); err != nil {
		return err
	}
	if _, err := w.Write(textBytes); err != nil {
		return err
	}

	for _, f := range m.Features.All() {
		if err := binary.Write(w, binary.LittleEndian, int32(f.Begin)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(f.Len)); err != nil {
			return err
		}
	}

	for _, p := range m.Params {
		if err := binary.Write(w, binary.LittleEndian, p); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a model previously written by Save.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readModel(bufio.NewReader(f))
}

func readModel(r io.Reader) (*Model, error) {
	var marker uint8
	if err := binary.Read(r, binary.LittleEndian, &marker); err != nil {
		return nil, fmt.Errorf("model: reading size marker: %w", err)
	}
	if marker != sizeMarker {
		return nil, fmt.Errorf("model: unsupported size marker %d (want %d); model file is from an incompatible writer", marker, sizeMarker)
	}

	var k, mCount int32
	if err := binary.Read(r, binary.LittleEndian, &k); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &mCount); err != nil {
		return nil, err
	}

	labels := make([]string, k)
	for i := range labels {
		var n uint8
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		labels[i] = string(b)
	}

	var textLen uint64
	if err := binary.Read(r, binary.LittleEndian, &textLen); err != nil {
		return nil, err
	}
	textBytes := make([]byte, textLen)
	if _, err := io.ReadFull(r, textBytes); err != nil {
		return nil, err
	}
	text := make([]int32, 0, len(textBytes))
	for _, rn := range string(textBytes) {
		text = append(text, int32(rn))
	}

	fs := make([]features.Feature, mCount)
	for i := range fs {
		var begin, length int32
		if err := binary.Read(r, binary.LittleEndian, &begin); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, err
		}
		fs[i] = features.Feature{Begin: int(begin), Len: int(length)}
	}

	params := make([]float64, int(mCount)*int(k))
	for i := range params {
		if err := binary.Read(r, binary.LittleEndian, &params[i]); err != nil {
			return nil, err
		}
	}

	m := &Model{
		K:        int(k),
		M:        int(mCount),
		Labels:   labels,
		Features: features.New(text, fs),
		Params:   params,
	}
	m.RebuildTrie()
	m.buildLabelIndex()
	return m, nil
}
