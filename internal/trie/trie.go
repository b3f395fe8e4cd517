// Package trie implements the double-array trie (spec.md §4.3): a compact
// DFA representation of a feature set that supports O(1) per-character
// transitions and therefore a multi-pattern scan over arbitrary input text
// costing at most len(text) times the longest feature length. Construction works directly off a sorted feature list
// (features.Set, whose ordering is lexicographic-then-length as produced
// by internal/maxsubst) rather than building and discarding an
// intermediate pointer-based trie, mirroring ldigcpp/ldig/da.hpp's
// DoubleArray::construct.
package trie

import "github.com/nakatani/ldig-go/internal/features"

// Trie is a double array: state s's transition on code point c lands at
// base[s]+c, valid only when check[base[s]+c] == s. value[s] holds the
// feature index terminating at state s, or -1.
type Trie struct {
	base  []int32
	check []int32
	value []int32

	// searchFrom is a monotonic lower bound on where the next free base
	// offset might be; it never needs to be exact, only a valid starting
	// point, since findBase re-verifies every candidate.
	searchFrom int32
}

type branch struct {
	ch     int32
	lo, hi int
}

type frame struct {
	index, left, right, depth int
}

// Construct builds a double-array trie over fs. fs's features must be
// sorted lexicographically by content with ties broken by ascending
// length — exactly the order internal/maxsubst.Extract and
// internal/features preserve.
func Construct(fs *features.Set) *Trie {
	t := &Trie{
		base:       []int32{0},
		check:      []int32{-1},
		value:      []int32{-1},
		searchFrom: 1,
	}
	n := fs.Len()
	if n == 0 {
		return t
	}

	queue := []frame{{index: 0, left: 0, right: n, depth: 0}}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		left := f.left
		if left < f.right && fs.At(left).Len == f.depth {
			t.value[f.index] = int32(left)
			left++
		}
		if left >= f.right {
			continue
		}

		branches := partition(fs, left, f.right, f.depth)
		base := t.findBase(branches)
		t.base[f.index] = base
		for _, b := range branches {
			child := int(base) + int(b.ch)
			t.ensureLen(child + 1)
			t.check[child] = int32(f.index)
			queue = append(queue, frame{index: child, left: b.lo, right: b.hi, depth: f.depth + 1})
		}
	}
	return t
}

// partition splits the sorted feature range [left, right) into
// contiguous runs sharing the same code point at position depth.
func partition(fs *features.Set, left, right, depth int) []branch {
	var branches []branch
	i := left
	for i < right {
		c := fs.Slice(i)[depth]
		j := i + 1
		for j < right && fs.Slice(j)[depth] == c {
			j++
		}
		branches = append(branches, branch{ch: c, lo: i, hi: j})
		i = j
	}
	return branches
}

// findBase returns a base offset for which every branch's child slot is
// either free (check < 0) or not yet allocated, and never lands on state 0.
func (t *Trie) findBase(branches []branch) int32 {
	for base := t.searchFrom; ; base++ {
		ok := true
		for _, b := range branches {
			idx := int(base) + int(b.ch)
			if idx == 0 || (idx < len(t.check) && t.check[idx] >= 0) {
				ok = false
				break
			}
		}
		if ok {
			t.searchFrom = base + 1
			return base
		}
	}
}

func (t *Trie) ensureLen(n int) {
	for len(t.base) < n {
		t.base = append(t.base, 0)
		t.check = append(t.check, -1)
		t.value = append(t.value, -1)
	}
}

// Get returns the feature index exactly matching key, or -1.
func (t *Trie) Get(key []int32) int {
	cur := int32(0)
	for _, c := range key {
		next := int(t.base[cur]) + int(c)
		if next >= len(t.check) || t.check[next] != cur {
			return -1
		}
		cur = int32(next)
	}
	if v := t.value[cur]; v >= 0 {
		return int(v)
	}
	return -1
}

// ExtractFeatures walks every starting position of text once, incrementing
// events[featureIndex] for each feature matched starting there. Each inner
// loop exits on the first character that has no outgoing transition, so it
// runs at most as many steps as the longest feature, and the whole scan is
// O(len(text) * longest feature length).
func (t *Trie) ExtractFeatures(events map[int]int, text []int32) {
	n := len(text)
	for start := 0; start < n; start++ {
		cur := int32(0)
		for i := start; i < n; i++ {
			next := int(t.base[cur]) + int(text[i])
			if next >= len(t.check) || t.check[next] != cur {
				break
			}
			cur = int32(next)
			if v := t.value[cur]; v >= 0 {
				events[int(v)]++
			}
		}
	}
}

// Size returns the number of allocated double-array cells, mostly for
// diagnostics and tests.
func (t *Trie) Size() int { return len(t.base) }
