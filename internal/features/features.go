// Package features owns the shared text buffer and the feature set built
// on top of it (spec.md §4.2): every Feature is a (begin, len) slice into a
// single backing buffer, addressed by integer offset rather than pointer so
// compaction ("shrink") can rewrite every offset atomically without
// invalidating outstanding references.
package features

import "sort"

// Feature is a (begin, len) slice into a Set's text buffer.
type Feature struct {
	Begin int
	Len   int
}

// Set owns the text buffer T and the ordered list of features addressing
// it. Features must stay pairwise distinct as substrings once Shrink has
// run; before that they may still share prefixes/suffixes in the source
// buffer.
type Set struct {
	text     []int32
	features []Feature
}

// New builds a Set directly from an already-sorted (begin, len) list over
// text — the shape internal/maxsubst.Extract produces. The set takes
// ownership of text; callers must not mutate it afterward.
func New(text []int32, fs []Feature) *Set {
	return &Set{text: text, features: fs}
}

// Text returns the backing buffer.
func (s *Set) Text() []int32 { return s.text }

// Len returns the number of features (M in spec.md's data model).
func (s *Set) Len() int { return len(s.features) }

// At returns the i'th feature.
func (s *Set) At(i int) Feature { return s.features[i] }

// All returns the full feature slice. Callers must not mutate it.
func (s *Set) All() []Feature { return s.features }

// Slice returns the code points the i'th feature addresses.
func (s *Set) Slice(i int) []int32 {
	f := s.features[i]
	return s.text[f.Begin : f.Begin+f.Len]
}

// FeatureString returns the i'th feature's substring as Go runes, mostly
// for --dump and tests.
func (s *Set) FeatureString(i int) string {
	return string(s.Slice(i))
}

// NewFromFeatures copy-constructs a Set from a feature list addressing an
// existing buffer, allocating a brand-new backing buffer (spec.md §4.2
// "Construction from feature list"). Features are processed longest-first
// so a shorter feature that happens to be a substring of an
// already-placed longer one reuses its storage instead of duplicating it.
func NewFromFeatures(srcText []int32, srcFeatures []Feature) *Set {
	type indexed struct {
		idx int
		f   Feature
	}
	order := make([]indexed, len(srcFeatures))
	for i, f := range srcFeatures {
		order[i] = indexed{idx: i, f: f}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return order[a].f.Len > order[b].f.Len
	})

	newFeatures := make([]Feature, len(srcFeatures))
	var newText []int32
	for _, e := range order {
		sub := srcText[e.f.Begin : e.f.Begin+e.f.Len]
		j := indexOf(newText, sub)
		if j < 0 {
			j = len(newText)
			newText = append(newText, sub...)
		}
		newFeatures[e.idx] = Feature{Begin: j, Len: e.f.Len}
	}
	return &Set{text: newText, features: newFeatures}
}

// Filter returns a new Set holding only the features for which keep[i] is
// true, preserving their relative order and sharing a copy of the current
// text buffer. Callers typically follow with Shrink to compact the result
// (this is the shape internal/learner's pruning pass needs).
func (s *Set) Filter(keep []bool) *Set {
	nf := make([]Feature, 0, len(s.features))
	for i, f := range s.features {
		if keep[i] {
			nf = append(nf, f)
		}
	}
	text := make([]int32, len(s.text))
	copy(text, s.text)
	return &Set{text: text, features: nf}
}

// Shrink compacts the text buffer in place: overlapping features share
// storage and non-overlapping ones are concatenated with zero-length gaps
// between them (spec.md §4.2 "Shrink"). Idempotent, and preserves every
// feature's slice content exactly.
func (s *Set) Shrink() {
	type indexed struct {
		idx int
		f   Feature
	}
	order := make([]indexed, len(s.features))
	for i, f := range s.features {
		order[i] = indexed{idx: i, f: f}
	}
	sort.SliceStable(order, func(a, b int) bool {
		if order[a].f.Begin != order[b].f.Begin {
			return order[a].f.Begin < order[b].f.Begin
		}
		return order[a].f.Len > order[b].f.Len
	})

	orgText := s.text
	newText := make([]int32, 0, len(orgText))

	preBegin, curBegin, preEnd := 0, 0, 0
	for _, e := range order {
		begin, length := e.f.Begin, e.f.Len
		if begin > preBegin {
			if begin > preEnd {
				curBegin += preEnd - preBegin
			} else {
				curBegin += begin - preBegin
			}
		}
		s.features[e.idx] = Feature{Begin: curBegin, Len: length}
		preBegin = begin
		if preEnd < preBegin+length {
			preEnd = preBegin + length
			curEnd := preBegin + (len(newText) - curBegin)
			if preEnd > curEnd {
				newText = append(newText, orgText[curEnd:preEnd]...)
			}
		}
	}
	s.text = newText
}

// indexOf returns the first index at which needle occurs in haystack, or
// -1. A naive scan is enough here: it only runs during model
// construction/shrink, never in the inference hot path.
func indexOf(haystack, needle []int32) int {
	n, m := len(haystack), len(needle)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		match := true
		for j := 0; j < m; j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
