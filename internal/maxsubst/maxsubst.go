// Package maxsubst implements the maximal-substring feature extractor
// (spec.md §4.1): given a concatenated corpus text and a minimum-frequency
// threshold, it derives the set of left-maximal substrings that pass the
// content filter, ready to be handed to internal/features.
package maxsubst

import (
	"sort"

	"github.com/nakatani/ldig-go/internal/esa"
)

// CharMax is the maximum code point the double-array trie's CHAR alphabet
// addresses (spec.md §4.3's K = 0x10000). Any code point outside [1, CharMax)
// is folded to a plain space before ESA construction, matching
// ldigcpp/ldig/da.hpp's `if (*icv == 0 || *icv >= K) *icv = 32;`.
const CharMax = 0x10000

// LineFeedSentinel is the reserved boundary character (spec.md GLOSSARY).
const LineFeedSentinel int32 = 1

// Candidate is a single (begin, len) maximal substring plus its frequency
// count: the left-extension count + 1, where the left-extension count is the
// number of changes of preceding character along the node's suffix-array
// interval. Count is not the number of occurrences of the substring.
type Candidate struct {
	Begin int
	Len   int
	Count int
}

// Extract returns the maximal-substring candidates of text that satisfy
// spec.md §4.1's three criteria: depth > 0, left-extension count + 1 >=
// minFreq, and the content filter (no interior line-feed sentinel, at
// least one letter-class code point). Candidates are returned pre-sorted
// lexicographically by substring content, then by ascending length, as
// required for downstream trie construction.
//
// text is mutated in place to fold out-of-range code points to a space,
// exactly like the original's sanitization pass — callers that need the
// unmodified text should pass a copy.
func Extract(text []int32, minFreq int) ([]Candidate, int, error) {
	n := len(text)
	for i, c := range text {
		if c == 0 || c >= CharMax {
			text[i] = ' '
		}
	}

	result, err := esa.Build(text)
	if err != nil {
		return nil, -1, err
	}
	if n == 0 {
		return nil, 0, nil
	}

	rank := esa.Rank(text, result.SA)

	candidates := make([]Candidate, 0, result.N/4+1)
	for i := 0; i < result.N; i++ {
		depth := int(result.D[i])
		if depth <= 0 {
			continue
		}
		leftExt := int(rank[result.R[i]-1] - rank[result.L[i]])
		count := leftExt + 1
		if count < minFreq {
			continue
		}
		begin := int(result.SA[result.L[i]])
		length := depth
		if passesContentFilter(text, begin, length) {
			candidates = append(candidates, Candidate{Begin: begin, Len: length, Count: count})
		}
	}

	sortCandidates(text, candidates)
	return candidates, result.N, nil
}

// passesContentFilter implements spec.md §4.1 criterion 3: the line-feed
// sentinel may only appear at the first or last position of the slice, and
// at least one letter-class code point (GLOSSARY) must appear anywhere in
// it. Ranges are preserved verbatim from the original (spec.md §9 open
// question).
func passesContentFilter(text []int32, begin, length int) bool {
	hasLetter := false
	for j := 0; j < length; j++ {
		c := text[begin+j]
		switch {
		case c <= 0x40:
			if c == LineFeedSentinel && j > 0 && j < length-1 {
				return false
			}
		case c <= 0x5a,
			c >= 0x61 && c <= 0x7a,
			c >= 0xc0 && c < 0x2000,
			c >= 0x20a0 && c < 0x20d0,
			c >= 0x2c00 && c < 0x3000,
			c >= 0x3040:
			hasLetter = true
		}
	}
	return hasLetter
}

// sortCandidates sorts in place by the lexicographic content of the slice
// each candidate addresses, then by ascending length (spec.md §4.1
// "Output ordering").
func sortCandidates(text []int32, candidates []Candidate) {
	sort.SliceStable(candidates, func(x, y int) bool {
		a, b := candidates[x], candidates[y]
		i, j := a.Begin, b.Begin
		ie, je := a.Begin+a.Len, b.Begin+b.Len
		for i < ie && j < je {
			if text[i] != text[j] {
				return text[i] < text[j]
			}
			i++
			j++
		}
		return a.Len < b.Len
	})
}
