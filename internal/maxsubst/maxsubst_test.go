package maxsubst

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) []int32 {
	out := make([]int32, len([]rune(s)))
	for i, r := range []rune(s) {
		out[i] = int32(r)
	}
	return out
}

func TestExtractFiltersByFrequency(t *testing.T) {
	text := runes(string(rune(LineFeedSentinel)) + "abcabcabc" + string(rune(LineFeedSentinel)))
	cands, nodeNum, err := Extract(text, 2)
	require.NoError(t, err)
	assert.Greater(t, nodeNum, 0)

	for _, c := range cands {
		assert.GreaterOrEqual(t, c.Count, 2)
	}

	// "abc" is preceded by 'c', 'c' and the sentinel in suffix-array order:
	// two runs of predecessor characters, so its count is 2.
	found := false
	for _, c := range cands {
		if string(runeSlice(text, c.Begin, c.Len)) == "abc" {
			found = true
			assert.Equal(t, 2, c.Count)
		}
	}
	assert.True(t, found, "expected 'abc' (count 2) to survive min-frequency 2")
}

func TestExtractSortedLexThenLength(t *testing.T) {
	text := runes(string(rune(LineFeedSentinel)) + "aaabaaab" + string(rune(LineFeedSentinel)))
	cands, _, err := Extract(text, 2)
	require.NoError(t, err)
	require.True(t, sort.SliceIsSorted(cands, func(i, j int) bool {
		return lessLexThenLen(text, cands[i], cands[j])
	}))
}

func TestExtractRejectsInteriorSentinel(t *testing.T) {
	// A candidate spanning the sentinel mid-substring must never appear;
	// the sentinel may only be a leading/trailing character of a feature.
	text := runes(string(rune(LineFeedSentinel)) + "ab" + string(rune(LineFeedSentinel)) + "ab" + string(rune(LineFeedSentinel)))
	cands, _, err := Extract(text, 2)
	require.NoError(t, err)
	for _, c := range cands {
		for j := 1; j < c.Len-1; j++ {
			assert.NotEqual(t, LineFeedSentinel, text[c.Begin+j])
		}
	}
}

func TestExtractRejectsNoLetterContent(t *testing.T) {
	text := runes(string(rune(LineFeedSentinel)) + "111222111222" + string(rune(LineFeedSentinel)))
	cands, _, err := Extract(text, 2)
	require.NoError(t, err)
	for _, c := range cands {
		assert.True(t, passesContentFilter(text, c.Begin, c.Len))
	}
}

func runeSlice(text []int32, begin, length int) []int32 {
	return text[begin : begin+length]
}

func lessLexThenLen(text []int32, a, b Candidate) bool {
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
}
