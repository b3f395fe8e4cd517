package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakatani/ldig-go/internal/features"
)

func runes(s string) []int32 {
	out := make([]int32, len([]rune(s)))
	for i, r := range []rune(s) {
		out[i] = int32(r)
	}
	return out
}

// buildFixture builds the feature set {"a", "ab", "abc", "b"} over the text
// "abcb", already in the lexicographic-then-length order Construct expects.
func buildFixture() (*features.Set, []int32) {
	text := runes("abcb")
	fs := features.New(text, []features.Feature{
		{Begin: 0, Len: 1}, // "a"
		{Begin: 0, Len: 2}, // "ab"
		{Begin: 0, Len: 3}, // "abc"
		{Begin: 1, Len: 1}, // "b"
	})
	return fs, text
}

func TestConstructAndGetExactMatches(t *testing.T) {
	fs, text := buildFixture()
	tr := Construct(fs)

	assert.Equal(t, 0, tr.Get(text[0:1]))
	assert.Equal(t, 1, tr.Get(text[0:2]))
	assert.Equal(t, 2, tr.Get(text[0:3]))
	assert.Equal(t, 3, tr.Get(text[1:2]))
	assert.Equal(t, -1, tr.Get(text[2:3])) // "c" is not a feature
	assert.Equal(t, -1, tr.Get(runes("zzz")))
}

func TestExtractFeaturesScansEveryStart(t *testing.T) {
	fs, text := buildFixture()
	tr := Construct(fs)

	events := map[int]int{}
	tr.ExtractFeatures(events, text)

	require.Equal(t, 4, len(events))
	assert.Equal(t, 1, events[0]) // "a" matched once at position 0
	assert.Equal(t, 1, events[1]) // "ab" matched once at position 0
	assert.Equal(t, 1, events[2]) // "abc" matched once at position 0
	assert.Equal(t, 2, events[3]) // "b" matched at positions 1 and 3
}

func TestConstructEmptyFeatureSet(t *testing.T) {
	fs := features.New(nil, nil)
	tr := Construct(fs)
	assert.Equal(t, -1, tr.Get(runes("a")))

	events := map[int]int{}
	tr.ExtractFeatures(events, runes("abc"))
	assert.Empty(t, events)
}
