package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func runes(s string) []int32 {
	out := make([]int32, len([]rune(s)))
	for i, r := range []rune(s) {
		out[i] = int32(r)
	}
	return out
}

func TestShrinkCompactsOverlappingFeatures(t *testing.T) {
	text := runes("abracadabra")
	fs := []Feature{{Begin: 7, Len: 4}, {Begin: 10, Len: 1}}
	s := New(text, fs)

	want0 := s.FeatureString(0)
	want1 := s.FeatureString(1)

	s.Shrink()

	assert.Equal(t, "abra", string(s.Text()))
	assert.Equal(t, Feature{Begin: 0, Len: 4}, s.At(0))
	assert.Equal(t, Feature{Begin: 3, Len: 1}, s.At(1))
	assert.Equal(t, want0, s.FeatureString(0))
	assert.Equal(t, want1, s.FeatureString(1))
}

func TestShrinkSeparatesNonOverlappingFeatures(t *testing.T) {
	text := runes("foo---bar")
	fs := []Feature{{Begin: 0, Len: 3}, {Begin: 6, Len: 3}}
	s := New(text, fs)
	s.Shrink()

	assert.Equal(t, "foobar", string(s.Text()))
	assert.Equal(t, "foo", s.FeatureString(0))
	assert.Equal(t, "bar", s.FeatureString(1))
}

func TestNewFromFeaturesDedupesLongestFirst(t *testing.T) {
	text := runes("abracadabra")
	src := []Feature{{Begin: 0, Len: 1}, {Begin: 7, Len: 4}}
	s := NewFromFeatures(text, src)

	assert.Equal(t, "a", s.FeatureString(0))
	assert.Equal(t, "abra", s.FeatureString(1))
	// "a" is a substring of "abra" once placed, so it must be reused
	// rather than duplicated in the new buffer.
	assert.LessOrEqual(t, len(s.Text()), len("abra"))
}

func TestFilterPreservesOrderAndContent(t *testing.T) {
	text := runes("abracadabra")
	s := New(text, []Feature{{Begin: 0, Len: 4}, {Begin: 7, Len: 4}, {Begin: 10, Len: 1}})

	filtered := s.Filter([]bool{true, false, true})
	if assert.Equal(t, 2, filtered.Len()) {
		assert.Equal(t, "abra", filtered.FeatureString(0))
		assert.Equal(t, "a", filtered.FeatureString(1))
	}
}
