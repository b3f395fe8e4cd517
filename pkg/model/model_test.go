package model

import (
	"path/filepath"
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

func TestSaveLoadRoundTrip(t *testing.T) {
	text := runes("abcab")
	fs := features.New(text, []features.Feature{
		{Begin: 0, Len: 1},
		{Begin: 0, Len: 2},
		{Begin: 1, Len: 1},
	})
	m := New([]string{"en", "ja", "fr"}, fs)
	for i := range m.Params {
		m.Params[i] = float64(i) * 0.5
	}

	path := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, m.K, loaded.K)
	assert.Equal(t, m.M, loaded.M)
	assert.Equal(t, m.Labels, loaded.Labels)
	assert.Equal(t, m.Params, loaded.Params)
	assert.Equal(t, string(m.Features.Text()), string(loaded.Features.Text()))
	for i := 0; i < m.M; i++ {
		assert.Equal(t, m.Features.At(i), loaded.Features.At(i))
	}

	k, ok := loaded.LabelIndex("ja")
	assert.True(t, ok)
	assert.Equal(t, 1, k)

	assert.Equal(t, loaded.Trie.Get(runes("a")), m.Trie.Get(runes("a")))
}

func TestLabelIndexUnknown(t *testing.T) {
	fs := features.New(runes("a"), []features.Feature{{Begin: 0, Len: 1}})
	m := New([]string{"en"}, fs)
	_, ok := m.LabelIndex("xx")
	assert.False(t, ok)
}
