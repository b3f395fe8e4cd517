package learner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakatani/ldig-go/internal/config"
	"github.com/nakatani/ldig-go/internal/features"
	"github.com/nakatani/ldig-go/pkg/model"
)

func runes(s string) []int32 {
	out := make([]int32, len([]rune(s)))
	for i, r := range []rune(s) {
		out[i] = int32(r)
	}
	return out
}

func newTestModel() *model.Model {
	text := runes("ab")
	fs := features.New(text, []features.Feature{
		{Begin: 0, Len: 1}, // "a"
		{Begin: 1, Len: 1}, // "b"
	})
	return model.New([]string{"en", "fr"}, fs)
}

func TestPredictSumsToOne(t *testing.T) {
	m := newTestModel()
	m.Params[0*m.K+0] = 1.0
	m.Params[1*m.K+1] = 1.0

	probs := make([]float64, m.K)
	best := Predict(probs, m, map[int]int{0: 1})
	assert.Equal(t, 0, best)

	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestEpochLearnsSeparableLabels(t *testing.T) {
	m := newTestModel()
	cfg := config.DefaultConfig().Train
	cfg.Seed = 1
	s := NewState(m, &cfg)

	corpus := Corpus{
		{{Label: 0, Events: map[int]int{0: 3}}}, // feature "a" -> label en
		{{Label: 1, Events: map[int]int{1: 3}}}, // feature "b" -> label fr
	}

	var last EpochStats
	for i := 0; i < 50; i++ {
		last = s.Epoch(corpus, 0.5, 0)
	}
	require.Equal(t, []int{1, 1}, last.Total)

	probs := make([]float64, m.K)
	assert.Equal(t, 0, Predict(probs, m, map[int]int{0: 3}))
	assert.Equal(t, 1, Predict(probs, m, map[int]int{1: 3}))
}

func TestPruneDropsNegligibleFeatures(t *testing.T) {
	m := newTestModel()
	cfg := config.DefaultConfig().Train
	s := NewState(m, &cfg)

	m.Params[0*m.K+0] = 1.0 // feature "a" has a real weight
	m.Params[1*m.K+0] = 0.0 // feature "b" is entirely zero
	m.Params[1*m.K+1] = 0.0

	kept := s.Prune()
	assert.Equal(t, 1, kept)
	assert.Equal(t, 1, m.M)
	assert.Equal(t, "a", m.Features.FeatureString(0))
	assert.Len(t, s.applied, m.M*m.K)
}

func TestLikelihoodDoesNotMutateParams(t *testing.T) {
	m := newTestModel()
	m.Params[0*m.K+0] = 2.0
	before := append([]float64(nil), m.Params...)

	corpus := Corpus{
		{{Label: 0, Events: map[int]int{0: 1}}},
		{{Label: 1, Events: map[int]int{1: 1}}},
	}
	stats := Likelihood(m, corpus)

	assert.Equal(t, before, m.Params)
	assert.Equal(t, []int{1, 1}, stats.Total)
}
