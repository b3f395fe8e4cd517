// Package learner implements the sparse SGD multinomial logistic
// regression trainer (spec.md §4.4): softmax prediction, a single
// gradient step with an update gate, and cumulative-penalty lazy L1
// regularization (Tsuruoka, Tsuchiya & Tsujii, 2009) so a step's cost
// stays proportional to the touched document's feature count rather
// than to the full K-by-M parameter matrix.
package learner

import (
	"math"
	"math/rand"

	"github.com/nakatani/ldig-go/internal/config"
	"github.com/nakatani/ldig-go/pkg/model"
)

// Document is one labeled training example: the label's column index in
// the model and the sparse feature-count vector extracted via the
// model's trie over its normalized text.
type Document struct {
	Label  int
	Events map[int]int
}

// Corpus buckets documents by label index for the epoch loop's balanced,
// oversampled iteration order: Corpus[k] holds every training document
// labeled k.
type Corpus [][]Document

// EpochStats summarizes one pass over a corpus.
type EpochStats struct {
	Correct       []int
	Total         []int
	LogLikelihood float64
}

// State is the learner's mutable optimization state layered on top of a
// Model: Model.Params IS the weight matrix being trained, and u/applied
// are the cumulative-penalty bookkeeping the lazy L1 update needs.
type State struct {
	Model *model.Model
	Cfg   *config.TrainConfig

	u       float64   // total L1 penalty accrued so far, applied lazily
	applied []float64 // per-weight penalty already applied (parallel to Params)
	rng     *rand.Rand
}

// NewState creates a learner over m using cfg's tunables and rng seed.
func NewState(m *model.Model, cfg *config.TrainConfig) *State {
	return &State{
		Model:   m,
		Cfg:     cfg,
		applied: make([]float64, len(m.Params)),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Predict computes softmax(events^T * W) into probs (length K) using the
// max-subtraction trick for numerical stability, and returns the argmax
// label index.
func Predict(probs []float64, m *model.Model, events map[int]int) int {
	k := m.K
	for i := range probs {
		probs[i] = 0
	}
	for feat, count := range events {
		base := feat * k
		c := float64(count)
		for kk := 0; kk < k; kk++ {
			probs[kk] += c * m.Params[base+kk]
		}
	}

	maxZ := probs[0]
	for _, v := range probs[1:] {
		if v > maxZ {
			maxZ = v
		}
	}
	sum := 0.0
	for kk, v := range probs {
		e := math.Exp(v - maxZ)
		probs[kk] = e
		sum += e
	}
	best := 0
	for kk := range probs {
		probs[kk] /= sum
		if probs[kk] > probs[best] {
			best = kk
		}
	}
	return best
}

// Likelihood scores corpus under the model's current parameters without
// modifying them: per-label correct/total counts plus the total negative
// log-likelihood.
func Likelihood(m *model.Model, corpus Corpus) EpochStats {
	stats := EpochStats{Correct: make([]int, m.K), Total: make([]int, m.K)}
	probs := make([]float64, m.K)
	for labelK, docs := range corpus {
		for _, doc := range docs {
			predicted := Predict(probs, m, doc.Events)
			stats.Total[labelK]++
			if predicted == labelK {
				stats.Correct[labelK]++
			}
			stats.LogLikelihood -= math.Log(ClampProb(probs[labelK]))
		}
	}
	return stats
}

// ClampProb floors a softmax probability away from zero so its log is
// always finite, for likelihood scoring both here and at detection time.
func ClampProb(p float64) float64 {
	if p < 1e-300 {
		return 1e-300
	}
	return p
}

// Epoch runs one balanced, oversampled pass of SGD over corpus. Every
// label with at least one document contributes exactly
// D = max(len(corpus[k])) samples per epoch (labels with none are skipped):
// labels with fewer documents than D are cycled through repeatedly, with
// the final, possibly-partial cycle drawn uniformly at random instead of
// deterministically so it doesn't always repeat the same prefix. When
// reg > 0, every touched weight gets the lazy cumulative-penalty L1
// correction, plus occasional full-matrix catch-up passes so weights
// that go untouched for a long stretch don't drift from ground truth.
func (s *State) Epoch(corpus Corpus, eta, reg float64) EpochStats {
	k := s.Model.K
	d := 0
	for _, docs := range corpus {
		if len(docs) > d {
			d = len(docs)
		}
	}
	stats := EpochStats{Correct: make([]int, k), Total: make([]int, k)}
	if d == 0 {
		return stats
	}

	n := d * k
	perm := s.rng.Perm(n)
	probs := make([]float64, k)

	withReg := reg > 0
	alpha := math.Pow(0.9, -1.0/float64(n))
	// ~100 whole-matrix catch-up passes per epoch, scaled to corpus size
	// rather than a fixed constant (ldig.hpp:113's `(N/100)+1`).
	wholeRegInterval := n/100 + 1
	almostZero := s.Cfg.AlmostZero

	for step, nVal := range perm {
		labelK := nVal / d
		r := nVal % d
		docs := corpus[labelK]
		if len(docs) == 0 {
			continue
		}
		idx := r % len(docs)
		if r/len(docs) == d/len(docs) {
			idx = s.rng.Intn(len(docs))
		}
		doc := docs[idx]

		predicted := Predict(probs, s.Model, doc.Events)
		stats.Total[labelK]++
		if predicted == labelK {
			stats.Correct[labelK]++
		}
		stats.LogLikelihood -= math.Log(ClampProb(probs[labelK]))

		y := probs
		y[labelK] -= 1

		if withReg {
			eta *= alpha
			s.u += reg * eta / float64(n)
			for feat, count := range doc.Events {
				base := feat * k
				c := float64(count)
				for kk := 0; kk < k; kk++ {
					s.Model.Params[base+kk] -= eta * c * y[kk]
					s.regularizeOne(base + kk)
				}
			}
			if wholeRegInterval > 0 && (n-step)%wholeRegInterval == 1 {
				for i := range s.Model.Params {
					s.regularizeOne(i)
				}
			}
			continue
		}

		if y[labelK] > -almostZero {
			continue
		}
		for feat, count := range doc.Events {
			base := feat * k
			c := float64(count)
			for kk := 0; kk < k; kk++ {
				s.Model.Params[base+kk] -= eta * c * y[kk]
			}
		}
	}
	return stats
}

// regularizeOne brings weight i's applied penalty up to date with the
// cumulative penalty u accrued so far (the "lazy" step of lazy L1): a
// weight is shrunk toward zero by whatever total penalty it has missed,
// and clamped at zero rather than allowed to cross it.
func (s *State) regularizeOne(i int) {
	w := s.Model.Params[i]
	q := s.applied[i]
	switch {
	case w > 0:
		w1 := w - (s.u + q)
		if w1 > 0 {
			s.Model.Params[i] = w1
			s.applied[i] += w1 - w
		} else {
			s.Model.Params[i] = 0
			s.applied[i] -= w
		}
	case w < 0:
		w1 := w + (s.u - q)
		if w1 < 0 {
			s.Model.Params[i] = w1
			s.applied[i] += w1 - w
		} else {
			s.Model.Params[i] = 0
			s.applied[i] -= w
		}
	}
}

// Prune drops every feature whose weight is negligible across all
// labels, compacts the parameter matrix and backing text buffer to
// match, and rebuilds the trie (spec.md §4.4 "Shrink"). Returns the
// number of features kept.
func (s *State) Prune() int {
	m := s.Model
	keep := make([]bool, m.M)
	kept := 0
	for i := 0; i < m.M; i++ {
		base := i * m.K
		for kk := 0; kk < m.K; kk++ {
			if math.Abs(m.Params[base+kk]) > s.Cfg.AlmostZero {
				keep[i] = true
				break
			}
		}
		if keep[i] {
			kept++
		}
	}

	newParams := make([]float64, kept*m.K)
	pos := 0
	for i := 0; i < m.M; i++ {
		if !keep[i] {
			continue
		}
		copy(newParams[pos*m.K:(pos+1)*m.K], m.Params[i*m.K:(i+1)*m.K])
		pos++
	}

	newFeatures := m.Features.Filter(keep)
	newFeatures.Shrink()

	m.Features = newFeatures
	m.M = kept
	m.Params = newParams
	s.applied = make([]float64, len(newParams))
	m.RebuildTrie()
	return kept
}

// RunTraining executes the full epoch-based training driver (spec.md
// §4.4 / ldig.cpp's --init mode): regularization is withheld until
// RegStartEpoch, pruning starts at ShrinkAfterEpoch, and eta decays by
// EtaDecay after every epoch. onEpoch, if non-nil, is called after each
// epoch with that epoch's stats for progress logging.
func (s *State) RunTraining(corpus Corpus, epochs int, eta, reg float64, onEpoch func(epoch int, stats EpochStats)) {
	for epoch := 0; epoch < epochs; epoch++ {
		activeReg := 0.0
		if epoch >= s.Cfg.RegStartEpoch {
			activeReg = reg
		}
		stats := s.Epoch(corpus, eta, activeReg)
		if epoch >= s.Cfg.ShrinkAfterEpoch {
			s.Prune()
		}
		eta *= s.Cfg.EtaDecay
		if onEpoch != nil {
			onEpoch(epoch, stats)
		}
	}
}
