// Package report writes the machine-readable training report that --init
// saves alongside a model, using msgpack the way the pack's IPC-serving
// examples do for structured inter-process payloads. Not part of spec.md's
// distilled scope; a SPEC_FULL.md ambient-stack addition so a training run
// leaves a record a plotting or monitoring tool can consume without
// parsing the log output.
package report

import (
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/nakatani/ldig-go/internal/learner"
)

// Epoch is one epoch's training summary.
type Epoch struct {
	Index         int     `msgpack:"epoch"`
	Correct       []int   `msgpack:"correct"`
	Total         []int   `msgpack:"total"`
	LogLikelihood float64 `msgpack:"log_likelihood"`
	FeatureCount  int     `msgpack:"feature_count"`
	Eta           float64 `msgpack:"eta"`
}

// FromStats converts a learner.EpochStats into a report Epoch.
func FromStats(index int, stats learner.EpochStats, featureCount int, eta float64) Epoch {
	return Epoch{
		Index:         index,
		Correct:       append([]int(nil), stats.Correct...),
		Total:         append([]int(nil), stats.Total...),
		LogLikelihood: stats.LogLikelihood,
		FeatureCount:  featureCount,
		Eta:           eta,
	}
}

// Training is a full run's report: the labels trained against plus one
// Epoch entry per pass.
type Training struct {
	Labels []string `msgpack:"labels"`
	Epochs []Epoch  `msgpack:"epochs"`
}

// Add appends an epoch's summary to the report.
func (t *Training) Add(e Epoch) { t.Epochs = append(t.Epochs, e) }

// WriteFile msgpack-encodes t to path.
func WriteFile(path string, t *Training) error {
	b, err := msgpack.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ReadFile decodes a report previously written by WriteFile.
func ReadFile(path string) (*Training, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Training
	if err := msgpack.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
