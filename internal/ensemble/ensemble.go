// Package ensemble trains and applies majority-vote ensembles of
// single-feature decision trees over similarity vectors.
package ensemble

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
)

// ErrClassifierNotTrained is returned when a prediction is requested before
// any model was fitted.
var ErrClassifierNotTrained = errors.New("classifier not trained")

// TieBias is added to the mean vote before rounding, so an even split
// counts as a match.
const TieBias = 0.001

// Mode selects what each ensemble member looks at.
type Mode string

const (
	// PerMetric trains one member per similarity metric.
	PerMetric Mode = "per_metric"
	// PerDimension trains one member per spectral bin difference.
	PerDimension Mode = "per_dimension"
)

// ParseMode parses a configuration value.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case PerMetric, PerDimension:
		return m, nil
	}
	return "", fmt.Errorf("ensemble: unknown mode %q", s)
}

// Example is one labeled feature vector.
type Example struct {
	Features []float64
	Match    bool
}

// Member is one single-feature classifier.
type Member struct {
	Column    int       `json:"column"`
	Name      string    `json:"name"`
	Selection Selection `json:"selection"`
	Tree      Tree      `json:"tree"`
}

// Ensemble is an immutable trained model.
type Ensemble struct {
	Mode        Mode      `json:"mode"`
	FeatureSize int       `json:"feature_size"`
	Members     []Member  `json:"members"`
	Examples    int       `json:"examples"`
	TrainedAt   time.Time `json:"trained_at"`
}

// Train fits one member per feature column. names labels the columns and
// must match the feature length.
func Train(examples []Example, names []string, mode Mode, maxDepth int) (*Ensemble, error) {
	if len(examples) == 0 {
		return nil, errors.New("ensemble: no training examples")
	}
	size := len(examples[0].Features)
	if size == 0 {
		return nil, errors.New("ensemble: empty feature vectors")
	}
	if len(names) != size {
		return nil, fmt.Errorf("ensemble: %d names for %d features", len(names), size)
	}
	y := make([]bool, len(examples))
	for i, ex := range examples {
		if len(ex.Features) != size {
			return nil, fmt.Errorf("ensemble: example %d has %d features, want %d", i, len(ex.Features), size)
		}
		y[i] = ex.Match
	}
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}

	e := &Ensemble{Mode: mode, FeatureSize: size, Examples: len(examples), TrainedAt: time.Now().UTC()}
	col := make([]float64, len(examples))
	for c := 0; c < size; c++ {
		for i, ex := range examples {
			col[i] = ex.Features[c]
		}
		sel, err := SelectDepth(col, y, maxDepth)
		if err != nil {
			return nil, fmt.Errorf("ensemble: %s: %w", names[c], err)
		}
		e.Members = append(e.Members, Member{
			Column:    c,
			Name:      names[c],
			Selection: sel,
			Tree:      Fit(col, y, sel.Depth),
		})
	}
	return e, nil
}

// Vote is the outcome of one prediction.
type Vote struct {
	Match bool    `json:"match"`
	Mean  float64 `json:"mean"`
	Yes   int     `json:"yes"`
	Total int     `json:"total"`
}

// Predict runs every member on its column and combines the votes as
// round(mean + TieBias).
func (e *Ensemble) Predict(features []float64) (Vote, error) {
	if e == nil || len(e.Members) == 0 {
		return Vote{}, ErrClassifierNotTrained
	}
	if len(features) != e.FeatureSize {
		return Vote{}, fmt.Errorf("ensemble: got %d features, want %d", len(features), e.FeatureSize)
	}
	votes := make([]float64, len(e.Members))
	v := Vote{Total: len(e.Members)}
	for i, m := range e.Members {
		if m.Tree.Predict(features[m.Column]) {
			votes[i] = 1
			v.Yes++
		}
	}
	mean, err := stats.Mean(votes)
	if err != nil {
		return Vote{}, err
	}
	v.Mean = mean
	v.Match = math.Round(mean+TieBias) >= 1
	return v, nil
}

// HeldOutAccuracy averages the cross-validated accuracy of each member at its
// chosen depth. Members that could not be cross-validated are left out; ok
// is false when none could.
func (e *Ensemble) HeldOutAccuracy() (acc float64, ok bool) {
	var accs []float64
	for _, m := range e.Members {
		if d := m.Selection.Depth; d >= 1 && d <= len(m.Selection.Accuracy) {
			accs = append(accs, m.Selection.Accuracy[d-1])
		}
	}
	if len(accs) == 0 {
		return 0, false
	}
	mean, err := stats.Mean(accs)
	return mean, err == nil
}
