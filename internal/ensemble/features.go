package ensemble

import (
	"fmt"
	"math"

	"github.com/relabs-tech/gait_lock/internal/similarity"
	"github.com/relabs-tech/gait_lock/internal/spectrum"
)

// Featurizer turns a pair of profiles into a feature vector.
type Featurizer struct {
	Mode    Mode
	Metrics []similarity.Named
	Bins    int
}

// Names labels the feature columns.
func (f Featurizer) Names() []string {
	if f.Mode == PerDimension {
		out := make([]string, f.Bins)
		for i := range out {
			out[i] = fmt.Sprintf("bin_%d", i)
		}
		return out
	}
	return similarity.Names(f.Metrics)
}

// Features compares a and b. PerMetric yields the similarity vector;
// PerDimension yields |a_i - b_i| for the first Bins magnitudes.
func (f Featurizer) Features(a, b spectrum.Profile) ([]float64, error) {
	switch f.Mode {
	case PerMetric:
		return similarity.Compare(f.Metrics, a, b)
	case PerDimension:
		if a.Len() < f.Bins || b.Len() < f.Bins {
			return nil, fmt.Errorf("ensemble: profiles of %d and %d bins, need %d", a.Len(), b.Len(), f.Bins)
		}
		out := make([]float64, f.Bins)
		for i := range out {
			out[i] = math.Abs(a.Magnitudes[i] - b.Magnitudes[i])
		}
		return out, nil
	}
	return nil, fmt.Errorf("ensemble: unknown mode %q", f.Mode)
}

// Pairs builds the pairwise training set: every unordered pair of labeled
// profiles, marked as a match when the labels agree.
func (f Featurizer) Pairs(profiles []spectrum.Profile) ([]Example, error) {
	var out []Example
	for i := 0; i < len(profiles); i++ {
		for j := i + 1; j < len(profiles); j++ {
			feats, err := f.Features(profiles[i], profiles[j])
			if err != nil {
				return nil, fmt.Errorf("pair %s/%s: %w", profiles[i].Label, profiles[j].Label, err)
			}
			out = append(out, Example{Features: feats, Match: profiles[i].Label == profiles[j].Label})
		}
	}
	return out, nil
}

// Featurizer rebuilds the featurizer a saved ensemble was trained with.
func (e *Ensemble) Featurizer() (Featurizer, error) {
	if e.Mode == PerDimension {
		return Featurizer{Mode: e.Mode, Bins: e.FeatureSize}, nil
	}
	names := make([]string, len(e.Members))
	for i, m := range e.Members {
		names[i] = m.Name
	}
	metrics, err := similarity.Lookup(names...)
	if err != nil {
		return Featurizer{}, err
	}
	return Featurizer{Mode: e.Mode, Metrics: metrics}, nil
}
