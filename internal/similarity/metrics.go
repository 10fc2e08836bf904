// Package similarity compares two spectral profiles.
//
// Every metric has the same shape, a Metric, and works on the overlapping
// bins of the two profiles. The set used at runtime is a configured list of
// Named metrics rather than a fixed set of calls.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/gait_lock/internal/spectrum"
)

var (
	// ErrDegenerateJaccard is returned when both profiles are all zero over
	// the overlap, leaving an empty union.
	ErrDegenerateJaccard = errors.New("degenerate jaccard: zero union")

	// ErrEmptyOverlap is returned when one of the profiles has no bins.
	ErrEmptyOverlap = errors.New("profiles do not overlap")
)

// Metric scores two profiles.
type Metric func(a, b spectrum.Profile) (float64, error)

// Named pairs a metric with its configuration name.
type Named struct {
	Name string
	Fn   Metric
}

// Metric names accepted in configuration.
const (
	NameMSE            = "msq"
	NameCosine         = "cossim"
	NameCorrelation    = "correlation"
	NameSpectralEnergy = "spectral_energy"
	NameJaccard        = "jaccard"
)

var registry = map[string]Metric{
	NameMSE:            MSE,
	NameCosine:         Cosine,
	NameCorrelation:    Correlation,
	NameSpectralEnergy: SpectralEnergy,
	NameJaccard:        Jaccard,
}

// DefaultNames is the column order of stored training sets.
var DefaultNames = []string{NameMSE, NameJaccard, NameCosine, NameCorrelation, NameSpectralEnergy}

// Lookup returns the named metrics in the given order.
func Lookup(names ...string) ([]Named, error) {
	out := make([]Named, 0, len(names))
	seen := map[string]bool{}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		fn, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("similarity: unknown metric %q", raw)
		}
		if seen[name] {
			return nil, fmt.Errorf("similarity: metric %q listed twice", name)
		}
		seen[name] = true
		out = append(out, Named{Name: name, Fn: fn})
	}
	if len(out) == 0 {
		return nil, errors.New("similarity: no metrics configured")
	}
	return out, nil
}

func overlap(a, b spectrum.Profile) ([]float64, []float64, error) {
	n := min(len(a.Magnitudes), len(b.Magnitudes))
	if n == 0 {
		return nil, nil, ErrEmptyOverlap
	}
	return a.Magnitudes[:n], b.Magnitudes[:n], nil
}

// MSE is the mean squared magnitude difference over the overlap.
func MSE(a, b spectrum.Profile) (float64, error) {
	x, y, err := overlap(a, b)
	if err != nil {
		return 0, err
	}
	d := floats.Distance(x, y, 2)
	return d * d / float64(len(x)), nil
}

// Cosine is 1 minus the cosine distance of the magnitude vectors. A zero
// vector scores 0.
func Cosine(a, b spectrum.Profile) (float64, error) {
	x, y, err := overlap(a, b)
	if err != nil {
		return 0, err
	}
	nx, ny := floats.Norm(x, 2), floats.Norm(y, 2)
	if nx == 0 || ny == 0 {
		return 0, nil
	}
	return floats.Dot(x, y) / (nx * ny), nil
}

// Correlation is the Pearson correlation of the magnitude vectors. A
// constant vector scores 0.
func Correlation(a, b spectrum.Profile) (float64, error) {
	x, y, err := overlap(a, b)
	if err != nil {
		return 0, err
	}
	if len(x) < 2 {
		return 0, nil
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, nil
	}
	return r, nil
}

// SpectralEnergy is the absolute difference of the total magnitude of each
// whole profile. It ignores shape.
func SpectralEnergy(a, b spectrum.Profile) (float64, error) {
	return math.Abs(floats.Sum(a.Magnitudes) - floats.Sum(b.Magnitudes)), nil
}

// Jaccard is sum(min)/sum(max) over the overlap.
func Jaccard(a, b spectrum.Profile) (float64, error) {
	x, y, err := overlap(a, b)
	if err != nil {
		return 0, err
	}
	var inter, union float64
	for i := range x {
		inter += math.Min(x[i], y[i])
		union += math.Max(x[i], y[i])
	}
	if union == 0 {
		return 0, ErrDegenerateJaccard
	}
	return inter / union, nil
}

// Vector is one comparison under every active metric. Match is only
// meaningful for training data.
type Vector struct {
	Scores []float64
	Match  bool
}

// Compare scores a against b with every metric, in order.
func Compare(metrics []Named, a, b spectrum.Profile) ([]float64, error) {
	out := make([]float64, len(metrics))
	for i, m := range metrics {
		v, err := m.Fn(a, b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}
		out[i] = v
	}
	return out, nil
}

// Names returns the metric names, in order.
func Names(metrics []Named) []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = m.Name
	}
	return out
}
