// Package calibration maintains the enrolled identity's running spectral
// profile.
package calibration

import (
	"fmt"

	"github.com/relabs-tech/gait_lock/internal/spectrum"
)

// Accumulator is a weighted running average of calibration profiles. The
// zero value is an empty, not yet enrolled accumulator.
//
// Accumulator is a value type: Merge returns the updated accumulator and
// leaves the receiver alone, so a caller can compute a merge and commit it
// only once the rest of its work has succeeded.
type Accumulator struct {
	profile spectrum.Profile
	weight  int
}

// FromProfile rebuilds an accumulator, e.g. from a saved snapshot.
func FromProfile(p spectrum.Profile, weight int) (Accumulator, error) {
	if weight < 0 {
		return Accumulator{}, fmt.Errorf("calibration: negative weight %d", weight)
	}
	if weight == 0 {
		return Accumulator{}, nil
	}
	if err := p.Validate(); err != nil {
		return Accumulator{}, err
	}
	return Accumulator{profile: p.Clone(), weight: weight}, nil
}

// Weight is the number of samples merged so far.
func (a Accumulator) Weight() int { return a.weight }

// Enrolled reports whether any calibration sample has been merged.
func (a Accumulator) Enrolled() bool { return a.weight > 0 }

// Profile returns a copy of the current averaged profile.
func (a Accumulator) Profile() spectrum.Profile { return a.profile.Clone() }

// Merge folds p, derived from w samples, into the running average. The first
// profile is taken as is; later ones are averaged bin by bin, weighted by
// sample count, over the bins both profiles have.
func (a Accumulator) Merge(p spectrum.Profile, w int) (Accumulator, error) {
	if w <= 0 {
		return a, fmt.Errorf("calibration: non-positive weight %d", w)
	}
	if err := p.Validate(); err != nil {
		return a, err
	}
	if a.weight == 0 {
		return Accumulator{profile: p.Clone(), weight: w}, nil
	}

	n := min(a.profile.Len(), p.Len())
	wOld, wNew := float64(a.weight), float64(w)
	total := wOld + wNew

	merged := spectrum.Profile{
		Freqs:      make([]float64, n),
		Magnitudes: make([]float64, n),
		Label:      a.profile.Label,
	}
	for i := 0; i < n; i++ {
		merged.Freqs[i] = (a.profile.Freqs[i]*wOld + p.Freqs[i]*wNew) / total
		merged.Magnitudes[i] = (a.profile.Magnitudes[i]*wOld + p.Magnitudes[i]*wNew) / total
	}
	return Accumulator{profile: merged, weight: a.weight + w}, nil
}
