// Package gait runs one sensor batch through resampling, period truncation
// and spectral extraction.
package gait

import (
	"fmt"

	"github.com/relabs-tech/gait_lock/internal/dataset"
	"github.com/relabs-tech/gait_lock/internal/dsp"
	"github.com/relabs-tech/gait_lock/internal/imu"
	"github.com/relabs-tech/gait_lock/internal/spectrum"
)

// DefaultRateHz is the resampling rate used by the door unit.
const DefaultRateHz = 100.0

// Pipeline holds the parameters shared by every batch.
type Pipeline struct {
	RateHz float64
}

// Result carries the profile together with the intermediate sizes, which
// are logged per tick.
type Result struct {
	Raw       int
	Resampled int
	Period    int
	Profile   spectrum.Profile
}

// Weight is the number of samples the profile was derived from.
func (r Result) Weight() int { return len(r.Profile.Magnitudes) }

// Run resamples, truncates to whole periods and extracts the spectrum.
func (p Pipeline) Run(b imu.Batch) (Result, error) {
	rate := p.RateHz
	if rate == 0 {
		rate = DefaultRateHz
	}
	res := Result{Raw: len(b)}

	series, err := dsp.Resample(b, rate)
	if err != nil {
		return res, fmt.Errorf("resample: %w", err)
	}
	res.Resampled = series.Len()

	truncated, period, err := dsp.TruncatePeriods(series)
	if err != nil {
		return res, fmt.Errorf("truncate: %w", err)
	}
	res.Period = period
	res.Profile = spectrum.Extract(truncated.Values)
	return res, nil
}

// Profiles runs every stored walk and labels each profile with its
// identity. Walks the pipeline rejects are left out and reported in skipped.
func (p Pipeline) Profiles(walks []dataset.Walk) (profiles []spectrum.Profile, skipped []error) {
	profiles = make([]spectrum.Profile, 0, len(walks))
	for i, w := range walks {
		r, err := p.Run(w.Batch)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("walk %d of %q: %w", i, w.Identity, err))
			continue
		}
		r.Profile.Label = w.Identity
		profiles = append(profiles, r.Profile)
	}
	return profiles, skipped
}
