// Package dsp turns irregular sensor batches into uniformly sampled series
// that contain a whole number of gait cycles.
package dsp

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/gait_lock/internal/imu"
)

// ErrInsufficientData is returned when a batch is too small to resample.
var ErrInsufficientData = errors.New("insufficient data")

// Series is a uniformly spaced signal. Step is in milliseconds and the value
// at index n belongs to time Start + n*Step.
type Series struct {
	Start  float64
	Step   float64
	Values []float64
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Values) }

// Resample linearly interpolates the batch onto a grid of 1000/rateHz ms
// starting at the first sample. The first value is copied verbatim.
func Resample(b imu.Batch, rateHz float64) (Series, error) {
	if rateHz <= 0 {
		return Series{}, fmt.Errorf("dsp: invalid target rate %v", rateHz)
	}
	if len(b) < 2 {
		return Series{}, fmt.Errorf("%w: %d samples, need at least 2", ErrInsufficientData, len(b))
	}

	dt := 1000.0 / rateHz
	t0 := b[0].T
	tN := b[len(b)-1].T

	out := Series{Start: t0, Step: dt, Values: []float64{b[0].Value}}

	prev := 0
	for n := 1; ; n++ {
		ct := t0 + float64(n)*dt
		if ct >= tN {
			break
		}
		// prev is the last sample at or before ct.
		for prev+1 < len(b) && b[prev+1].T <= ct {
			prev++
		}
		curr := prev + 1
		if curr >= len(b) {
			break
		}
		out.Values = append(out.Values, interpolate(b[prev], b[curr], ct))
	}
	return out, nil
}

func interpolate(p, c imu.Sample, ct float64) float64 {
	span := c.T - p.T
	if span == 0 {
		return p.Value
	}
	return p.Value*(1-(ct-p.T)/span) + c.Value*(1-(c.T-ct)/span)
}
