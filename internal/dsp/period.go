package dsp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoPeriodicityDetected is returned when a series is too short, flat or
// has no positive autocorrelation at any admissible lag.
var ErrNoPeriodicityDetected = errors.New("no periodicity detected")

// MinPeriodLag is the shortest lag accepted as a gait cycle.
const MinPeriodLag = 20

// MinSeriesLen is the shortest series that has a lag of MinPeriodLag.
const MinSeriesLen = MinPeriodLag + 1

// Autocorrelation returns the biased autocorrelation of x for lags
// 0..len(x)-1, normalised so that lag 0 is 1. A flat series yields nil.
func Autocorrelation(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	mean := stat.Mean(x, nil)
	centered := make([]float64, n)
	copy(centered, x)
	floats.AddConst(-mean, centered)

	c0 := floats.Dot(centered, centered)
	if c0 == 0 {
		return nil
	}
	acf := make([]float64, n)
	for k := 0; k < n; k++ {
		acf[k] = floats.Dot(centered[:n-k], centered[k:]) / c0
	}
	return acf
}

// DominantPeriod returns the lag >= MinPeriodLag with the largest positive
// autocorrelation. Earlier lags win ties.
func DominantPeriod(x []float64) (int, error) {
	if len(x) < MinSeriesLen {
		return 0, fmt.Errorf("%w: series of %d samples, need at least %d", ErrNoPeriodicityDetected, len(x), MinSeriesLen)
	}
	acf := Autocorrelation(x)
	if acf == nil {
		return 0, fmt.Errorf("%w: flat series", ErrNoPeriodicityDetected)
	}

	best, bestVal := -1, 0.0
	for lag := MinPeriodLag; lag < len(acf); lag++ {
		if acf[lag] > bestVal {
			best, bestVal = lag, acf[lag]
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("%w: no positive autocorrelation at lag >= %d", ErrNoPeriodicityDetected, MinPeriodLag)
	}
	return best, nil
}

// TruncatePeriods cuts the series down to a whole number of dominant
// periods and returns the period that was used.
func TruncatePeriods(s Series) (Series, int, error) {
	p, err := DominantPeriod(s.Values)
	if err != nil {
		return Series{}, 0, err
	}
	keep := (len(s.Values) / p) * p
	out := Series{Start: s.Start, Step: s.Step, Values: append([]float64(nil), s.Values[:keep]...)}
	return out, p, nil
}
