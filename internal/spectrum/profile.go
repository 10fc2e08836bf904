// Package spectrum computes magnitude spectra used as gait fingerprints.
package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Profile is a frequency-domain fingerprint: Freqs[i] is the frequency in
// cycles per sample of Magnitudes[i].
type Profile struct {
	Freqs      []float64 `json:"freqs"`
	Magnitudes []float64 `json:"magnitudes"`
	Label      string    `json:"label,omitempty"`
}

// Len returns the number of bins.
func (p Profile) Len() int { return len(p.Magnitudes) }

// Validate checks that bins and magnitudes line up and magnitudes are
// non-negative.
func (p Profile) Validate() error {
	if len(p.Freqs) != len(p.Magnitudes) {
		return fmt.Errorf("spectrum: %d freqs for %d magnitudes", len(p.Freqs), len(p.Magnitudes))
	}
	for i, m := range p.Magnitudes {
		if m < 0 || math.IsNaN(m) {
			return fmt.Errorf("spectrum: invalid magnitude %v at bin %d", m, i)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	return Profile{
		Freqs:      append([]float64(nil), p.Freqs...),
		Magnitudes: append([]float64(nil), p.Magnitudes...),
		Label:      p.Label,
	}
}

// Extract returns the full-length DFT magnitude spectrum of x. Bins follow
// the usual FFT ordering for unit sample spacing: 0, 1/n, ..., then the
// negative frequencies.
func Extract(x []float64) Profile {
	n := len(x)
	if n == 0 {
		return Profile{Freqs: []float64{}, Magnitudes: []float64{}}
	}

	fft := fourier.NewCmplxFFT(n)
	seq := make([]complex128, n)
	for i, v := range x {
		seq[i] = complex(v, 0)
	}
	coeffs := fft.Coefficients(nil, seq)

	p := Profile{Freqs: make([]float64, n), Magnitudes: make([]float64, n)}
	for i, c := range coeffs {
		p.Freqs[i] = fft.Freq(i)
		p.Magnitudes[i] = cmplx.Abs(c)
	}
	return p
}
