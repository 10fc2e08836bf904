package spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrequencyOrdering(t *testing.T) {
	p := Extract(make([]float64, 8))
	// numpy.fft.fftfreq(8)
	assert.InDeltaSlice(t, []float64{0, 0.125, 0.25, 0.375, -0.5, -0.375, -0.25, -0.125}, p.Freqs, 1e-12)

	p = Extract(make([]float64, 5))
	assert.InDeltaSlice(t, []float64{0, 0.2, 0.4, -0.4, -0.2}, p.Freqs, 1e-12)
}

func TestExtractMagnitudes(t *testing.T) {
	n := 40
	x := make([]float64, n)
	for i := range x {
		x[i] = 2 + math.Cos(2*math.Pi*4*float64(i)/float64(n))
	}
	p := Extract(x)
	require.NoError(t, p.Validate())
	require.Equal(t, n, p.Len())

	assert.InDelta(t, 2*float64(n), p.Magnitudes[0], 1e-9)
	assert.InDelta(t, float64(n)/2, p.Magnitudes[4], 1e-9)
	assert.InDelta(t, float64(n)/2, p.Magnitudes[n-4], 1e-9)
	assert.InDelta(t, 0, p.Magnitudes[3], 1e-9)
}

func TestExtractDeterministic(t *testing.T) {
	x := []float64{1, 5, -2, 3, 3, 0.5}
	assert.Equal(t, Extract(x), Extract(x))
	assert.Equal(t, []float64{1, 5, -2, 3, 3, 0.5}, x)
}

func TestExtractEmpty(t *testing.T) {
	p := Extract(nil)
	assert.Zero(t, p.Len())
	assert.NoError(t, p.Validate())
}

func TestValidate(t *testing.T) {
	assert.Error(t, Profile{Freqs: []float64{0}, Magnitudes: []float64{1, 2}}.Validate())
	assert.Error(t, Profile{Freqs: []float64{0}, Magnitudes: []float64{-1}}.Validate())
}
