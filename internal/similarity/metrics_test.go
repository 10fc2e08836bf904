package similarity

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_lock/internal/spectrum"
)

func profile(mags ...float64) spectrum.Profile {
	freqs := make([]float64, len(mags))
	for i := range freqs {
		freqs[i] = float64(i) / float64(len(mags))
	}
	return spectrum.Profile{Freqs: freqs, Magnitudes: mags}
}

func randomProfile(r *rand.Rand, n int) spectrum.Profile {
	mags := make([]float64, n)
	for i := range mags {
		mags[i] = r.Float64() * 10
	}
	return profile(mags...)
}

func TestMetricsSymmetric(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	metrics, err := Lookup(DefaultNames...)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		a := randomProfile(r, 20+r.Intn(40))
		b := randomProfile(r, 20+r.Intn(40))
		for _, m := range metrics {
			ab, err := m.Fn(a, b)
			require.NoError(t, err)
			ba, err := m.Fn(b, a)
			require.NoError(t, err)
			assert.Equal(t, ab, ba, m.Name)
		}
	}
}

func TestSelfSimilarity(t *testing.T) {
	p := profile(1, 4, 2, 8, 0.5)

	j, err := Jaccard(p, p)
	require.NoError(t, err)
	assert.Equal(t, 1.0, j)

	m, err := MSE(p, p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m)

	c, err := Cosine(p, p)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c, 1e-12)

	r, err := Correlation(p, p)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)

	e, err := SpectralEnergy(p, p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, e)
}

func TestKnownValues(t *testing.T) {
	a := profile(1, 2, 3, 4)
	b := profile(2, 2, 1)

	m, err := MSE(a, b)
	require.NoError(t, err)
	assert.InDelta(t, (1.0+0+4)/3, m, 1e-12)

	j, err := Jaccard(a, b)
	require.NoError(t, err)
	assert.InDelta(t, (1.0+2+1)/(2.0+2+3), j, 1e-12)

	e, err := SpectralEnergy(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, e, 1e-12)

	c, err := Cosine(profile(1, 0), profile(0, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, c, 1e-12)

	r, err := Correlation(profile(1, 2, 3), profile(3, 2, 1))
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-12)
}

func TestDegenerateInputs(t *testing.T) {
	_, err := Jaccard(profile(0, 0), profile(0, 0, 5))
	assert.ErrorIs(t, err, ErrDegenerateJaccard)

	_, err = MSE(profile(), profile(1))
	assert.ErrorIs(t, err, ErrEmptyOverlap)

	c, err := Cosine(profile(0, 0), profile(1, 2))
	require.NoError(t, err)
	assert.Zero(t, c)

	r, err := Correlation(profile(3, 3, 3), profile(1, 2, 3))
	require.NoError(t, err)
	assert.Zero(t, r)
}

func TestLookup(t *testing.T) {
	ms, err := Lookup("jaccard", " MSQ ")
	require.NoError(t, err)
	assert.Equal(t, []string{NameJaccard, NameMSE}, Names(ms))

	_, err = Lookup("euclid")
	assert.Error(t, err)
	_, err = Lookup("jaccard", "jaccard")
	assert.Error(t, err)
	_, err = Lookup()
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	ms, err := Lookup(NameJaccard, NameMSE)
	require.NoError(t, err)

	got, err := Compare(ms, profile(1, 1), profile(1, 1))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, got)

	_, err = Compare(ms, profile(0, 0), profile(0, 0))
	assert.ErrorIs(t, err, ErrDegenerateJaccard)
}
