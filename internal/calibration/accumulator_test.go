package calibration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_lock/internal/spectrum"
)

func prof(freqs, mags []float64) spectrum.Profile {
	return spectrum.Profile{Freqs: freqs, Magnitudes: mags}
}

func TestFirstMergeInitializes(t *testing.T) {
	var a Accumulator
	assert.False(t, a.Enrolled())

	p := prof([]float64{0, 0.1}, []float64{3, 4})
	b, err := a.Merge(p, 50)
	require.NoError(t, err)

	assert.True(t, b.Enrolled())
	assert.Equal(t, 50, b.Weight())
	assert.Equal(t, p, b.Profile())
	// receiver untouched
	assert.Zero(t, a.Weight())
}

func TestEqualWeightMergeIsArithmeticMean(t *testing.T) {
	p1 := prof([]float64{0, 0.02, 0.04}, []float64{10, 4, 2})
	p2 := prof([]float64{0, 0.02, 0.04}, []float64{20, 8, 0})

	a, err := Accumulator{}.Merge(p1, 50)
	require.NoError(t, err)
	a, err = a.Merge(p2, 50)
	require.NoError(t, err)

	assert.Equal(t, 100, a.Weight())
	got := a.Profile()
	assert.InDeltaSlice(t, []float64{15, 6, 1}, got.Magnitudes, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.02, 0.04}, got.Freqs, 1e-12)
}

func TestWeightedMergeTruncatesToOverlap(t *testing.T) {
	a, err := Accumulator{}.Merge(prof([]float64{0, 1, 2}, []float64{0, 3, 9}), 30)
	require.NoError(t, err)
	a, err = a.Merge(prof([]float64{0, 1}, []float64{4, 7}), 10)
	require.NoError(t, err)

	assert.Equal(t, 40, a.Weight())
	assert.InDeltaSlice(t, []float64{1, 4}, a.Profile().Magnitudes, 1e-12)
}

func TestMergeRejectsBadInput(t *testing.T) {
	_, err := Accumulator{}.Merge(prof([]float64{0}, []float64{1}), 0)
	assert.Error(t, err)
	_, err = Accumulator{}.Merge(prof([]float64{0}, []float64{1, 2}), 4)
	assert.Error(t, err)
}

func TestWeightNeverDecreases(t *testing.T) {
	var a Accumulator
	prev := 0
	for i := 1; i <= 10; i++ {
		var err error
		a, err = a.Merge(prof([]float64{0, 1}, []float64{float64(i), 1}), i)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, a.Weight(), prev)
		prev = a.Weight()
	}
	assert.Equal(t, 55, a.Weight())
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "profile.json")
	s := Snapshot{
		Identity:  "me",
		SavedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Weight:    120,
		Threshold: 0.81,
		Profile:   prof([]float64{0, 0.5}, []float64{2, 1}),
	}
	require.NoError(t, SaveSnapshot(path, s))

	got, err := LoadSnapshot(path)
	require.NoError(t, err)
	s.Version = SnapshotVersion
	assert.Equal(t, s, got)

	acc, err := got.Accumulator()
	require.NoError(t, err)
	assert.Equal(t, 120, acc.Weight())
}

func TestLoadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadSnapshot(filepath.Join(dir, "missing.json"))
	assert.True(t, os.IsNotExist(err))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version":99}`), 0644))
	_, err = LoadSnapshot(bad)
	assert.Error(t, err)
}
