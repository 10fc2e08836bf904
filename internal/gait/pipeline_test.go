package gait

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_lock/internal/dataset"
	"github.com/relabs-tech/gait_lock/internal/dsp"
	"github.com/relabs-tech/gait_lock/internal/imu"
)

func walk(n int, stepMs, cycleMs float64) imu.Batch {
	b := make(imu.Batch, n)
	for i := range b {
		t := float64(i) * stepMs
		if i%3 == 1 {
			t += stepMs / 3
		}
		b[i] = imu.Sample{T: t, Value: math.Sin(2*math.Pi*t/cycleMs) + 0.3*math.Sin(4*math.Pi*t/cycleMs)}
	}
	return b
}

func TestRun(t *testing.T) {
	r, err := Pipeline{RateHz: 100}.Run(walk(300, 9, 500))
	require.NoError(t, err)

	assert.Equal(t, 300, r.Raw)
	assert.Equal(t, 50, r.Period)
	assert.Zero(t, r.Weight()%r.Period)
	assert.Equal(t, r.Weight(), r.Profile.Len())
	assert.LessOrEqual(t, r.Weight(), r.Resampled)
	require.NoError(t, r.Profile.Validate())
}

func TestRunDefaultsRate(t *testing.T) {
	a, err := Pipeline{}.Run(walk(300, 9, 500))
	require.NoError(t, err)
	b, err := Pipeline{RateHz: DefaultRateHz}.Run(walk(300, 9, 500))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunErrors(t *testing.T) {
	_, err := Pipeline{}.Run(imu.Batch{{T: 0, Value: 1}})
	assert.ErrorIs(t, err, dsp.ErrInsufficientData)

	_, err = Pipeline{}.Run(walk(10, 10, 500))
	assert.ErrorIs(t, err, dsp.ErrNoPeriodicityDetected)
}

func TestProfilesLabelsAndSkips(t *testing.T) {
	ps, skipped := Pipeline{}.Profiles([]dataset.Walk{
		{Identity: "alice", Batch: walk(300, 9, 500)},
		{Identity: "bob", Batch: walk(3, 10, 500)},
		{Identity: "carol", Batch: walk(280, 10, 600)},
	})
	require.Len(t, ps, 2)
	assert.Equal(t, "alice", ps[0].Label)
	assert.Equal(t, "carol", ps[1].Label)
	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[0], dsp.ErrNoPeriodicityDetected)
	assert.Contains(t, skipped[0].Error(), `"bob"`)
}
