// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/relabs-tech/gait_lock/internal/imu"
)

// Walker describes a synthetic person: stride length in ms and the shape
// of the angular velocity trace.
type Walker struct {
	CycleMs  float64
	Harmonic float64 // weight of the second harmonic
	Phase    float64
	Noise    float64
}

// DefaultWalker is a roughly one-second stride.
var DefaultWalker = Walker{CycleMs: 1000, Harmonic: 0.4, Phase: 0.3, Noise: 0.02}

// Walk generates n irregularly spaced samples with a mean step of stepMs.
func (w Walker) Walk(rng *rand.Rand, n int, stepMs float64) imu.Batch {
	b := make(imu.Batch, n)
	t := 0.0
	for i := range b {
		if i > 0 {
			t += stepMs * (0.8 + 0.4*rng.Float64())
		}
		x := 2 * math.Pi * t / w.CycleMs
		v := math.Sin(x) + w.Harmonic*math.Sin(2*x+w.Phase) + w.Noise*rng.NormFloat64()
		b[i] = imu.Sample{T: t, Value: v}
	}
	return b
}

// MockSource generates walks locally, for bench setups without a sensor
// unit.
type MockSource struct {
	Walker  Walker
	Samples int
	StepMs  float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockSource returns a source emitting 300 samples roughly every 10 ms.
func NewMockSource(w Walker, seed int64) *MockSource {
	return &MockSource{Walker: w, Samples: 300, StepMs: 10, rng: rand.New(rand.NewSource(seed))}
}

// SetWalker swaps the simulated person and returns the previous one.
func (m *MockSource) SetWalker(w Walker) Walker {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.Walker
	m.Walker = w
	return prev
}

func (m *MockSource) Fetch(ctx context.Context) (imu.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Walker.Walk(m.rng, m.Samples, m.StepMs), nil
}
