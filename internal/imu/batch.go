package imu

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedPayload is returned when a sensor payload is missing arrays,
// has arrays of different lengths, or is otherwise unusable.
var ErrMalformedPayload = errors.New("malformed payload")

// DefaultCapacity mirrors the sensor unit's ring buffer size.
const DefaultCapacity = 1000

// Axis names accepted by Decode.
const (
	AxisAV       = "av"
	AxisAccelMag = "accel_mag"
)

// Sample is one irregularly timed scalar reading.
type Sample struct {
	T     float64 `json:"t" csv:"t"` // ms
	Value float64 `json:"value" csv:"value"`
}

// Batch is one tick's worth of samples, ordered by time.
type Batch []Sample

// Times returns the timestamps of the batch.
func (b Batch) Times() []float64 {
	out := make([]float64, len(b))
	for i, s := range b {
		out[i] = s.T
	}
	return out
}

// Values returns the sample values of the batch.
func (b Batch) Values() []float64 {
	out := make([]float64, len(b))
	for i, s := range b {
		out[i] = s.Value
	}
	return out
}

// Validate checks the batch invariants: non-empty, within capacity, finite
// values and strictly increasing timestamps.
func (b Batch) Validate(capacity int) error {
	if len(b) == 0 {
		return fmt.Errorf("%w: empty batch", ErrMalformedPayload)
	}
	if capacity > 0 && len(b) > capacity {
		return fmt.Errorf("%w: %d samples exceeds capacity %d", ErrMalformedPayload, len(b), capacity)
	}
	for i, s := range b {
		if math.IsNaN(s.T) || math.IsInf(s.T, 0) || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return fmt.Errorf("%w: non-finite sample at %d", ErrMalformedPayload, i)
		}
		if i > 0 && s.T <= b[i-1].T {
			return fmt.Errorf("%w: timestamp %v at %d not after %v", ErrMalformedPayload, s.T, i, b[i-1].T)
		}
	}
	return nil
}

// Decode parses a raw sensor document and extracts the requested axis as a
// Batch. axis is "av", "accel_mag" or one of the six-axis names.
func Decode(data []byte, axis string, capacity int) (Batch, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return p.Batch(axis, capacity)
}

// Batch extracts one axis of the payload.
func (p *Payload) Batch(axis string, capacity int) (Batch, error) {
	if len(p.T) == 0 {
		return nil, fmt.Errorf("%w: missing t array", ErrMalformedPayload)
	}

	var values []float64
	switch axis {
	case AxisAV, "":
		values = p.AV
	case AxisAccelMag:
		if err := p.requireSixAxis("ax", "ay", "az"); err != nil {
			return nil, err
		}
		values = make([]float64, len(p.T))
		for i := range p.T {
			r := p.Raw(i)
			values[i] = math.Sqrt(r.Ax*r.Ax + r.Ay*r.Ay + r.Az*r.Az)
		}
	default:
		arr, ok := p.axis(axis)
		if !ok {
			return nil, fmt.Errorf("%w: unknown axis %q", ErrMalformedPayload, axis)
		}
		values = arr
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%w: missing %s array", ErrMalformedPayload, axis)
	}
	if len(values) != len(p.T) {
		return nil, fmt.Errorf("%w: %s has %d values for %d timestamps", ErrMalformedPayload, axis, len(values), len(p.T))
	}

	b := make(Batch, len(p.T))
	for i := range p.T {
		b[i] = Sample{T: p.T[i], Value: values[i]}
	}
	if err := b.Validate(capacity); err != nil {
		return nil, err
	}
	return b, nil
}

func (p *Payload) axis(name string) ([]float64, bool) {
	switch name {
	case "ax":
		return p.Ax, true
	case "ay":
		return p.Ay, true
	case "az":
		return p.Az, true
	case "gx":
		return p.Gx, true
	case "gy":
		return p.Gy, true
	case "gz":
		return p.Gz, true
	}
	return nil, false
}

func (p *Payload) requireSixAxis(names ...string) error {
	for _, n := range names {
		arr, _ := p.axis(n)
		if len(arr) != len(p.T) {
			return fmt.Errorf("%w: %s has %d values for %d timestamps", ErrMalformedPayload, n, len(arr), len(p.T))
		}
	}
	return nil
}

// ToPayload builds the single-axis wire form of a batch.
func (b Batch) ToPayload() Payload {
	return Payload{T: b.Times(), AV: b.Values()}
}
