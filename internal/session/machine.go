// Package session tracks whether samples are used for calibration, for
// threshold evaluation, or for live inference.
package session

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// State is the authentication mode.
type State int

const (
	Idle State = iota
	Calibrating
	Evaluating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Calibrating:
		return "calibrating"
	case Evaluating:
		return "evaluating"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state name in JSON documents.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{Idle, Calibrating, Evaluating} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("session: unknown state %q", b)
}

// Defaults from the door unit.
const (
	DefaultEvaluationSamples = 4
	DefaultThreshold         = 0.75
)

// Transition describes what a toggle did.
type Transition struct {
	From State `json:"from"`
	To   State `json:"to"`
}

// Machine is the session state. It is not safe for concurrent use; the
// owner serialises access.
type Machine struct {
	state     State
	scores    []float64
	threshold float64
	needed    int
}

// New returns an idle machine. evaluationSamples <= 0 selects the default.
func New(threshold float64, evaluationSamples int) *Machine {
	if evaluationSamples <= 0 {
		evaluationSamples = DefaultEvaluationSamples
	}
	return &Machine{state: Idle, threshold: threshold, needed: evaluationSamples}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Threshold is the current acceptance threshold.
func (m *Machine) Threshold() float64 { return m.threshold }

// SetThreshold overrides the threshold, e.g. from a saved snapshot.
func (m *Machine) SetThreshold(v float64) { m.threshold = v }

// EvaluationProgress returns collected and required evaluation samples.
func (m *Machine) EvaluationProgress() (int, int) { return len(m.scores), m.needed }

// Toggle applies the external calibration trigger:
//
//	idle        -> calibrating
//	calibrating -> evaluating (evaluation buffer cleared)
//	evaluating  -> calibrating (evaluation abandoned)
//
// Clearing the calibration accumulator on entry to calibrating is the
// owner's job.
func (m *Machine) Toggle() Transition {
	tr := Transition{From: m.state}
	switch m.state {
	case Idle, Evaluating:
		m.state = Calibrating
		m.scores = nil
	case Calibrating:
		m.state = Evaluating
		m.scores = make([]float64, 0, m.needed)
	}
	tr.To = m.state
	return tr
}

// Evaluation is the outcome of recording one evaluation score.
type Evaluation struct {
	Collected int
	Needed    int
	Done      bool
	Threshold float64
}

// PreviewEvaluation reports what RecordEvaluation would do without changing
// the machine.
func (m *Machine) PreviewEvaluation(score float64) (Evaluation, error) {
	if m.state != Evaluating {
		return Evaluation{}, fmt.Errorf("session: evaluation score recorded while %s", m.state)
	}
	scores := append(append([]float64(nil), m.scores...), score)
	ev := Evaluation{Collected: len(scores), Needed: m.needed, Threshold: m.threshold}
	if len(scores) >= m.needed {
		top, err := stats.Max(scores)
		if err != nil {
			return Evaluation{}, err
		}
		ev.Done = true
		ev.Threshold = top
	}
	return ev, nil
}

// RecordEvaluation adds a held-out similarity score. Once enough scores are
// in, the threshold becomes their maximum and the machine returns to idle.
func (m *Machine) RecordEvaluation(score float64) (Evaluation, error) {
	ev, err := m.PreviewEvaluation(score)
	if err != nil {
		return ev, err
	}
	m.scores = append(m.scores, score)
	if ev.Done {
		m.threshold = ev.Threshold
		m.scores = nil
		m.state = Idle
	}
	return ev, nil
}
