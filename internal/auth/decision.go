package auth

import (
	"fmt"
	"strings"
)

// Strategy selects how an idle tick turns a profile into a decision.
type Strategy string

const (
	// StrategyThreshold accepts when the Jaccard similarity to the enrolled
	// profile reaches the threshold.
	StrategyThreshold Strategy = "threshold"
	// StrategyClassifier votes with the trained ensemble against every
	// stored walk.
	StrategyClassifier Strategy = "classifier"
)

// ParseStrategy parses a configuration value.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyThreshold, StrategyClassifier:
		return st, nil
	}
	return "", fmt.Errorf("auth: unknown strategy %q", s)
}

// FailurePolicy decides what a failed idle tick emits.
type FailurePolicy string

const (
	// FailDeny emits a deny code.
	FailDeny FailurePolicy = "deny"
	// FailSilent emits nothing; the actuator keeps its state.
	FailSilent FailurePolicy = "none"
)

// Reason explains a decision.
type Reason string

const (
	ReasonAccepted             Reason = "accepted"
	ReasonBelowThreshold       Reason = "below_threshold"
	ReasonIdentityMismatch     Reason = "identity_mismatch"
	ReasonNotEnrolled          Reason = "not_enrolled"
	ReasonClassifierNotTrained Reason = "classifier_not_trained"
	ReasonTickFailed           Reason = "tick_failed"
)

// Decision is the outcome of an idle tick.
type Decision struct {
	Accept bool    `json:"accept"`
	Reason Reason  `json:"reason"`
	Score  float64 `json:"score"`
	// Identity is the most likely identity under the classifier strategy.
	Identity string `json:"identity,omitempty"`
}

// Code is the byte sent to the door: 1 unlocks, 0 denies.
func (d Decision) Code() byte {
	if d.Accept {
		return 1
	}
	return 0
}

func deny(r Reason) *Decision { return &Decision{Reason: r} }
