// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/relabs-tech/gait_lock/internal/spectrum"
)

// SnapshotVersion is bumped when the on-disk layout changes.
const SnapshotVersion = 1

// Snapshot is the persisted enrolment: the averaged profile, how many
// samples built it and the acceptance threshold chosen after evaluation.
type Snapshot struct {
	Version   int              `json:"version"`
	Identity  string           `json:"identity"`
	SavedAt   time.Time        `json:"saved_at"`
	Weight    int              `json:"weight"`
	Threshold float64          `json:"threshold"`
	Profile   spectrum.Profile `json:"profile"`
}

// Accumulator rebuilds the accumulator stored in the snapshot.
func (s Snapshot) Accumulator() (Accumulator, error) {
	return FromProfile(s.Profile, s.Weight)
}

// SaveSnapshot writes s to path, replacing any previous file atomically.
func SaveSnapshot(path string, s Snapshot) error {
	if s.Version == 0 {
		s.Version = SnapshotVersion
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal calibration snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write calibration snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace calibration snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse calibration snapshot %s: %w", path, err)
	}
	if s.Version != SnapshotVersion {
		return Snapshot{}, fmt.Errorf("calibration snapshot %s: unsupported version %d", path, s.Version)
	}
	return s, nil
}
