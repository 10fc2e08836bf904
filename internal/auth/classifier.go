package auth

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/relabs-tech/gait_lock/internal/dataset"
	"github.com/relabs-tech/gait_lock/internal/ensemble"
	"github.com/relabs-tech/gait_lock/internal/gait"
	"github.com/relabs-tech/gait_lock/internal/spectrum"
)

// model is a trained ensemble together with the labeled reference walks it
// compares against. It is never modified after construction.
type model struct {
	ensemble   *ensemble.Ensemble
	references []spectrum.Profile
	skipped    int
}

func (m *model) enrolled(identity string) bool {
	if m == nil {
		return false
	}
	for _, r := range m.references {
		if r.Label == identity {
			return true
		}
	}
	return false
}

// buildModel loads every stored walk, turns each into a labeled profile and
// trains on all pairs. Walks that fail the pipeline are skipped.
func buildModel(ctx context.Context, store dataset.Store, p gait.Pipeline, f ensemble.Featurizer, maxDepth int) (*model, error) {
	walks, err := dataset.LoadAll(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	profiles, skipped := p.Profiles(walks)
	for _, err := range skipped {
		log.Printf("engine: skipping %v", err)
	}
	m := &model{references: profiles, skipped: len(skipped)}
	examples, err := f.Pairs(m.references)
	if err != nil {
		return nil, err
	}
	m.ensemble, err = ensemble.Train(examples, f.Names(), f.Mode, maxDepth)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// identify compares the profile with every reference walk and returns the
// match fraction per identity.
func (m *model) identify(f ensemble.Featurizer, p spectrum.Profile) (map[string]float64, error) {
	matches := map[string]int{}
	totals := map[string]int{}
	for _, ref := range m.references {
		feats, err := f.Features(p, ref)
		if err != nil {
			return nil, err
		}
		vote, err := m.ensemble.Predict(feats)
		if err != nil {
			return nil, err
		}
		totals[ref.Label]++
		if vote.Match {
			matches[ref.Label]++
		}
	}
	out := make(map[string]float64, len(totals))
	for id, n := range totals {
		out[id] = float64(matches[id]) / float64(n)
	}
	return out, nil
}

// decideIdentity accepts when the claimed identity wins the majority of its
// own reference votes and no other identity scores higher.
func decideIdentity(fractions map[string]float64, claimed string) *Decision {
	ids := make([]string, 0, len(fractions))
	for id := range fractions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	best, bestFrac := claimed, fractions[claimed]
	for _, id := range ids {
		if fractions[id] > bestFrac {
			best, bestFrac = id, fractions[id]
		}
	}

	d := &Decision{Score: fractions[claimed], Identity: best}
	switch {
	case best != claimed:
		d.Reason = ReasonIdentityMismatch
	case math.Round(fractions[claimed]+ensemble.TieBias) < 1:
		d.Reason = ReasonBelowThreshold
	default:
		d.Accept = true
		d.Reason = ReasonAccepted
	}
	return d
}
