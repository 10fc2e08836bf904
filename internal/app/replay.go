package app

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/relabs-tech/gait_lock/internal/dataset"
	"github.com/relabs-tech/gait_lock/internal/ensemble"
	"github.com/relabs-tech/gait_lock/internal/gait"
	"github.com/relabs-tech/gait_lock/internal/similarity"
)

// ReplayOptions controls an offline evaluation. When Model is set it is
// scored on the dataset as is; otherwise a fresh ensemble is trained.
type ReplayOptions struct {
	RateHz   float64
	Mode     ensemble.Mode
	Metrics  []similarity.Named
	Bins     int
	MaxDepth int
	Model    *ensemble.Ensemble
}

// ReplayReport summarises a replay over a stored dataset.
type ReplayReport struct {
	Walks    int
	Skipped  int
	Pairs    int
	Matches  int
	Ensemble *ensemble.Ensemble
	Trained  bool

	// Accuracy is measured on the dataset's pairs. It is training accuracy
	// for a freshly trained ensemble and held-out accuracy for a saved one.
	Accuracy float64

	// HeldOut is the mean cross-validated accuracy of the members at their
	// chosen depth; CrossValidated is false when no member had two folds.
	HeldOut        float64
	CrossValidated bool
}

// Replay builds profiles from every stored walk, trains or loads the
// ensemble and scores it on all walk pairs.
func Replay(ctx context.Context, store dataset.Store, opts ReplayOptions) (*ReplayReport, error) {
	walks, err := dataset.LoadAll(ctx, store)
	if err != nil {
		return nil, err
	}
	profiles, skipped := gait.Pipeline{RateHz: opts.RateHz}.Profiles(walks)
	for _, err := range skipped {
		log.Printf("replay: skipping %v", err)
	}
	rep := &ReplayReport{Walks: len(profiles), Skipped: len(skipped)}

	f := ensemble.Featurizer{Mode: opts.Mode, Metrics: opts.Metrics, Bins: opts.Bins}
	if opts.Model != nil {
		if f, err = opts.Model.Featurizer(); err != nil {
			return nil, err
		}
	}
	examples, err := f.Pairs(profiles)
	if err != nil {
		return nil, err
	}
	rep.Pairs = len(examples)
	for _, ex := range examples {
		if ex.Match {
			rep.Matches++
		}
	}

	rep.Ensemble = opts.Model
	if rep.Ensemble == nil {
		rep.Ensemble, err = ensemble.Train(examples, f.Names(), opts.Mode, opts.MaxDepth)
		if err != nil {
			return nil, err
		}
		rep.Trained = true
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("replay: no walk pairs to score")
	}
	correct := 0
	for _, ex := range examples {
		v, err := rep.Ensemble.Predict(ex.Features)
		if err != nil {
			return nil, err
		}
		if v.Match == ex.Match {
			correct++
		}
	}
	rep.Accuracy = float64(correct) / float64(len(examples))
	rep.HeldOut, rep.CrossValidated = rep.Ensemble.HeldOutAccuracy()
	return rep, nil
}

// WriteReport prints the per-member depth search and the accuracies.
func (r *ReplayReport) WriteReport(w io.Writer) {
	fmt.Fprintf(w, "walks=%d skipped=%d pairs=%d matches=%d mode=%s\n",
		r.Walks, r.Skipped, r.Pairs, r.Matches, r.Ensemble.Mode)
	for _, m := range r.Ensemble.Members {
		fmt.Fprintf(w, "%-16s depth=%-2d folds=%-3d", m.Name, m.Selection.Depth, m.Selection.Folds)
		for d, acc := range m.Selection.Accuracy {
			fmt.Fprintf(w, " d%d=%.3f", d+1, acc)
		}
		fmt.Fprintln(w)
	}
	if r.CrossValidated {
		fmt.Fprintf(w, "cross-validated accuracy=%.3f\n", r.HeldOut)
	} else {
		fmt.Fprintln(w, "cross-validated accuracy=n/a (fewer than two folds)")
	}
	if r.Trained {
		fmt.Fprintf(w, "training accuracy=%.3f\n", r.Accuracy)
	} else {
		fmt.Fprintf(w, "saved model accuracy on dataset=%.3f\n", r.Accuracy)
	}
}
