// Package auth runs the per-tick authentication pipeline: it owns the
// session state, the calibration profile and the classifier, and turns each
// sensor batch into at most one decision.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/relabs-tech/gait_lock/internal/calibration"
	"github.com/relabs-tech/gait_lock/internal/dataset"
	"github.com/relabs-tech/gait_lock/internal/ensemble"
	"github.com/relabs-tech/gait_lock/internal/gait"
	"github.com/relabs-tech/gait_lock/internal/imu"
	"github.com/relabs-tech/gait_lock/internal/session"
	"github.com/relabs-tech/gait_lock/internal/similarity"
)

// ErrNotEnrolled is returned when a profile comparison is needed before any
// calibration sample was merged.
var ErrNotEnrolled = errors.New("not enrolled")

// Options configures an Engine.
type Options struct {
	Strategy          Strategy
	Metrics           []similarity.Named
	RateHz            float64
	EvaluationSamples int
	InitialThreshold  float64
	FailurePolicy     FailurePolicy

	// Classifier strategy
	ClaimedIdentity string
	Mode            ensemble.Mode
	FeatureBins     int
	MaxDepth        int
	Store           dataset.Store

	// ProfilePath, when set, is where the calibration snapshot is kept.
	ProfilePath string
}

// Engine is safe for concurrent use. Ticks and toggles are serialised by a
// single mutex, so a toggle lands entirely before or after a tick.
type Engine struct {
	opts       Options
	pipeline   gait.Pipeline
	featurizer ensemble.Featurizer

	mu             sync.Mutex
	session        *session.Machine
	calib          calibration.Accumulator
	model          *model
	retrainPending bool
	lastRetrainErr error
	ticks          uint64
	last           *Outcome
}

// New builds an engine and restores the calibration snapshot if one exists.
func New(opts Options) (*Engine, error) {
	if opts.Strategy == "" {
		opts.Strategy = StrategyThreshold
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = FailDeny
	}
	if opts.Mode == "" {
		opts.Mode = ensemble.PerMetric
	}
	if len(opts.Metrics) == 0 {
		m, err := similarity.Lookup(similarity.DefaultNames...)
		if err != nil {
			return nil, err
		}
		opts.Metrics = m
	}
	if opts.Strategy == StrategyClassifier {
		if opts.Store == nil {
			return nil, errors.New("auth: classifier strategy needs a dataset store")
		}
		if opts.ClaimedIdentity == "" {
			return nil, errors.New("auth: classifier strategy needs a claimed identity")
		}
		if opts.Mode == ensemble.PerDimension && opts.FeatureBins <= 0 {
			return nil, errors.New("auth: per_dimension mode needs feature bins")
		}
	}

	e := &Engine{
		opts:     opts,
		pipeline: gait.Pipeline{RateHz: opts.RateHz},
		featurizer: ensemble.Featurizer{
			Mode:    opts.Mode,
			Metrics: opts.Metrics,
			Bins:    opts.FeatureBins,
		},
		session: session.New(opts.InitialThreshold, opts.EvaluationSamples),
	}

	if opts.ProfilePath != "" {
		snap, err := calibration.LoadSnapshot(opts.ProfilePath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := e.Restore(snap); err != nil {
				return nil, err
			}
			log.Printf("engine: restored calibration from %s (weight=%d threshold=%.4f)", opts.ProfilePath, snap.Weight, snap.Threshold)
		}
	}
	return e, nil
}

// Restore replaces the calibration profile and threshold.
func (e *Engine) Restore(s calibration.Snapshot) error {
	acc, err := s.Accumulator()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calib = acc
	e.session.SetThreshold(s.Threshold)
	return nil
}

// Outcome describes one tick.
type Outcome struct {
	Tick      uint64             `json:"tick"`
	At        time.Time          `json:"at"`
	State     session.State      `json:"state"`
	Raw       int                `json:"raw"`
	Resampled int                `json:"resampled"`
	Period    int                `json:"period"`
	Length    int                `json:"length"`
	Scores    map[string]float64 `json:"scores,omitempty"`
	Weight    int                `json:"weight"`
	Threshold float64            `json:"threshold"`
	Decision  *Decision          `json:"decision,omitempty"`
	Retrained bool               `json:"retrained,omitempty"`
	Err       error              `json:"-"`
	Error     string             `json:"error,omitempty"`
}

// Tick runs one batch through the branch of the current state. State is
// only changed when every stage of the branch succeeded.
func (e *Engine) Tick(ctx context.Context, b imu.Batch) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.begin()
	var err error
	switch out.State {
	case session.Idle:
		err = e.infer(&out, b)
	case session.Calibrating:
		err = e.calibrate(ctx, &out, b)
	case session.Evaluating:
		err = e.evaluate(&out, b)
	}
	if err == nil && e.retrainPending {
		// A failed tick leaves the classifier alone; the retrain waits for
		// the next good one.
		e.retrainPending = false
		out.Retrained = e.retrainLocked(ctx) == nil
	}
	return e.finish(out, err)
}

// Abort records a tick whose batch never arrived, e.g. because the sensor
// fetch failed. It follows the same failure policy as a failed Tick.
func (e *Engine) Abort(_ context.Context, cause error) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finish(e.begin(), cause)
}

func (e *Engine) begin() Outcome {
	e.ticks++
	return Outcome{Tick: e.ticks, At: time.Now().UTC(), State: e.session.State()}
}

func (e *Engine) finish(out Outcome, err error) Outcome {
	if err != nil {
		out.Err = err
		out.Error = err.Error()
		if out.State == session.Idle && out.Decision == nil && e.opts.FailurePolicy == FailDeny {
			out.Decision = deny(ReasonTickFailed)
		}
	}
	out.Weight = e.calib.Weight()
	out.Threshold = e.session.Threshold()
	e.last = &out

	e.logOutcome(out)
	return out
}

func (e *Engine) logOutcome(o Outcome) {
	msg := fmt.Sprintf("engine: tick=%d state=%s raw=%d resampled=%d period=%d len=%d weight=%d threshold=%.4f",
		o.Tick, o.State, o.Raw, o.Resampled, o.Period, o.Length, o.Weight, o.Threshold)
	if s, ok := o.Scores[similarity.NameJaccard]; ok {
		msg += fmt.Sprintf(" jaccard=%.4f", s)
	}
	if o.Decision != nil {
		msg += fmt.Sprintf(" decision=%d reason=%s", o.Decision.Code(), o.Decision.Reason)
	}
	if o.Err != nil {
		msg += fmt.Sprintf(" err=%v", o.Err)
	}
	log.Print(msg)
}

func (e *Engine) run(out *Outcome, b imu.Batch) (gait.Result, error) {
	r, err := e.pipeline.Run(b)
	out.Raw, out.Resampled, out.Period = r.Raw, r.Resampled, r.Period
	out.Length = r.Profile.Len()
	return r, err
}

// scoreAgainstCalibration fills out.Scores with every active metric that
// succeeds and returns the Jaccard similarity, which must.
func (e *Engine) scoreAgainstCalibration(out *Outcome, r gait.Result) (float64, error) {
	if !e.calib.Enrolled() {
		return 0, ErrNotEnrolled
	}
	ref := e.calib.Profile()
	out.Scores = map[string]float64{}
	for _, m := range e.opts.Metrics {
		if v, err := m.Fn(r.Profile, ref); err == nil {
			out.Scores[m.Name] = v
		}
	}
	j, err := similarity.Jaccard(r.Profile, ref)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", similarity.NameJaccard, err)
	}
	out.Scores[similarity.NameJaccard] = j
	return j, nil
}

func (e *Engine) infer(out *Outcome, b imu.Batch) error {
	if e.opts.Strategy == StrategyClassifier {
		return e.inferClassifier(out, b)
	}

	if !e.calib.Enrolled() {
		out.Decision = deny(ReasonNotEnrolled)
		return nil
	}
	r, err := e.run(out, b)
	if err != nil {
		return err
	}
	j, err := e.scoreAgainstCalibration(out, r)
	if err != nil {
		return err
	}
	d := &Decision{Score: j, Reason: ReasonBelowThreshold}
	if j >= e.session.Threshold() {
		d.Accept = true
		d.Reason = ReasonAccepted
	}
	out.Decision = d
	return nil
}

func (e *Engine) inferClassifier(out *Outcome, b imu.Batch) error {
	switch {
	case e.model == nil:
		out.Decision = deny(ReasonClassifierNotTrained)
		return nil
	case !e.calib.Enrolled(), !e.model.enrolled(e.opts.ClaimedIdentity):
		out.Decision = deny(ReasonNotEnrolled)
		return nil
	}
	r, err := e.run(out, b)
	if err != nil {
		return err
	}
	fractions, err := e.model.identify(e.featurizer, r.Profile)
	if err != nil {
		return err
	}
	out.Scores = fractions
	out.Decision = decideIdentity(fractions, e.opts.ClaimedIdentity)
	return nil
}

func (e *Engine) calibrate(ctx context.Context, out *Outcome, b imu.Batch) error {
	r, err := e.run(out, b)
	if err != nil {
		return err
	}
	merged, err := e.calib.Merge(r.Profile, r.Weight())
	if err != nil {
		return err
	}
	if e.opts.Strategy == StrategyClassifier {
		if err := e.opts.Store.Append(ctx, e.opts.ClaimedIdentity, b); err != nil {
			return fmt.Errorf("storing walk: %w", err)
		}
	}
	e.calib = merged
	e.saveSnapshot()
	return nil
}

func (e *Engine) evaluate(out *Outcome, b imu.Batch) error {
	r, err := e.run(out, b)
	if err != nil {
		return err
	}
	j, err := e.scoreAgainstCalibration(out, r)
	if err != nil {
		return err
	}
	ev, err := e.session.RecordEvaluation(j)
	if err != nil {
		return err
	}
	log.Printf("engine: evaluation %d/%d score=%.4f", ev.Collected, ev.Needed, j)
	if ev.Done {
		log.Printf("engine: evaluation complete, threshold=%.4f", ev.Threshold)
		e.saveSnapshot()
	}
	return nil
}

func (e *Engine) saveSnapshot() {
	if e.opts.ProfilePath == "" {
		return
	}
	snap := calibration.Snapshot{
		Identity:  e.opts.ClaimedIdentity,
		SavedAt:   time.Now().UTC(),
		Weight:    e.calib.Weight(),
		Threshold: e.session.Threshold(),
		Profile:   e.calib.Profile(),
	}
	if err := calibration.SaveSnapshot(e.opts.ProfilePath, snap); err != nil {
		log.Printf("engine: saving calibration snapshot: %v", err)
	}
}

// Toggle applies the calibration trigger. Entering calibration discards the
// current profile; leaving it schedules a retrain for the classifier.
func (e *Engine) Toggle() session.Transition {
	e.mu.Lock()
	defer e.mu.Unlock()

	tr := e.session.Toggle()
	if tr.To == session.Calibrating {
		e.calib = calibration.Accumulator{}
	}
	if tr.From == session.Calibrating && e.opts.Strategy == StrategyClassifier {
		e.retrainPending = true
	}
	log.Printf("engine: %s -> %s", tr.From, tr.To)
	return tr
}

// Retrain rebuilds the classifier from the dataset store and swaps it in.
// On failure the previous classifier stays active.
func (e *Engine) Retrain(ctx context.Context) error {
	if e.opts.Store == nil {
		return errors.New("auth: no dataset store configured")
	}
	m, err := buildModel(ctx, e.opts.Store, e.pipeline, e.featurizer, e.opts.MaxDepth)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commitModel(m, err)
}

func (e *Engine) retrainLocked(ctx context.Context) error {
	m, err := buildModel(ctx, e.opts.Store, e.pipeline, e.featurizer, e.opts.MaxDepth)
	return e.commitModel(m, err)
}

func (e *Engine) commitModel(m *model, err error) error {
	e.lastRetrainErr = err
	if err != nil {
		log.Printf("engine: retrain failed, keeping previous classifier: %v", err)
		return err
	}
	e.model = m
	log.Printf("engine: classifier trained on %d walks (%d pairs, %d skipped)",
		len(m.references), m.ensemble.Examples, m.skipped)
	return nil
}

// Status is a point-in-time view of the engine.
type Status struct {
	State               session.State     `json:"state"`
	Strategy            Strategy          `json:"strategy"`
	Weight              int               `json:"weight"`
	Threshold           float64           `json:"threshold"`
	EvaluationCollected int               `json:"evaluation_collected"`
	EvaluationNeeded    int               `json:"evaluation_needed"`
	Trained             bool              `json:"trained"`
	TrainedAt           *time.Time        `json:"trained_at,omitempty"`
	Members             []ensemble.Member `json:"members,omitempty"`
	RetrainPending      bool              `json:"retrain_pending"`
	RetrainError        string            `json:"retrain_error,omitempty"`
	Ticks               uint64            `json:"ticks"`
	Last                *Outcome          `json:"last,omitempty"`
}

// Status returns a copy of the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{
		State:          e.session.State(),
		Strategy:       e.opts.Strategy,
		Weight:         e.calib.Weight(),
		Threshold:      e.session.Threshold(),
		RetrainPending: e.retrainPending,
		Ticks:          e.ticks,
	}
	s.EvaluationCollected, s.EvaluationNeeded = e.session.EvaluationProgress()
	if e.model != nil {
		s.Trained = true
		at := e.model.ensemble.TrainedAt
		s.TrainedAt = &at
		s.Members = e.model.ensemble.Members
	}
	if e.lastRetrainErr != nil {
		s.RetrainError = e.lastRetrainErr.Error()
	}
	if e.last != nil {
		last := *e.last
		s.Last = &last
	}
	return s
}
