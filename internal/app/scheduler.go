package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/relabs-tech/gait_lock/internal/actuator"
	"github.com/relabs-tech/gait_lock/internal/auth"
	"github.com/relabs-tech/gait_lock/internal/imu"
	"github.com/relabs-tech/gait_lock/internal/sensors"
)

// Ticker is the engine surface driven by the scheduler.
type Ticker interface {
	Tick(ctx context.Context, b imu.Batch) auth.Outcome
	Abort(ctx context.Context, cause error) auth.Outcome
}

// Scheduler runs one fetch-and-tick per interval. Ticks never overlap: a
// tick that fires while the previous one is still running is dropped by
// the underlying time.Ticker.
type Scheduler struct {
	Engine   Ticker
	Source   sensors.Source
	Actuator actuator.Actuator
	Interval time.Duration

	// OnOutcome is called after every tick, e.g. to feed dashboards.
	OnOutcome func(auth.Outcome)
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("scheduler: ticking every %s", s.Interval)
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: stopped")
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce fetches a batch, runs it and actuates. It reports false when
// there was nothing new to process.
func (s *Scheduler) RunOnce(ctx context.Context) (auth.Outcome, bool) {
	var out auth.Outcome
	b, err := s.Source.Fetch(ctx)
	switch {
	case errors.Is(err, sensors.ErrNoData):
		return out, false
	case err != nil:
		if ctx.Err() != nil {
			return out, false
		}
		log.Printf("scheduler: fetch error: %v", err)
		out = s.Engine.Abort(ctx, err)
	default:
		out = s.Engine.Tick(ctx, b)
	}

	if out.Decision != nil && s.Actuator != nil {
		if err := s.Actuator.Write(ctx, actuator.Code(out.Decision.Code())); err != nil {
			log.Printf("scheduler: actuation error: %v", err)
		}
	}
	if s.OnOutcome != nil {
		s.OnOutcome(out)
	}
	return out, true
}
