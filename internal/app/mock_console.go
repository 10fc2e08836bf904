// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/relabs-tech/gait_lock/internal/actuator"
	"github.com/relabs-tech/gait_lock/internal/auth"
	"github.com/relabs-tech/gait_lock/internal/config"
	"github.com/relabs-tech/gait_lock/internal/sensors"
)

// RunMockConsole runs the engine against a synthetic walker, with no
// sensor, broker or door attached. Typing "c" toggles calibration, "s"
// prints the status and "w" switches to a different walker.
func RunMockConsole(ctx context.Context, cfg *config.Config, in io.Reader) error {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	opts, err := EngineOptions(cfg, store)
	if err != nil {
		return err
	}
	engine, err := auth.New(opts)
	if err != nil {
		return err
	}

	src := sensors.NewMockSource(sensors.DefaultWalker, time.Now().UnixNano())
	stranger := sensors.Walker{CycleMs: 730, Harmonic: 0.1, Phase: 1.2, Noise: 0.05}

	sched := &Scheduler{
		Engine:    engine,
		Source:    src,
		Actuator:  actuator.Log{},
		Interval:  time.Duration(cfg.TickInterval) * time.Millisecond,
		OnOutcome: func(o auth.Outcome) { fmt.Println(FormatOutcome(o)) },
	}

	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			switch strings.TrimSpace(sc.Text()) {
			case "c":
				tr := engine.Toggle()
				fmt.Printf("calibration: %s -> %s\n", tr.From, tr.To)
			case "s":
				st := engine.Status()
				fmt.Printf("status: state=%s weight=%d threshold=%.3f trained=%v\n", st.State, st.Weight, st.Threshold, st.Trained)
			case "w":
				next := stranger
				stranger = src.SetWalker(next)
				fmt.Printf("walker: cycle=%.0fms\n", next.CycleMs)
			}
		}
	}()

	log.Println("mock console: c=toggle calibration, s=status, w=switch walker")
	return sched.Run(ctx)
}
