package app

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/gait_lock/internal/actuator"
	"github.com/relabs-tech/gait_lock/internal/auth"
	"github.com/relabs-tech/gait_lock/internal/config"
	"github.com/relabs-tech/gait_lock/internal/dataset"
	"github.com/relabs-tech/gait_lock/internal/ensemble"
	"github.com/relabs-tech/gait_lock/internal/sensors"
	"github.com/relabs-tech/gait_lock/internal/similarity"
)

// OpenStore returns the configured dataset store, or nil for "none".
func OpenStore(ctx context.Context, cfg *config.Config) (dataset.Store, error) {
	switch cfg.DatasetBackend {
	case "csv":
		return dataset.NewCSVStore(cfg.DatasetDir)
	case "redis":
		return dataset.NewRedisStore(ctx, dataset.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	}
	return nil, nil
}

// EngineOptions maps configuration onto engine options.
func EngineOptions(cfg *config.Config, store dataset.Store) (auth.Options, error) {
	metrics, err := similarity.Lookup(cfg.ActiveMetrics...)
	if err != nil {
		return auth.Options{}, err
	}
	strategy, err := auth.ParseStrategy(cfg.Strategy)
	if err != nil {
		return auth.Options{}, err
	}
	mode, err := ensemble.ParseMode(cfg.ClassifierMode)
	if err != nil {
		return auth.Options{}, err
	}
	return auth.Options{
		Strategy:          strategy,
		Metrics:           metrics,
		RateHz:            cfg.TargetRateHz,
		EvaluationSamples: cfg.EvaluationSamples,
		InitialThreshold:  cfg.InitialThreshold,
		FailurePolicy:     auth.FailurePolicy(cfg.FailedTickPolicy),
		ClaimedIdentity:   cfg.ClaimedIdentity,
		Mode:              mode,
		FeatureBins:       cfg.FeatureBins,
		MaxDepth:          cfg.MaxDepth,
		Store:             store,
		ProfilePath:       cfg.ProfilePath,
	}, nil
}

func needsMQTT(cfg *config.Config) bool {
	return cfg.SensorSource == "mqtt" || slices.Contains(cfg.Actuators, "mqtt")
}

func openSource(cfg *config.Config, client mqtt.Client) (sensors.Source, error) {
	switch cfg.SensorSource {
	case "mqtt":
		return sensors.NewMQTTSource(client, cfg.TopicSamples, cfg.SensorAxis, cfg.BufferCapacity)
	case "mock":
		log.Println("using mock gait source")
		return sensors.NewMockSource(sensors.DefaultWalker, time.Now().UnixNano()), nil
	}
	timeout := time.Duration(cfg.SensorTimeoutMS) * time.Millisecond
	return sensors.NewHTTPSource(cfg.SensorURL, cfg.SensorAxis, cfg.BufferCapacity, timeout), nil
}

func openActuators(cfg *config.Config, client mqtt.Client) (actuator.Multi, error) {
	var out actuator.Multi
	for _, name := range cfg.Actuators {
		var (
			a   actuator.Actuator
			err error
		)
		switch name {
		case "serial":
			a, err = actuator.OpenSerial(cfg.SerialPort, cfg.SerialBaud)
		case "gpio":
			a, err = actuator.OpenGPIO(cfg.GPIOPin)
		case "mqtt":
			a = &actuator.MQTT{Client: client, Topic: cfg.TopicDecision}
		case "log":
			a = actuator.Log{}
		default:
			err = fmt.Errorf("unknown actuator %q", name)
		}
		if err != nil {
			out.Close()
			return nil, err
		}
		out = append(out, actuator.Named{Name: name, Actuator: a})
	}
	return out, nil
}

// RunDaemon wires the door unit together and runs until ctx is cancelled
// or a component fails.
func RunDaemon(ctx context.Context, cfg *config.Config) error {
	log.Printf("starting gait lock (strategy=%s source=%s actuators=%v)", cfg.Strategy, cfg.SensorSource, cfg.Actuators)

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	opts, err := EngineOptions(cfg, store)
	if err != nil {
		return err
	}
	engine, err := auth.New(opts)
	if err != nil {
		return err
	}
	if opts.Strategy == auth.StrategyClassifier {
		if err := engine.Retrain(ctx); err != nil {
			log.Printf("initial training skipped: %v", err)
		}
	}

	var client mqtt.Client
	if needsMQTT(cfg) {
		if client, err = connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID); err != nil {
			return fmt.Errorf("MQTT connect: %w", err)
		}
	} else if cfg.TopicCalibrate != "" && cfg.MQTTBroker != "" {
		if client, err = connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID); err != nil {
			log.Printf("MQTT unavailable, calibration toggle over HTTP only: %v", err)
			client = nil
		}
	}
	if client != nil {
		defer client.Disconnect(250)
	}

	src, err := openSource(cfg, client)
	if err != nil {
		return err
	}
	acts, err := openActuators(cfg, client)
	if err != nil {
		return err
	}
	defer acts.Close()

	hub := NewHub()
	if client != nil && cfg.TopicCalibrate != "" {
		if err := subscribeToggle(client, cfg.TopicCalibrate, engine, hub); err != nil {
			return err
		}
	}

	sched := &Scheduler{
		Engine:   engine,
		Source:   src,
		Actuator: acts,
		Interval: time.Duration(cfg.TickInterval) * time.Millisecond,
		OnOutcome: func(o auth.Outcome) {
			hub.PublishOutcome(o)
			if client != nil && cfg.TopicDecision != "" {
				publishOutcome(client, cfg.TopicDecision+OutcomeTopicSuffix, o)
			}
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.ControlPort)
		return RunControlServer(gctx, addr, NewControlRouter(engine, hub))
	})
	return g.Wait()
}
