package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/gait_lock/internal/app"
	"github.com/relabs-tech/gait_lock/internal/config"
	"github.com/relabs-tech/gait_lock/internal/sensors"
)

func main() {
	configPath := flag.String("config", "./gait_config.txt", "path to configuration file")
	cycle := flag.Float64("cycle", sensors.DefaultWalker.CycleMs, "gait cycle length in ms")
	samples := flag.Int("samples", 300, "samples per published walk")
	flag.Parse()

	log.Println("starting gait lock MQTT producer (mock)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := sensors.DefaultWalker
	w.CycleMs = *cycle
	if err := app.RunMockProducer(ctx, config.Get(), w, *samples); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
