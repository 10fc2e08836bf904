package app

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	"github.com/relabs-tech/gait_lock/internal/config"
	"github.com/relabs-tech/gait_lock/internal/sensors"
)

// RunMockProducer publishes synthetic walks on the samples topic, one per
// tick interval, in the sensor unit's wire format.
func RunMockProducer(ctx context.Context, cfg *config.Config, w sensors.Walker, samples int) error {
	log.Printf("starting mock gait producer (cycle=%.0fms samples=%d)", w.CycleMs, samples)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID+"-producer")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(time.Duration(cfg.TickInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			walk := w.Walk(rng, samples, 10)
			payload, err := json.Marshal(walk.ToPayload())
			if err != nil {
				log.Printf("json marshal error: %v", err)
				continue
			}
			if token := client.Publish(cfg.TopicSamples, 0, false, payload); token.Wait() && token.Error() != nil {
				log.Printf("MQTT publish error (samples): %v", token.Error())
				continue
			}
			log.Printf("%s published %d samples to %s", t.Format(time.RFC3339), len(walk), cfg.TopicSamples)
		}
	}
}
