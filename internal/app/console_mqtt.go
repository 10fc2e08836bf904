package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gait_lock/internal/auth"
	"github.com/relabs-tech/gait_lock/internal/config"
)

// FormatOutcome renders one tick for the console.
func FormatOutcome(o auth.Outcome) string {
	line := fmt.Sprintf("[TICK %4d] state=%-11s len=%4d weight=%5d thr=%.3f",
		o.Tick, o.State, o.Length, o.Weight, o.Threshold)
	if o.Decision != nil {
		verdict := "DENY  "
		if o.Decision.Accept {
			verdict = "UNLOCK"
		}
		line += fmt.Sprintf("  %s %-22s score=%.3f", verdict, o.Decision.Reason, o.Decision.Score)
		if o.Decision.Identity != "" {
			line += " who=" + o.Decision.Identity
		}
	}
	if o.Error != "" {
		line += "  error=" + o.Error
	}
	return line
}

// RunConsoleMQTT prints decision codes and tick outcomes until ctx ends.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID+"-console")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	codeToken := client.Subscribe(cfg.TopicDecision, 0, func(_ mqtt.Client, msg mqtt.Message) {
		fmt.Printf("[DOOR] code=%s\n", msg.Payload())
	})
	codeToken.Wait()
	if codeToken.Error() != nil {
		return codeToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicDecision)

	outcomeTopic := cfg.TopicDecision + OutcomeTopicSuffix
	outcomeToken := client.Subscribe(outcomeTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var o auth.Outcome
		if err := json.Unmarshal(msg.Payload(), &o); err != nil {
			log.Printf("console: outcome unmarshal error: %v", err)
			return
		}
		fmt.Println(FormatOutcome(o))
	})
	outcomeToken.Wait()
	if outcomeToken.Error() != nil {
		return outcomeToken.Error()
	}
	log.Printf("console: subscribed to %s", outcomeTopic)

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}
