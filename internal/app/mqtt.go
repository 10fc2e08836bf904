package app

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gait_lock/internal/auth"
)

// OutcomeTopicSuffix is appended to the decision topic for full tick
// outcomes; the bare decision topic carries only '0' or '1'.
const OutcomeTopicSuffix = "/outcome"

func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Printf("connected to MQTT broker at %s", broker)
	return client, nil
}

// subscribeToggle toggles calibration on every message on topic.
func subscribeToggle(client mqtt.Client, topic string, ctrl Controller, hub *Hub) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, _ mqtt.Message) {
		tr := ctrl.Toggle()
		hub.Broadcast(WSResponse{Type: "transition", Transition: &tr})
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("control: calibration toggle on MQTT topic %s", topic)
	return nil
}

func publishOutcome(client mqtt.Client, topic string, o auth.Outcome) {
	payload, err := json.Marshal(o)
	if err != nil {
		log.Printf("json marshal error (outcome): %v", err)
		return
	}
	if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (outcome): %v", token.Error())
	}
}
