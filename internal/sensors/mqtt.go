package sensors

import (
	"context"
	"log"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/relabs-tech/gait_lock/internal/imu"
)

// MQTTSource keeps the most recent batch published on a topic. Each
// published batch is handed out at most once.
type MQTTSource struct {
	Topic    string
	Axis     string
	Capacity int

	mu     sync.Mutex
	latest []byte
}

// NewMQTTSource subscribes to topic on an already connected client.
func NewMQTTSource(client mqtt.Client, topic, axis string, capacity int) (*MQTTSource, error) {
	s := &MQTTSource{Topic: topic, Axis: axis, Capacity: capacity}
	token := client.Subscribe(topic, 0, s.onMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "subscribing to %s", topic)
	}
	log.Printf("sensors: subscribed to %s", topic)
	return s, nil
}

func (s *MQTTSource) onMessage(_ mqtt.Client, msg mqtt.Message) {
	s.store(msg.Payload())
}

func (s *MQTTSource) store(payload []byte) {
	s.mu.Lock()
	s.latest = append([]byte(nil), payload...)
	s.mu.Unlock()
}

func (s *MQTTSource) Fetch(context.Context) (imu.Batch, error) {
	s.mu.Lock()
	data := s.latest
	s.latest = nil
	s.mu.Unlock()

	if data == nil {
		return nil, ErrNoData
	}
	return imu.Decode(data, s.Axis, s.Capacity)
}
