package actuator

import (
	"context"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

// MQTT publishes '0' or '1' on a topic for networked lock controllers.
type MQTT struct {
	Client mqtt.Client
	Topic  string
}

func (m *MQTT) Write(_ context.Context, c Code) error {
	token := m.Client.Publish(m.Topic, 1, false, []byte{c.ASCII()})
	token.Wait()
	return errors.Wrapf(token.Error(), "publishing to %s", m.Topic)
}

// Close leaves the shared client connected.
func (m *MQTT) Close() error { return nil }
