package actuator

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIO drives a relay pin: high unlocks, low keeps the door locked.
type GPIO struct {
	pin gpio.PinOut
}

// OpenGPIO initialises the host drivers and looks up the pin by name.
func OpenGPIO(pinName string) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, errors.Errorf("gpio pin %q not found", pinName)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, errors.Wrapf(err, "gpio %s", pinName)
	}
	log.Printf("actuator: relay on gpio %s", pinName)
	return &GPIO{pin: pin}, nil
}

// NewGPIO wraps a pin that is already configured.
func NewGPIO(pin gpio.PinOut) *GPIO { return &GPIO{pin: pin} }

func (g *GPIO) Write(_ context.Context, c Code) error {
	level := gpio.Low
	if c == Accept {
		level = gpio.High
	}
	return errors.Wrapf(g.pin.Out(level), "gpio %s", g.pin.Name())
}

func (g *GPIO) Close() error {
	return g.pin.Out(gpio.Low)
}
