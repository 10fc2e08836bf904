package actuator

import (
	"context"
	"io"
	"log"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
)

// Serial writes '0' or '1' to the door controller's serial port.
type Serial struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
	name string
}

// OpenSerial opens the port 8N1 at baud.
func OpenSerial(portName string, baud int) (*Serial, error) {
	opts := serial.OpenOptions{
		PortName:        portName,
		BaudRate:        uint(baud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening serial port %s", portName)
	}
	log.Printf("actuator: serial port opened on %s at %d baud", portName, baud)
	return NewSerial(port, portName), nil
}

// NewSerial wraps an already open port.
func NewSerial(port io.ReadWriteCloser, name string) *Serial {
	return &Serial{port: port, name: name}
}

func (s *Serial) Write(_ context.Context, c Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.port.Write([]byte{c.ASCII()})
	return errors.Wrapf(err, "writing to %s", s.name)
}

func (s *Serial) Close() error { return s.port.Close() }
