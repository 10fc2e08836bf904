package actuator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type recorder struct {
	codes  []Code
	err    error
	closed bool
}

func (r *recorder) Write(_ context.Context, c Code) error {
	r.codes = append(r.codes, c)
	return r.err
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestMultiFansOut(t *testing.T) {
	ok := &recorder{}
	broken := &recorder{err: errors.New("unplugged")}
	last := &recorder{}
	m := Multi{{Name: "ok", Actuator: ok}, {Name: "broken", Actuator: broken}, {Name: "last", Actuator: last}}

	err := m.Write(context.Background(), Accept)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: unplugged")
	assert.Equal(t, []Code{Accept}, ok.codes)
	assert.Equal(t, []Code{Accept}, last.codes)

	require.NoError(t, m.Close())
	assert.True(t, ok.closed)
	assert.True(t, last.closed)
}

func TestMultiNoErrors(t *testing.T) {
	m := Multi{{Name: "a", Actuator: &recorder{}}}
	assert.NoError(t, m.Write(context.Background(), Deny))
}

func TestLog(t *testing.T) {
	var out bytes.Buffer
	l := Log{Printf: func(format string, args ...any) { fmt.Fprintf(&out, format, args...) }}
	require.NoError(t, l.Write(context.Background(), Deny))
	assert.Equal(t, "actuator: door deny (0)", out.String())
}

type port struct {
	bytes.Buffer
	closed bool
}

func (p *port) Close() error {
	p.closed = true
	return nil
}

func TestSerialWritesASCII(t *testing.T) {
	p := &port{}
	s := NewSerial(p, "/dev/null")
	require.NoError(t, s.Write(context.Background(), Accept))
	require.NoError(t, s.Write(context.Background(), Deny))
	assert.Equal(t, "10", p.String())
	require.NoError(t, s.Close())
	assert.True(t, p.closed)
}

func TestGPIOLevels(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO17"}
	g := NewGPIO(pin)

	require.NoError(t, g.Write(context.Background(), Accept))
	assert.Equal(t, gpio.High, pin.L)
	require.NoError(t, g.Write(context.Background(), Deny))
	assert.Equal(t, gpio.Low, pin.L)
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "accept", Accept.String())
	assert.Equal(t, byte('0'), Deny.ASCII())
	assert.Equal(t, "code(7)", Code(7).String())
}
