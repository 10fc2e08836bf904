package sensors

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_lock/internal/imu"
)

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"t":[0,11,19,32],"av":[0.1,0.4,0.2,-0.3]}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, imu.AxisAV, 1000, time.Second)
	b, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 11, 19, 32}, b.Times())
	assert.Equal(t, []float64{0.1, 0.4, 0.2, -0.3}, b.Values())
}

func TestHTTPSourceErrors(t *testing.T) {
	var body string
	var status int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	defer srv.Close()
	src := NewHTTPSource(srv.URL, imu.AxisAV, 1000, time.Second)

	status, body = http.StatusInternalServerError, "boom"
	_, err := src.Fetch(context.Background())
	assert.Error(t, err)

	status, body = http.StatusOK, `{"t":[0,1]}`
	_, err = src.Fetch(context.Background())
	assert.ErrorIs(t, err, imu.ErrMalformedPayload)
}

func TestHTTPSourceTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, imu.AxisAV, 1000, 20*time.Millisecond)
	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
}

func TestMQTTSourceHandsOutOnce(t *testing.T) {
	s := &MQTTSource{Topic: "gait/samples", Axis: imu.AxisAV, Capacity: 1000}

	_, err := s.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNoData)

	s.store([]byte(`{"t":[0,10],"av":[1,2]}`))
	s.store([]byte(`{"t":[0,10,20],"av":[1,2,3]}`))
	b, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, b, 3)

	_, err = s.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestWalkerIsValidBatch(t *testing.T) {
	b := DefaultWalker.Walk(rand.New(rand.NewSource(1)), 300, 10)
	require.Len(t, b, 300)
	assert.NoError(t, b.Validate(imu.DefaultCapacity))
	assert.Equal(t, 0.0, b[0].T)
}

func TestMockSource(t *testing.T) {
	m := NewMockSource(DefaultWalker, 7)
	b, err := m.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, b, 300)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockSourceSetWalker(t *testing.T) {
	m := NewMockSource(DefaultWalker, 7)
	fast := Walker{CycleMs: 600, Noise: 0.01}
	prev := m.SetWalker(fast)
	assert.Equal(t, DefaultWalker, prev)
	assert.Equal(t, fast, m.SetWalker(prev))
}
