package sensors

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/relabs-tech/gait_lock/internal/imu"
)

const maxBodyBytes = 4 << 20

// HTTPSource polls the sensor unit's buffer over HTTP.
type HTTPSource struct {
	URL      string
	Axis     string
	Capacity int
	Client   *http.Client
}

// NewHTTPSource returns a source with its own client and request timeout.
func NewHTTPSource(url, axis string, capacity int, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:      url,
		Axis:     axis,
		Capacity: capacity,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (imu.Batch, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building sensor request")
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", s.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sensor %s: %s", s.URL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.URL)
	}
	return imu.Decode(body, s.Axis, s.Capacity)
}
