// Package sensors fetches sample batches from the gait sensor unit.
package sensors

import (
	"context"

	"github.com/pkg/errors"

	"github.com/relabs-tech/gait_lock/internal/imu"
)

// ErrNoData is returned when no new batch arrived since the last fetch.
var ErrNoData = errors.New("no new sensor data")

// Source yields one batch per poll.
type Source interface {
	Fetch(ctx context.Context) (imu.Batch, error)
}
