// Package dataset stores raw calibration walks per identity.
package dataset

import (
	"context"
	"regexp"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/relabs-tech/gait_lock/internal/imu"
)

// ErrInvalidIdentity is returned for identities that cannot be used as
// file or key names.
var ErrInvalidIdentity = errors.New("invalid identity")

var identityRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Store persists walks. Implementations are safe for concurrent use.
type Store interface {
	Append(ctx context.Context, identity string, walk imu.Batch) error
	// Load returns the walks of identity in insertion order.
	Load(ctx context.Context, identity string) ([]imu.Batch, error)
	Identities(ctx context.Context) ([]string, error)
	Clear(ctx context.Context, identity string) error
}

// Walk is a stored walk with its identity.
type Walk struct {
	Identity string
	Batch    imu.Batch
}

// LoadAll returns every stored walk, grouped by identity in sorted order.
func LoadAll(ctx context.Context, s Store) ([]Walk, error) {
	ids, err := s.Identities(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	var out []Walk
	for _, id := range ids {
		walks, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, w := range walks {
			out = append(out, Walk{Identity: id, Batch: w})
		}
	}
	return out, nil
}

func checkIdentity(identity string) error {
	if !identityRe.MatchString(identity) {
		return errors.Wrapf(ErrInvalidIdentity, "%q", identity)
	}
	return nil
}

// Memory is an in-process Store.
type Memory struct {
	mu    sync.Mutex
	walks map[string][]imu.Batch
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{walks: map[string][]imu.Batch{}}
}

func (m *Memory) Append(_ context.Context, identity string, walk imu.Batch) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.walks[identity] = append(m.walks[identity], append(imu.Batch(nil), walk...))
	return nil
}

func (m *Memory) Load(_ context.Context, identity string) ([]imu.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]imu.Batch(nil), m.walks[identity]...), nil
}

func (m *Memory) Identities(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.walks))
	for id := range m.walks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) Clear(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.walks, identity)
	return nil
}
