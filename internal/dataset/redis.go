package dataset

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/relabs-tech/gait_lock/internal/imu"
)

const (
	identitiesKey = "gait:identities"
	walkKeyPrefix = "gait:walk:"
)

// RedisConfig addresses the Redis server.
type RedisConfig struct {
	Addr string
	DB   int
}

// RedisStore keeps each identity's walks as a list of JSON documents and
// the known identities in a set.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "redis ping %s", cfg.Addr)
	}
	return &RedisStore{Client: client}, nil
}

// Close releases the connection pool.
func (r *RedisStore) Close() error { return r.Client.Close() }

func (r *RedisStore) Append(ctx context.Context, identity string, walk imu.Batch) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	data, err := json.Marshal(walk)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = r.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, walkKeyPrefix+identity, data)
		p.SAdd(ctx, identitiesKey, identity)
		return nil
	})
	return errors.Wrapf(err, "appending walk for %s", identity)
}

func (r *RedisStore) Load(ctx context.Context, identity string) ([]imu.Batch, error) {
	docs, err := r.Client.LRange(ctx, walkKeyPrefix+identity, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "loading walks for %s", identity)
	}
	out := make([]imu.Batch, 0, len(docs))
	for i, doc := range docs {
		var walk imu.Batch
		if err := json.Unmarshal([]byte(doc), &walk); err != nil {
			return nil, errors.Wrapf(err, "walk %d of %s", i, identity)
		}
		out = append(out, walk)
	}
	return out, nil
}

func (r *RedisStore) Identities(ctx context.Context) ([]string, error) {
	ids, err := r.Client.SMembers(ctx, identitiesKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "listing identities")
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *RedisStore) Clear(ctx context.Context, identity string) error {
	_, err := r.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, walkKeyPrefix+identity)
		p.SRem(ctx, identitiesKey, identity)
		return nil
	})
	return errors.Wrapf(err, "clearing %s", identity)
}
