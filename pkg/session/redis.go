package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/chartpad/pkg/cache"
	"github.com/matzehuels/chartpad/pkg/errors"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "chartpad:session:"

// RedisStore keeps snapshots in Redis. Expiry is enforced by Redis itself,
// so Cleanup is a no-op.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	owned  bool
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to the Redis at url and verifies the connection.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeStore, err, "redis ping"))
	}
	s := NewRedisStoreFromClient(client, DefaultRedisPrefix, ttl)
	s.owned = true
	return s, nil
}

// NewRedisStoreFromClient wraps an existing client. Close leaves the
// client open.
func NewRedisStoreFromClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) get(ctx context.Context, key string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "redis get")
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "parse session")
	}
	return &snap, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	snap, err := s.get(ctx, s.prefix+id)
	if err != nil {
		return nil, err
	}
	if snap.IsExpired() {
		_ = s.client.Del(ctx, s.prefix+id).Err()
		return nil, ErrExpired
	}
	return snap, nil
}

func (s *RedisStore) Set(ctx context.Context, snap *Snapshot) error {
	if err := errors.ValidateSessionID(snap.ID); err != nil {
		return err
	}
	stamp(snap, s.ttl)
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "marshal session")
	}
	if err := s.client.Set(ctx, s.prefix+snap.ID, data, max(s.ttl, 0)).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "redis set")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return errors.Wrap(errors.ErrCodeStore, s.client.Del(ctx, s.prefix+id).Err(), "redis del")
}

func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		snap, err := s.get(ctx, iter.Val())
		if err != nil || snap.IsExpired() {
			continue
		}
		out = append(out, snap.Summary())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "redis scan")
	}
	sortSummaries(out)
	return out, nil
}

func (s *RedisStore) Cleanup(context.Context) error { return nil }

func (s *RedisStore) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}
