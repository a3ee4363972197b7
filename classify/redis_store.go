package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is the durable Store implementation, grounded on the
// human package's RedisStore (itself grounded on the teacher's
// checkpoint-store key layout): a flat key per classification entry,
// plus a Redis SET of tracked keys that Set adds to, so Clear only
// removes entries written through this prefix. The tracked set lives in
// Redis and is shared by every process using the same prefix; it is not
// kept per process.
//
// Key layout:
//   - Entry:   {prefix}:entry:{key}
//   - Tracked: {prefix}:tracked  (SET of keys)
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix overrides the default "cascade:classify" prefix.
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.keyPrefix = prefix }
}

// NewRedisStore builds a RedisStore over an existing client.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, keyPrefix: "cascade:classify"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) entryKey(key string) string {
	return fmt.Sprintf("%s:entry:%s", s.keyPrefix, key)
}

func (s *RedisStore) trackedKey() string {
	return fmt.Sprintf("%s:tracked", s.keyPrefix)
}

func (s *RedisStore) Get(ctx context.Context, key string) (Classification, bool, error) {
	data, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if err == redis.Nil {
		return Classification{}, false, nil
	}
	if err != nil {
		return Classification{}, false, fmt.Errorf("classify: get %s: %w", key, err)
	}

	var c Classification
	if err := json.Unmarshal(data, &c); err != nil {
		return Classification{}, false, fmt.Errorf("classify: unmarshal %s: %w", key, err)
	}
	return c, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value Classification, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("classify: marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.entryKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("classify: set %s: %w", key, err)
	}
	return s.client.SAdd(ctx, s.trackedKey(), key).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.entryKey(key)).Err(); err != nil {
		return fmt.Errorf("classify: delete %s: %w", key, err)
	}
	return s.client.SRem(ctx, s.trackedKey(), key).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.client.SMembers(ctx, s.trackedKey()).Result()
	if err != nil {
		return fmt.Errorf("classify: list tracked keys: %w", err)
	}

	for _, key := range keys {
		if err := s.client.Del(ctx, s.entryKey(key)).Err(); err != nil {
			return fmt.Errorf("classify: clear %s: %w", key, err)
		}
	}
	return s.client.Del(ctx, s.trackedKey()).Err()
}

var _ Store = (*RedisStore)(nil)
