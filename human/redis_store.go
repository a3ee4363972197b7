package human

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is the durable reference Store implementation, grounded on
// the teacher's checkpoint-store key layout: one JSON string key per task, a
// sorted set of pending task IDs scored by deadline so the expiry
// processor can sweep without scanning every key, and a per-execution
// set so every task belonging to one cascade run can be bulk-listed.
//
// Key layout:
//   - Task:      {prefix}:task:{id}
//   - Pending:   {prefix}:pending  (ZSET, score = deadline unix)
//   - Execution: {prefix}:execution:{id}  (SET of task ids)
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix overrides the default "cascade:human" prefix.
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.keyPrefix = prefix }
}

// WithRedisTTL overrides how long a resolved/expired task record is
// retained after settling, for audit purposes.
func WithRedisTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// NewRedisStore builds a RedisStore over an existing client.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		keyPrefix: "cascade:human",
		ttl:       7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) taskKey(id string) string {
	return fmt.Sprintf("%s:task:%s", s.keyPrefix, id)
}

func (s *RedisStore) pendingKey() string {
	return fmt.Sprintf("%s:pending", s.keyPrefix)
}

func (s *RedisStore) executionKey(executionID string) string {
	return fmt.Sprintf("%s:execution:%s", s.keyPrefix, executionID)
}

func (s *RedisStore) Create(ctx context.Context, task *Task) error {
	if err := s.save(ctx, task); err != nil {
		return err
	}
	if task.ExecutionID != "" {
		execKey := s.executionKey(task.ExecutionID)
		if err := s.client.SAdd(ctx, execKey, task.ID).Err(); err != nil {
			return fmt.Errorf("index execution: %w", err)
		}
		if err := s.client.Expire(ctx, execKey, s.ttl).Err(); err != nil {
			return fmt.Errorf("index execution ttl: %w", err)
		}
	}
	return s.client.ZAdd(ctx, s.pendingKey(), &redis.Z{
		Score:  float64(task.Deadline.Unix()),
		Member: task.ID,
	}).Err()
}

func (s *RedisStore) save(ctx context.Context, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	return s.client.Set(ctx, s.taskKey(task.ID), data, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Task, error) {
	data, err := s.client.Get(ctx, s.taskKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrUnknownTask
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &task, nil
}

func (s *RedisStore) Update(ctx context.Context, task *Task) error {
	if err := s.save(ctx, task); err != nil {
		return err
	}
	if task.Status == StatusResolved || task.Status == StatusExpired || task.Status == StatusCancelled {
		return s.client.ZRem(ctx, s.pendingKey(), task.ID).Err()
	}
	return nil
}

func (s *RedisStore) Pending(ctx context.Context, before time.Time) ([]*Task, error) {
	ids, err := s.client.ZRangeByScore(ctx, s.pendingKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", before.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	out := make([]*Task, 0, len(ids))
	for _, id := range ids {
		task, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

// ByExecution lists every task indexed under executionID's execution
// set, skipping any whose task key has since expired.
func (s *RedisStore) ByExecution(ctx context.Context, executionID string) ([]*Task, error) {
	ids, err := s.client.SMembers(ctx, s.executionKey(executionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list execution tasks: %w", err)
	}

	out := make([]*Task, 0, len(ids))
	for _, id := range ids {
		task, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

var _ Store = (*RedisStore)(nil)
var _ Store = (*MemoryStore)(nil)
