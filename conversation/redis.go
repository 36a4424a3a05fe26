package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sweetpotato0/tripflow/message"
)

// RedisStore implements Store using a Redis list per thread. RPUSH keeps the
// history append-only with insertion order preserved by the server.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration for conversation threads.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisStore creates a new Redis-based conversation store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = &RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "tripflow:thread:",
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Messages returns the full thread history in append order.
func (s *RedisStore) Messages(ctx context.Context, threadID string) ([]*message.Message, error) {
	raw, err := s.client.LRange(ctx, s.threadKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	msgs := make([]*message.Message, 0, len(raw))
	for _, item := range raw {
		var msg message.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode message in thread %s: %w", threadID, err)
		}
		msgs = append(msgs, &msg)
	}
	return msgs, nil
}

// Append pushes messages onto the end of the thread list.
func (s *RedisStore) Append(ctx context.Context, threadID string, msgs ...*message.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		if msg == nil {
			return fmt.Errorf("message cannot be nil")
		}
		raw, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, raw)
	}

	key := s.threadKey(threadID)
	if err := s.client.RPush(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("failed to append to thread %s: %w", threadID, err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("failed to refresh thread ttl: %w", err)
		}
	}
	return nil
}

// Len returns the current thread length.
func (s *RedisStore) Len(ctx context.Context, threadID string) (int, error) {
	n, err := s.client.LLen(ctx, s.threadKey(threadID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count thread %s: %w", threadID, err)
	}
	return int(n), nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) threadKey(threadID string) string {
	return s.prefix + threadID
}
