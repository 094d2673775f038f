package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BaSui01/swarmflow/types"
)

// RedisEventStore persists event trails as Redis lists, one list per
// request ID. Suitable for distributed deployments.
type RedisEventStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisEventStore connects to Redis and verifies the connection.
func NewRedisEventStore(config RedisStoreConfig) (*RedisEventStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	keyPrefix := config.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "swarmflow:"
	}

	return &RedisEventStore{
		client:    client,
		keyPrefix: keyPrefix + "events:",
		ttl:       config.TTL,
	}, nil
}

func (s *RedisEventStore) trailKey(requestID string) string {
	return s.keyPrefix + requestID
}

// Append implements EventStore.
func (s *RedisEventStore) Append(ctx context.Context, ev types.Event) error {
	if ev.RequestID == "" {
		return ErrInvalidInput
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := s.trailKey(ev.RequestID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// List implements EventStore.
func (s *RedisEventStore) List(ctx context.Context, requestID string) ([]types.Event, error) {
	raw, err := s.client.LRange(ctx, s.trailKey(requestID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	trail := make([]types.Event, 0, len(raw))
	for _, item := range raw {
		var ev types.Event
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		trail = append(trail, ev)
	}
	return trail, nil
}

// Ping implements EventStore.
func (s *RedisEventStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements EventStore.
func (s *RedisEventStore) Close() error {
	return s.client.Close()
}
