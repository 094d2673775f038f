package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BaSui01/swarmflow/types"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// StoreType represents the type of storage backend.
type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeRedis    StoreType = "redis"
	StoreTypeDatabase StoreType = "database"
)

// EventStore persists delegation event trails keyed by request ID.
type EventStore interface {
	// Append adds one event to its request's trail.
	Append(ctx context.Context, ev types.Event) error

	// List returns a request's trail in append order. ErrNotFound when
	// no events exist for the request.
	List(ctx context.Context, requestID string) ([]types.Event, error)

	// Ping checks if the store is healthy.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// RedisStoreConfig configures the Redis backend.
type RedisStoreConfig struct {
	Addr      string        `json:"addr" yaml:"addr"`
	Password  string        `json:"password" yaml:"password"`
	DB        int           `json:"db" yaml:"db"`
	PoolSize  int           `json:"pool_size" yaml:"pool_size"`
	KeyPrefix string        `json:"key_prefix" yaml:"key_prefix"`
	TTL       time.Duration `json:"ttl" yaml:"ttl"`
}

// StoreConfig selects and configures an event store backend.
type StoreConfig struct {
	Type  StoreType        `json:"type" yaml:"type"`
	Redis RedisStoreConfig `json:"redis" yaml:"redis"`
}

// DefaultStoreConfig returns the memory backend.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{Type: StoreTypeMemory}
}

// NewEventStore builds the backend named by the config. The database
// backend carries its own handle; construct it with NewGormEventStore.
func NewEventStore(config StoreConfig) (EventStore, error) {
	switch config.Type {
	case StoreTypeMemory, "":
		return NewMemoryEventStore(), nil
	case StoreTypeRedis:
		return NewRedisEventStore(config.Redis)
	default:
		return nil, fmt.Errorf("unsupported event store type %q", config.Type)
	}
}
