package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/BaSui01/swarmflow/types"
)

// EventRecord is the database row for one delegation event.
type EventRecord struct {
	ID        uint      `gorm:"primaryKey"`
	RequestID string    `gorm:"index;size:64"`
	Timestamp time.Time `gorm:"index"`
	Kind      string    `gorm:"size:32"`
	Node      string    `gorm:"size:128"`
	Detail    string
	// Path and FailureCounts are JSON-encoded.
	Path          string
	FailureCounts string
}

// TableName keeps the table name stable across naming strategies.
func (EventRecord) TableName() string { return "swarm_events" }

// GormEventStore persists event trails in a relational database.
type GormEventStore struct {
	db *gorm.DB
}

// NewGormEventStore wraps a GORM handle and migrates the event table.
func NewGormEventStore(db *gorm.DB) (*GormEventStore, error) {
	if db == nil {
		return nil, ErrInvalidInput
	}
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("migrate event table: %w", err)
	}
	return &GormEventStore{db: db}, nil
}

// Append implements EventStore.
func (s *GormEventStore) Append(ctx context.Context, ev types.Event) error {
	if ev.RequestID == "" {
		return ErrInvalidInput
	}
	path, err := json.Marshal(ev.Path)
	if err != nil {
		return fmt.Errorf("encode path: %w", err)
	}
	counts, err := json.Marshal(ev.FailureCounts)
	if err != nil {
		return fmt.Errorf("encode failure counts: %w", err)
	}
	rec := EventRecord{
		RequestID:     ev.RequestID,
		Timestamp:     ev.Timestamp,
		Kind:          string(ev.Kind),
		Node:          ev.Node,
		Detail:        ev.Detail,
		Path:          string(path),
		FailureCounts: string(counts),
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// List implements EventStore.
func (s *GormEventStore) List(ctx context.Context, requestID string) ([]types.Event, error) {
	var records []EventRecord
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	trail := make([]types.Event, 0, len(records))
	for _, rec := range records {
		ev := types.Event{
			Timestamp: rec.Timestamp,
			RequestID: rec.RequestID,
			Kind:      types.EventKind(rec.Kind),
			Node:      rec.Node,
			Detail:    rec.Detail,
		}
		if rec.Path != "" {
			if err := json.Unmarshal([]byte(rec.Path), &ev.Path); err != nil {
				return nil, fmt.Errorf("decode path: %w", err)
			}
		}
		if rec.FailureCounts != "" {
			if err := json.Unmarshal([]byte(rec.FailureCounts), &ev.FailureCounts); err != nil {
				return nil, fmt.Errorf("decode failure counts: %w", err)
			}
		}
		trail = append(trail, ev)
	}
	return trail, nil
}

// Ping implements EventStore.
func (s *GormEventStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close implements EventStore.
func (s *GormEventStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
