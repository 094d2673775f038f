package persistence

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// StoreSink adapts an EventStore to the observability.Sink contract.
// Store errors are logged and swallowed: a broken trail store must not
// break the control loop.
type StoreSink struct {
	store  EventStore
	logger *zap.Logger
}

// NewStoreSink creates a sink writing every event to store.
func NewStoreSink(store EventStore, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{
		store:  store,
		logger: logger.With(zap.String("component", "event_store_sink")),
	}
}

// Emit implements observability.Sink.
func (s *StoreSink) Emit(ctx context.Context, ev types.Event) {
	if err := s.store.Append(ctx, ev); err != nil {
		s.logger.Warn("failed to persist delegation event",
			zap.String("request_id", ev.RequestID),
			zap.String("event", string(ev.Kind)),
			zap.Error(err),
		)
	}
}
