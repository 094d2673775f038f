package observability

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// Sink consumes delegation events. Implementations must be safe for
// concurrent use across requests and must not block the control loop
// for longer than strictly necessary.
type Sink interface {
	Emit(ctx context.Context, ev types.Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(context.Context, types.Event) {}

// ZapSink logs every event as a structured log line.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink over the given logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger.With(zap.String("component", "delegation_events"))}
}

// Emit implements Sink.
func (s *ZapSink) Emit(_ context.Context, ev types.Event) {
	fields := []zap.Field{
		zap.String("request_id", ev.RequestID),
		zap.String("event", string(ev.Kind)),
		zap.Strings("path", ev.Path),
	}
	if ev.Node != "" {
		fields = append(fields, zap.String("node", ev.Node))
	}
	if ev.Detail != "" {
		fields = append(fields, zap.String("detail", ev.Detail))
	}
	if len(ev.FailureCounts) > 0 {
		fields = append(fields, zap.Any("failure_counts", ev.FailureCounts))
	}

	switch ev.Kind {
	case types.EventLimitation, types.EventToolFailure,
		types.EventLocalTrip, types.EventGlobalTrip,
		types.EventDepthExceeded, types.EventTerminalExhausted:
		s.logger.Warn("delegation event", fields...)
	default:
		s.logger.Info("delegation event", fields...)
	}
}

// MultiSink fans one event out to several sinks in order.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(ctx context.Context, ev types.Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, ev)
		}
	}
}
