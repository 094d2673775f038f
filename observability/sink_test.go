package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/swarmflow/types"
)

func sampleEvent(kind types.EventKind) types.Event {
	return types.Event{
		Timestamp:     time.Now().UTC(),
		RequestID:     "req-1",
		Kind:          kind,
		Path:          []string{"root", "worker"},
		Node:          "worker",
		Detail:        "something happened",
		FailureCounts: map[string]int{"worker": 1},
	}
}

func TestZapSinkLogLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewZapSink(zap.New(core))
	ctx := context.Background()

	sink.Emit(ctx, sampleEvent(types.EventHop))
	sink.Emit(ctx, sampleEvent(types.EventToolFailure))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)

	fields := entries[1].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, string(types.EventToolFailure), fields["event"])
	assert.Equal(t, "worker", fields["node"])
	assert.Equal(t, "something happened", fields["detail"])
}

func TestZapSinkNilLogger(t *testing.T) {
	sink := NewZapSink(nil)
	assert.NotPanics(t, func() {
		sink.Emit(context.Background(), sampleEvent(types.EventHop))
	})
}

type countingSink struct{ n int }

func (s *countingSink) Emit(context.Context, types.Event) { s.n++ }

func TestMultiSinkFansOut(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	m := MultiSink{a, nil, b}

	m.Emit(context.Background(), sampleEvent(types.EventHop))
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
}
