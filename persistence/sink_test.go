package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/swarmflow/types"
)

func TestStoreSinkPersistsEvents(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryEventStore()
	sink := NewStoreSink(store, nil)

	sink.Emit(ctx, trailEvent("req-1", types.EventHop, "a"))
	sink.Emit(ctx, trailEvent("req-1", types.EventSuccess, "a"))

	trail, err := store.List(ctx, "req-1")
	require.NoError(t, err)
	assert.Len(t, trail, 2)
}

func TestStoreSinkSwallowsStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryEventStore()
	require.NoError(t, store.Close())

	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewStoreSink(store, zap.New(core))

	assert.NotPanics(t, func() {
		sink.Emit(ctx, trailEvent("req-1", types.EventHop, "a"))
	})
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}
