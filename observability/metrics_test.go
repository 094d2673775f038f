package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/swarmflow/types"
)

func TestCollectorCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWith("test", reg)
	ctx := context.Background()

	c.Emit(ctx, sampleEvent(types.EventHop))
	c.Emit(ctx, sampleEvent(types.EventHop))
	c.Emit(ctx, sampleEvent(types.EventLimitation))
	c.Emit(ctx, sampleEvent(types.EventToolFailure))
	c.Emit(ctx, sampleEvent(types.EventLocalTrip))
	c.Emit(ctx, sampleEvent(types.EventGlobalTrip))
	c.Emit(ctx, sampleEvent(types.EventDepthExceeded))
	c.Emit(ctx, sampleEvent(types.EventEscalate))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.hopsTotal.WithLabelValues("worker")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failuresTotal.WithLabelValues("worker", "limitation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failuresTotal.WithLabelValues("worker", "tool_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.breakerTripsTotal.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.breakerTripsTotal.WithLabelValues("global")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.breakerTripsTotal.WithLabelValues("depth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.escalationsTotal))
}

func TestCollectorObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWith("test", reg)

	c.ObserveRequest("success", 250*time.Millisecond)
	c.ObserveRequest("exhausted", time.Second)
	c.ObserveRequest("exhausted", 2*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("exhausted")))
}

func TestCollectorDefaultNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWith("", reg)
	c.Emit(context.Background(), sampleEvent(types.EventHop))

	families, err := reg.Gather()
	assert.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() == "swarmflow_hops_total" {
			found = true
		}
	}
	assert.True(t, found)
}
