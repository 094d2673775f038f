package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BaSui01/swarmflow/types"
)

// Collector exports delegation metrics to Prometheus. It implements
// Sink, so it can be wired into the control loop alongside logging and
// persistence sinks.
type Collector struct {
	hopsTotal         *prometheus.CounterVec
	failuresTotal     *prometheus.CounterVec
	breakerTripsTotal *prometheus.CounterVec
	escalationsTotal  prometheus.Counter
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	delegationDepth   prometheus.Histogram
}

// NewCollector registers the delegation metrics under the given
// namespace using the default registerer.
func NewCollector(namespace string) *Collector {
	return NewCollectorWith(namespace, prometheus.DefaultRegisterer)
}

// NewCollectorWith registers the metrics on a specific registerer.
func NewCollectorWith(namespace string, reg prometheus.Registerer) *Collector {
	if namespace == "" {
		namespace = "swarmflow"
	}
	factory := promauto.With(reg)
	c := &Collector{}

	c.hopsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hops_total",
			Help:      "Total number of delegation hops",
		},
		[]string{"node"},
	)

	c.failuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_failures_total",
			Help:      "Total worker failures by kind",
		},
		[]string{"node", "kind"},
	)

	c.breakerTripsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_trips_total",
			Help:      "Circuit breaker denials by scope",
		},
		[]string{"scope"},
	)

	c.escalationsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Total escalations from an exhausted node to its parent",
		},
	)

	c.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Completed requests by terminal outcome",
		},
		[]string{"outcome"},
	)

	c.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end request duration",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	c.delegationDepth = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delegation_depth",
			Help:      "Delegation path depth at each hop",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	return c
}

// Emit implements Sink.
func (c *Collector) Emit(_ context.Context, ev types.Event) {
	switch ev.Kind {
	case types.EventHop:
		c.hopsTotal.WithLabelValues(ev.Node).Inc()
		c.delegationDepth.Observe(float64(len(ev.Path)))
	case types.EventLimitation:
		c.failuresTotal.WithLabelValues(ev.Node, "limitation").Inc()
	case types.EventToolFailure:
		c.failuresTotal.WithLabelValues(ev.Node, "tool_failure").Inc()
	case types.EventLocalTrip:
		c.breakerTripsTotal.WithLabelValues("local").Inc()
	case types.EventGlobalTrip:
		c.breakerTripsTotal.WithLabelValues("global").Inc()
	case types.EventDepthExceeded:
		c.breakerTripsTotal.WithLabelValues("depth").Inc()
	case types.EventEscalate:
		c.escalationsTotal.Inc()
	}
}

// ObserveRequest records a finished request.
func (c *Collector) ObserveRequest(outcome string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(outcome).Inc()
	c.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
