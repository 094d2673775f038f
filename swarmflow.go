// Package swarmflow provides a top-level convenience entry point for
// running delegation requests with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/swarmflow"
//
//	orch, err := swarmflow.New("swarm.yaml", provider, executor, judge)
//	result, err := orch.Run(ctx, "book a table for four")
//
// This is a thin wrapper over [registry.LoadFile], [evaluation.NewGate]
// and [delegation.NewOrchestrator]; use those directly when you need a
// database-backed tree, per-tenant snapshots, or custom sinks beyond
// what the options here cover.
package swarmflow

import (
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/delegation"
	"github.com/BaSui01/swarmflow/evaluation"
	"github.com/BaSui01/swarmflow/observability"
	"github.com/BaSui01/swarmflow/registry"
)

// Option configures the orchestrator created by [New].
type Option func(*options)

type options struct {
	logger     *zap.Logger
	config     delegation.Config
	gateConfig evaluation.GateConfig
	sink       observability.Sink
	metrics    *observability.Collector
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithConfig overrides the delegation limits and budgets.
func WithConfig(config delegation.Config) Option {
	return func(o *options) { o.config = config }
}

// WithGateConfig overrides the quality gate's score range and threshold.
func WithGateConfig(config evaluation.GateConfig) Option {
	return func(o *options) { o.gateConfig = config }
}

// WithSink adds an event sink for the request's audit trail.
func WithSink(sink observability.Sink) Option {
	return func(o *options) { o.sink = sink }
}

// WithMetrics attaches a Prometheus collector.
func WithMetrics(collector *observability.Collector) Option {
	return func(o *options) { o.metrics = collector }
}

// New loads a worker tree from a YAML file and wires an orchestrator
// over it. The provider decides routing, the executor runs leaf
// workers, and the judge scores their output.
func New(treePath string, provider delegation.DecisionProvider, executor delegation.WorkerExecutor, judge evaluation.Judge, opts ...Option) (*delegation.Orchestrator, error) {
	o := options{
		logger:     zap.NewNop(),
		config:     delegation.DefaultConfig(),
		gateConfig: evaluation.DefaultGateConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	reg, err := registry.LoadFile(treePath, 1)
	if err != nil {
		return nil, err
	}

	gate := evaluation.NewGate(judge, o.gateConfig, o.logger)

	delOpts := []delegation.Option{delegation.WithLogger(o.logger)}
	if o.sink != nil {
		delOpts = append(delOpts, delegation.WithSink(o.sink))
	}
	if o.metrics != nil {
		delOpts = append(delOpts, delegation.WithMetrics(o.metrics))
	}
	return delegation.NewOrchestrator(reg, provider, executor, gate, o.config, delOpts...), nil
}
