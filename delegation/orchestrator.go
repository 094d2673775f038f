package delegation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/observability"
	"github.com/BaSui01/swarmflow/registry"
	"github.com/BaSui01/swarmflow/types"
)

// DecisionProvider chooses the next hop for a supervisor. The returned
// proposal must name a direct child of the viewer or set Finish.
type DecisionProvider interface {
	Route(ctx context.Context, view RouteView) (types.RouteProposal, error)
}

// WorkerExecutor runs a leaf worker's attempt at the task.
type WorkerExecutor interface {
	Execute(ctx context.Context, worker string, task types.TaskContext) (types.Outcome, error)
}

// Evaluator is the quality gate's verdict on a worker payload.
// *evaluation.Gate satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, task, output string) (types.EvaluationResult, error)
}

// CandidateView is what a supervisor sees of one direct child: the
// child's full capability plus abstract summaries of the child's own
// sub-units. Eligible reflects the breaker's current verdict.
type CandidateView struct {
	Name       string                 `json:"name"`
	Capability types.CapabilityView   `json:"capability"`
	SubUnits   []types.CapabilityView `json:"sub_units,omitempty"`
	Eligible   bool                   `json:"eligible"`
}

// RouteView is the routing input handed to the decision provider.
type RouteView struct {
	RequestID       string          `json:"request_id"`
	Viewer          string          `json:"viewer"`
	Task            string          `json:"task"`
	AcceptedPayload string          `json:"accepted_payload,omitempty"`
	Path            []string        `json:"path"`
	FailureCounts   map[string]int  `json:"failure_counts,omitempty"`
	Candidates      []CandidateView `json:"candidates"`
}

// Config bounds one orchestrated request.
type Config struct {
	Limits Limits `yaml:"limits" json:"limits"`
	// PerCallTimeout bounds each provider, worker, and judge call.
	// Zero disables the per-call bound.
	PerCallTimeout time.Duration `yaml:"per_call_timeout" json:"per_call_timeout"`
	// MaxSteps caps state-machine transitions per request.
	MaxSteps int `yaml:"max_steps" json:"max_steps"`
}

// DefaultConfig returns the stock orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		Limits:         DefaultLimits(),
		PerCallTimeout: 2 * time.Minute,
		MaxSteps:       256,
	}
}

func (c Config) normalize() Config {
	c.Limits = c.Limits.normalize()
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultConfig().MaxSteps
	}
	return c
}

// Result is the terminal outcome of one request.
type Result struct {
	RequestID     string         `json:"request_id"`
	Tenant        string         `json:"tenant"`
	Generation    uint64         `json:"generation"`
	Phase         Phase          `json:"-"`
	Outcome       string         `json:"outcome"`
	Payload       string         `json:"payload,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Cancelled     bool           `json:"cancelled,omitempty"`
	Steps         int            `json:"steps"`
	FailureCounts map[string]int `json:"failure_counts,omitempty"`
	Duration      time.Duration  `json:"duration"`
}

// Succeeded reports whether the request ended with an accepted payload.
func (r Result) Succeeded() bool { return r.Phase == PhaseTerminalSuccess }

// Orchestrator drives requests through a worker tree. Requests are
// processed strictly one at a time per Run call; the orchestrator
// itself holds no per-request state and may be reused.
type Orchestrator struct {
	reg       *registry.Registry
	provider  DecisionProvider
	executor  WorkerExecutor
	evaluator Evaluator
	config    Config
	sink      observability.Sink
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewOrchestrator wires the delegation loop over a registry snapshot.
func NewOrchestrator(reg *registry.Registry, provider DecisionProvider, executor WorkerExecutor, evaluator Evaluator, config Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		reg:       reg,
		provider:  provider,
		executor:  executor,
		evaluator: evaluator,
		config:    config.normalize(),
		sink:      observability.NopSink{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With(zap.String("component", "orchestrator"), zap.String("tenant", reg.Tenant()))
	return o
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSink routes delegation events to the given sink.
func WithSink(sink observability.Sink) Option {
	return func(o *Orchestrator) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithMetrics records per-request outcome metrics on the collector. The
// collector also receives events when included in the sink.
func WithMetrics(collector *observability.Collector) Option {
	return func(o *Orchestrator) { o.metrics = collector }
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Run processes one task to a terminal phase. The returned error is
// non-nil only for contract violations (an invalid route from the
// provider, a blown step budget); provider, worker, and judge failures
// are absorbed into the state machine as tool failures.
func (o *Orchestrator) Run(ctx context.Context, task string) (Result, error) {
	requestID := uuid.NewString()
	st := NewState(requestID, o.reg.Root().Name)
	breaker := NewCircuitBreaker(o.config.Limits)
	ctrl := NewController(o.reg, breaker, st, o.sink, o.logger)

	logger := o.logger.With(zap.String("request_id", requestID))
	logger.Info("request started", zap.String("root", o.reg.Root().Name))

	start := time.Now()
	steps := 0
	var runErr error

	for !ctrl.Phase().Terminal() {
		if err := ctx.Err(); err != nil {
			ctrl.Cancel(ctx, err)
			break
		}
		steps++
		if steps > o.config.MaxSteps {
			runErr = types.NewError(types.ErrRequestExhausted, fmt.Sprintf(
				"step budget %d exceeded", o.config.MaxSteps))
			break
		}

		var stepErr error
		switch ctrl.Phase() {
		case PhaseRouting:
			stepErr = o.stepRoute(ctx, ctrl, task)
		case PhaseAwaitingWorker:
			stepErr = o.stepWorker(ctx, ctrl, task)
		case PhaseEvaluating:
			stepErr = o.stepEvaluate(ctx, ctrl, task)
		case PhaseEscalating:
			stepErr = ctrl.Escalate(ctx)
		default:
			stepErr = types.NewError(types.ErrInvalidTransition, fmt.Sprintf(
				"orchestrator reached phase %s", ctrl.Phase()))
		}
		if stepErr != nil {
			runErr = stepErr
			break
		}
	}

	result := o.buildResult(ctrl, requestID, steps, time.Since(start), runErr)
	if o.metrics != nil {
		o.metrics.ObserveRequest(result.Outcome, result.Duration)
	}
	logger.Info("request finished",
		zap.String("outcome", result.Outcome),
		zap.Int("steps", result.Steps),
		zap.Duration("duration", result.Duration),
	)
	return result, runErr
}

func (o *Orchestrator) stepRoute(ctx context.Context, ctrl *Controller, task string) error {
	if !ctrl.NeedsProposal() {
		return ctrl.RouteBacktrack(ctx)
	}

	view, err := o.routeView(ctrl, task)
	if err != nil {
		return err
	}

	callCtx, cancel := o.callContext(ctx)
	proposal, err := o.provider.Route(callCtx, view)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil // outer loop handles cancellation
		}
		return ctrl.RecordRouteFailure(ctx, err)
	}
	return ctrl.ProposeHop(ctx, proposal)
}

func (o *Orchestrator) stepWorker(ctx context.Context, ctrl *Controller, task string) error {
	worker := ctrl.State().Current()
	taskCtx := ctrl.TaskContextFor(task)

	callCtx, cancel := o.callContext(ctx)
	outcome, err := o.executor.Execute(callCtx, worker, taskCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = types.ToolFailure(fmt.Sprintf("call timed out after %s", o.config.PerCallTimeout))
		} else {
			outcome = types.ToolFailure(err.Error())
		}
	}
	return ctrl.RecordWorkerResult(ctx, worker, outcome)
}

func (o *Orchestrator) stepEvaluate(ctx context.Context, ctrl *Controller, task string) error {
	payload := ctrl.PendingPayload()

	callCtx, cancel := o.callContext(ctx)
	verdict, err := o.evaluator.Evaluate(callCtx, task, payload)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return ctrl.RecordEvaluationFailure(ctx, err)
	}
	return ctrl.RecordEvaluation(ctx, verdict)
}

// routeView assembles what the current supervisor is allowed to see:
// full capabilities of direct children, abstract summaries one level
// below that, nothing deeper.
func (o *Orchestrator) routeView(ctrl *Controller, task string) (RouteView, error) {
	viewer := ctrl.State().Current()
	children, err := o.reg.ChildrenOf(viewer)
	if err != nil {
		return RouteView{}, err
	}

	candidates := make([]CandidateView, 0, len(children))
	for _, child := range children {
		full, err := o.reg.VisibleCapabilities(viewer, child.Name)
		if err != nil {
			return RouteView{}, err
		}
		cv := CandidateView{
			Name:       child.Name,
			Capability: full,
			Eligible:   ctrl.breaker.Check(ctrl.State(), child.Name).Allowed,
		}
		for _, sub := range child.Children {
			abstract, err := o.reg.VisibleCapabilities(viewer, sub)
			if err != nil {
				return RouteView{}, err
			}
			cv.SubUnits = append(cv.SubUnits, abstract)
		}
		candidates = append(candidates, cv)
	}

	return RouteView{
		RequestID:       ctrl.State().RequestID,
		Viewer:          viewer,
		Task:            task,
		AcceptedPayload: ctrl.AcceptedPayload(),
		Path:            ctrl.State().SnapshotPath(),
		FailureCounts:   ctrl.State().SnapshotFailureCounts(),
		Candidates:      candidates,
	}, nil
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.config.PerCallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.config.PerCallTimeout)
}

func (o *Orchestrator) buildResult(ctrl *Controller, requestID string, steps int, duration time.Duration, runErr error) Result {
	outcome := "exhausted"
	reason := ctrl.TerminalReason()
	switch {
	case runErr != nil:
		outcome = "error"
		reason = runErr.Error()
	case ctrl.Cancelled():
		outcome = "cancelled"
	case ctrl.Phase() == PhaseTerminalSuccess:
		outcome = "success"
	}
	return Result{
		RequestID:     requestID,
		Tenant:        o.reg.Tenant(),
		Generation:    o.reg.Generation(),
		Phase:         ctrl.Phase(),
		Outcome:       outcome,
		Payload:       ctrl.AcceptedPayload(),
		Reason:        reason,
		Cancelled:     ctrl.Cancelled(),
		Steps:         steps,
		FailureCounts: ctrl.State().SnapshotFailureCounts(),
		Duration:      duration,
	}
}
