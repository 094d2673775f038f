package delegation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/observability"
	"github.com/BaSui01/swarmflow/registry"
	"github.com/BaSui01/swarmflow/types"
)

// Phase is a supervisor-controller state.
type Phase int

const (
	// PhaseRouting: choosing the next hop at the current node.
	PhaseRouting Phase = iota
	// PhaseAwaitingWorker: a hop to a leaf was issued, response pending.
	PhaseAwaitingWorker
	// PhaseEvaluating: a worker payload is in the quality gate.
	PhaseEvaluating
	// PhaseEscalating: the current node is exhausted, bubbling up.
	PhaseEscalating
	// PhaseTerminalSuccess ends the request with an accepted payload.
	PhaseTerminalSuccess
	// PhaseTerminalExhausted ends the request without one.
	PhaseTerminalExhausted
)

func (p Phase) String() string {
	switch p {
	case PhaseRouting:
		return "ROUTING"
	case PhaseAwaitingWorker:
		return "AWAITING_WORKER"
	case PhaseEvaluating:
		return "EVALUATING"
	case PhaseEscalating:
		return "ESCALATING"
	case PhaseTerminalSuccess:
		return "TERMINAL_SUCCESS"
	case PhaseTerminalExhausted:
		return "TERMINAL_EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the phase ends the request.
func (p Phase) Terminal() bool {
	return p == PhaseTerminalSuccess || p == PhaseTerminalExhausted
}

// Controller is the supervisor state machine for one request. All
// mutations of the delegation state go through it (and the evaluation
// results fed into it); it is not safe for concurrent use and is never
// shared across requests.
type Controller struct {
	reg     *registry.Registry
	breaker *CircuitBreaker
	state   *State
	sink    observability.Sink
	logger  *zap.Logger

	phase Phase
	// backtracked marks a ROUTING phase reached via backtrack; candidate
	// selection is then deterministic instead of provider-driven.
	backtracked bool
	// preferred is retried first on the next backtrack routing step; set
	// when the evaluation gate rejects a worker so the critique-driven
	// retry lands on the same node.
	preferred string

	// pendingPayload is the worker payload sitting in the quality gate.
	pendingPayload string
	// accepted is the last gate-accepted payload.
	accepted string

	critiques map[string]string
	attempts  map[string]int

	cancelled bool
	notes     []string
	reason    string
}

// NewController seeds a state machine at the registry's root supervisor.
func NewController(reg *registry.Registry, breaker *CircuitBreaker, st *State, sink observability.Sink, logger *zap.Logger) *Controller {
	if sink == nil {
		sink = observability.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		reg:       reg,
		breaker:   breaker,
		state:     st,
		sink:      sink,
		logger:    logger.With(zap.String("component", "supervisor_controller"), zap.String("request_id", st.RequestID)),
		phase:     PhaseRouting,
		critiques: make(map[string]string),
		attempts:  make(map[string]int),
	}
}

// Phase returns the current state-machine phase.
func (c *Controller) Phase() Phase { return c.phase }

// State exposes the delegation state for inspection.
func (c *Controller) State() *State { return c.state }

// NeedsProposal reports whether the current ROUTING step expects an
// external route proposal. Backtrack routing selects deterministically.
func (c *Controller) NeedsProposal() bool {
	return c.phase == PhaseRouting && !c.backtracked
}

// AcceptedPayload returns the last payload accepted by the gate.
func (c *Controller) AcceptedPayload() string { return c.accepted }

// PendingPayload returns the payload awaiting evaluation.
func (c *Controller) PendingPayload() string { return c.pendingPayload }

// Cancelled reports whether the request ended via cancellation.
func (c *Controller) Cancelled() bool { return c.cancelled }

// TerminalReason returns the human-readable give-up reason, assembled
// from the failure notes gathered along the way.
func (c *Controller) TerminalReason() string { return c.reason }

// TaskContextFor builds the invocation context for the current worker,
// carrying the gate's critique from a prior rejected attempt.
func (c *Controller) TaskContextFor(task string) types.TaskContext {
	worker := c.state.Current()
	return types.TaskContext{
		RequestID: c.state.RequestID,
		Task:      task,
		Critique:  c.critiques[worker],
		Attempt:   c.attempts[worker],
	}
}

// ProposeHop validates and applies an external route proposal at the
// current node. The candidate must be a child of the current node per
// the registry; anything else is an InvalidRoute contract violation,
// fatal for the request and never counted against breaker budgets.
func (c *Controller) ProposeHop(ctx context.Context, proposal types.RouteProposal) error {
	if err := c.guard(PhaseRouting, "ProposeHop"); err != nil {
		return err
	}
	viewer := c.state.Current()

	if proposal.Finish {
		c.finish(ctx, proposal)
		return nil
	}

	node, err := c.reg.Lookup(viewer)
	if err != nil {
		return err
	}
	if !node.HasChild(proposal.Candidate) {
		return types.NewError(types.ErrInvalidRoute, fmt.Sprintf(
			"proposed candidate %q is not a child of %q", proposal.Candidate, viewer)).
			WithWorker(proposal.Candidate)
	}

	decision := c.breaker.Check(c.state, proposal.Candidate)
	if decision.Allowed {
		c.applyHop(ctx, proposal.Candidate, proposal.Justification)
		return nil
	}
	c.applyDenial(ctx, decision)
	return nil
}

// RouteBacktrack performs one deterministic routing step at a node
// reached via backtrack: the first breaker-approved child in declared
// order, preferring a gate-rejected worker for its critique retry. An
// exhausted node transitions to ESCALATING.
func (c *Controller) RouteBacktrack(ctx context.Context) error {
	if err := c.guard(PhaseRouting, "RouteBacktrack"); err != nil {
		return err
	}
	node := c.state.Current()

	if c.preferred != "" {
		pref := c.preferred
		c.preferred = ""
		if d := c.breaker.Check(c.state, pref); d.Allowed {
			c.applyHop(ctx, pref, "retry with critique")
			return nil
		}
	}

	candidate, denied, ok := nextCandidate(c.reg, c.breaker, c.state, node)
	if ok {
		c.applyHop(ctx, candidate, "backtrack")
		return nil
	}

	switch denied.Reason {
	case DenyDepthExceeded, DenyGlobalBreaker:
		c.applyDenial(ctx, denied)
	default:
		// Local trips and closed paths exhaust the node itself.
		c.phase = PhaseEscalating
	}
	return nil
}

// Escalate pops the exhausted node and resumes routing at its parent.
// The path to the exhausted node is closed and counts as one failed
// path. Exhausting the root terminates the request.
func (c *Controller) Escalate(ctx context.Context) error {
	if err := c.guard(PhaseEscalating, "Escalate"); err != nil {
		return err
	}
	key := c.state.PathKey()
	rec := c.state.MarkFailed(key)
	rec.Closed = true

	exhausted := c.state.Current()
	c.note("node %q exhausted all alternatives", exhausted)
	c.emit(ctx, types.EventEscalate, exhausted, fmt.Sprintf("subtree %q exhausted", exhausted))

	c.state.Pop()
	if c.state.Depth() == 0 {
		c.terminateExhausted(ctx, "root supervisor exhausted")
		return nil
	}
	c.phase = PhaseRouting
	c.backtracked = true
	return nil
}

// RecordWorkerResult folds a worker outcome into the state machine.
// Success routes the payload into the quality gate; limitation and tool
// failure count against the worker, record the failed path, and
// backtrack one level.
func (c *Controller) RecordWorkerResult(ctx context.Context, worker string, outcome types.Outcome) error {
	if err := c.guard(PhaseAwaitingWorker, "RecordWorkerResult"); err != nil {
		return err
	}
	if cur := c.state.Current(); worker != cur {
		return types.NewError(types.ErrInvalidTransition, fmt.Sprintf(
			"result from %q but current worker is %q", worker, cur)).WithWorker(worker)
	}

	switch outcome.Kind {
	case types.OutcomeSuccess:
		// Not a completion yet; the failure count resets only once the
		// gate accepts.
		c.pendingPayload = outcome.Payload
		c.emit(ctx, types.EventSuccess, worker, "")
		c.phase = PhaseEvaluating
		return nil

	case types.OutcomeLimitation:
		c.recordFailure(ctx, worker, types.EventLimitation, outcome.Reason)
		return nil

	case types.OutcomeToolFailure:
		c.recordFailure(ctx, worker, types.EventToolFailure, outcome.Reason)
		return nil

	default:
		return types.NewError(types.ErrInvalidTransition, fmt.Sprintf(
			"unknown outcome kind %q from worker %q", outcome.Kind, worker)).WithWorker(worker)
	}
}

// RecordEvaluation folds the quality gate's verdict into the state
// machine. Acceptance hands the payload back to the parent supervisor;
// rejection counts exactly like a limitation at the same worker, with
// the critique carried into the next attempt.
func (c *Controller) RecordEvaluation(ctx context.Context, result types.EvaluationResult) error {
	if err := c.guard(PhaseEvaluating, "RecordEvaluation"); err != nil {
		return err
	}
	worker := c.state.Current()

	if result.Sufficient {
		c.accepted = c.pendingPayload
		c.pendingPayload = ""
		c.state.ResetFailures(worker)
		delete(c.critiques, worker)
		c.state.MarkSucceeded(c.state.PathKey())
		c.state.Pop()
		c.phase = PhaseRouting
		c.backtracked = false
		return nil
	}

	c.pendingPayload = ""
	c.critiques[worker] = result.Critique
	detail := fmt.Sprintf("score %.1f below threshold", result.Score)
	if result.Critique != "" {
		detail += ": " + result.Critique
	}
	c.recordFailure(ctx, worker, types.EventLimitation, detail)
	if c.phase == PhaseRouting {
		// Route the critique retry back to the same worker first.
		c.preferred = worker
	}
	return nil
}

// RecordEvaluationFailure handles a judge error or timeout while a
// payload sits in the gate. The payload cannot be accepted unverified,
// so it is dropped and the attempt counts as a tool failure of the
// worker that produced it.
func (c *Controller) RecordEvaluationFailure(ctx context.Context, cause error) error {
	if err := c.guard(PhaseEvaluating, "RecordEvaluationFailure"); err != nil {
		return err
	}
	worker := c.state.Current()
	c.pendingPayload = ""
	c.recordFailure(ctx, worker, types.EventToolFailure, fmt.Sprintf("evaluation failed: %v", cause))
	return nil
}

// RecordRouteFailure handles a decision-provider error or timeout at
// the current supervisor. It counts as a tool failure of that node and
// routing degrades to the deterministic backtrack policy.
func (c *Controller) RecordRouteFailure(ctx context.Context, cause error) error {
	if err := c.guard(PhaseRouting, "RecordRouteFailure"); err != nil {
		return err
	}
	node := c.state.Current()
	c.state.CountFailure(node)
	c.state.MarkFailed(c.state.PathKey())
	c.note("supervisor %q route decision failed: %v", node, cause)
	c.emit(ctx, types.EventToolFailure, node, fmt.Sprintf("route decision failed: %v", cause))
	c.backtracked = true
	return nil
}

// Cancel terminates the request on caller cancellation. The state
// machine lands in TERMINAL_EXHAUSTED with a distinct cancelled marker;
// no partially-updated state leaks out.
func (c *Controller) Cancel(ctx context.Context, cause error) {
	if c.phase.Terminal() {
		return
	}
	c.cancelled = true
	c.reason = fmt.Sprintf("cancelled: %v", cause)
	c.phase = PhaseTerminalExhausted
	c.emit(ctx, types.EventTerminalExhausted, "", c.reason)
}

// applyHop commits an approved hop.
func (c *Controller) applyHop(ctx context.Context, candidate, justification string) {
	c.state.Push(candidate)
	c.emit(ctx, types.EventHop, candidate, justification)

	child, err := c.reg.Lookup(candidate)
	if err == nil && child.IsLeaf() {
		c.attempts[candidate]++
		c.phase = PhaseAwaitingWorker
		return
	}
	// Hopped into a sub-supervisor: fresh routing decision there.
	c.phase = PhaseRouting
	c.backtracked = false
}

// applyDenial translates a breaker verdict into the next transition.
func (c *Controller) applyDenial(ctx context.Context, d Decision) {
	switch d.Reason {
	case DenyDepthExceeded:
		c.note("%s", d.Detail)
		c.emit(ctx, types.EventDepthExceeded, d.Candidate, d.Detail)
		c.terminateExhausted(ctx, "delegation depth limit reached")

	case DenyGlobalBreaker:
		c.note("%s", d.Detail)
		c.emit(ctx, types.EventGlobalTrip, d.Candidate, d.Detail)
		c.terminateExhausted(ctx, "global failure budget spent")

	case DenyLocalBreaker:
		// Candidate excluded, siblings still eligible.
		c.state.ClosePath(c.state.ChildKey(d.Candidate))
		c.note("%s", d.Detail)
		c.emit(ctx, types.EventLocalTrip, d.Candidate, d.Detail)
		c.backtracked = true

	case DenyPathAttempted:
		c.backtracked = true
	}
}

// finish handles a FINISH proposal from the current supervisor.
func (c *Controller) finish(ctx context.Context, proposal types.RouteProposal) {
	cur := c.state.Current()

	if c.accepted != "" {
		if c.state.Depth() == 1 {
			c.phase = PhaseTerminalSuccess
			c.emit(ctx, types.EventTerminalSuccess, cur, proposal.Justification)
			return
		}
		c.emit(ctx, types.EventEscalate, cur, "finish: returning accepted result to parent")
		c.state.Pop()
		c.phase = PhaseRouting
		c.backtracked = false
		return
	}

	// Nothing accomplished: the supervisor declined the task. Counts as
	// its limitation so a parent cannot re-descend forever.
	detail := proposal.Justification
	if detail == "" {
		detail = "finish proposed with no accepted result"
	}
	if c.state.Depth() == 1 {
		c.state.CountFailure(cur)
		c.state.MarkFailed(c.state.PathKey())
		c.emit(ctx, types.EventLimitation, cur, detail)
		c.note("root supervisor declined: %s", detail)
		c.terminateExhausted(ctx, "root supervisor declined the task")
		return
	}
	c.recordFailure(ctx, cur, types.EventLimitation, detail)
}

// recordFailure applies the shared failure bookkeeping for the current
// path tail: count, mark the path failed, trip the local breaker at the
// budget, pop, and resume routing at the parent.
func (c *Controller) recordFailure(ctx context.Context, worker string, kind types.EventKind, detail string) {
	count := c.state.CountFailure(worker)
	rec := c.state.MarkFailed(c.state.PathKey())

	c.note("worker %q %s: %s", worker, kind, detail)
	c.emit(ctx, kind, worker, detail)

	if count >= c.breaker.Limits().MaxFailuresPerWorker {
		rec.Closed = true
		trip := fmt.Sprintf("worker %q tripped local breaker after %d failures", worker, count)
		c.note("%s", trip)
		c.emit(ctx, types.EventLocalTrip, worker, trip)
	}

	c.state.Pop()
	if c.state.Depth() == 0 {
		c.terminateExhausted(ctx, fmt.Sprintf("worker %q failed with no fallback", worker))
		return
	}
	c.phase = PhaseRouting
	c.backtracked = true
}

// terminateExhausted lands the request in TERMINAL_EXHAUSTED with a
// reason assembled from the collected failure notes.
func (c *Controller) terminateExhausted(ctx context.Context, cause string) {
	parts := append([]string{cause}, c.lastNotes(4)...)
	c.reason = strings.Join(parts, "; ")
	c.phase = PhaseTerminalExhausted
	c.emit(ctx, types.EventTerminalExhausted, "", c.reason)
}

// lastNotes returns up to n of the most recent failure notes.
func (c *Controller) lastNotes(n int) []string {
	if len(c.notes) <= n {
		return c.notes
	}
	return c.notes[len(c.notes)-n:]
}

func (c *Controller) note(format string, args ...any) {
	c.notes = append(c.notes, fmt.Sprintf(format, args...))
}

func (c *Controller) guard(want Phase, op string) error {
	if c.phase != want {
		return types.NewError(types.ErrInvalidTransition, fmt.Sprintf(
			"%s called in phase %s, want %s", op, c.phase, want))
	}
	return nil
}

func (c *Controller) emit(ctx context.Context, kind types.EventKind, node, detail string) {
	c.sink.Emit(ctx, types.Event{
		Timestamp:     time.Now().UTC(),
		RequestID:     c.state.RequestID,
		Kind:          kind,
		Path:          c.state.SnapshotPath(),
		Node:          node,
		Detail:        detail,
		FailureCounts: c.state.SnapshotFailureCounts(),
	})
}
