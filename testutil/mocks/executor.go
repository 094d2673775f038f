package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/swarmflow/types"
)

// ExecutorCall is one recorded worker invocation.
type ExecutorCall struct {
	Worker string
	Task   types.TaskContext
}

// ScriptedExecutor replays per-worker outcome queues and records every
// invocation. Workers without a script, or with an exhausted one,
// return the fallback outcome.
type ScriptedExecutor struct {
	mu       sync.Mutex
	outcomes map[string][]types.Outcome
	fallback types.Outcome
	err      error
	calls    []ExecutorCall
}

// NewScriptedExecutor returns an executor whose unscripted workers
// report a tool failure.
func NewScriptedExecutor() *ScriptedExecutor {
	return &ScriptedExecutor{
		outcomes: make(map[string][]types.Outcome),
		fallback: types.ToolFailure("unscripted worker"),
	}
}

// WithOutcomes queues outcomes for the named worker, consumed in order.
func (e *ScriptedExecutor) WithOutcomes(worker string, outcomes ...types.Outcome) *ScriptedExecutor {
	e.outcomes[worker] = append(e.outcomes[worker], outcomes...)
	return e
}

// WithFallback sets the outcome for unscripted invocations.
func (e *ScriptedExecutor) WithFallback(outcome types.Outcome) *ScriptedExecutor {
	e.fallback = outcome
	return e
}

// WithError makes every Execute call fail with err.
func (e *ScriptedExecutor) WithError(err error) *ScriptedExecutor {
	e.err = err
	return e
}

// Execute implements delegation.WorkerExecutor.
func (e *ScriptedExecutor) Execute(_ context.Context, worker string, task types.TaskContext) (types.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, ExecutorCall{Worker: worker, Task: task})

	if e.err != nil {
		return types.Outcome{}, e.err
	}
	queue := e.outcomes[worker]
	if len(queue) == 0 {
		return e.fallback, nil
	}
	outcome := queue[0]
	e.outcomes[worker] = queue[1:]
	return outcome, nil
}

// Calls returns the recorded invocations.
func (e *ScriptedExecutor) Calls() []ExecutorCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ExecutorCall, len(e.calls))
	copy(out, e.calls)
	return out
}

// CallsFor counts invocations of one worker.
func (e *ScriptedExecutor) CallsFor(worker string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c.Worker == worker {
			n++
		}
	}
	return n
}
