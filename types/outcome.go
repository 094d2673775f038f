package types

// OutcomeKind tags a worker invocation result. The worker executor
// boundary is responsible for producing an explicit tag; the delegation
// core never classifies response text itself.
type OutcomeKind string

const (
	// OutcomeSuccess carries a payload for the evaluation gate.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeLimitation means the worker explicitly declined the task
	// as outside its capability. Countable, never crash-worthy.
	OutcomeLimitation OutcomeKind = "limitation"
	// OutcomeToolFailure means a transient external failure (timeout,
	// unavailable backend). Countable and retryable.
	OutcomeToolFailure OutcomeKind = "tool_failure"
)

// Outcome is the tagged result of one worker invocation.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	// Payload is set for success outcomes. The core does not interpret it.
	Payload string `json:"payload,omitempty"`
	// Reason is set for limitation and tool failure outcomes.
	Reason string `json:"reason,omitempty"`
}

// Success builds a success outcome carrying the worker's payload.
func Success(payload string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Payload: payload}
}

// Limitation builds an outcome for a worker that declined the task.
func Limitation(reason string) Outcome {
	return Outcome{Kind: OutcomeLimitation, Reason: reason}
}

// ToolFailure builds an outcome for a transient external failure.
func ToolFailure(reason string) Outcome {
	return Outcome{Kind: OutcomeToolFailure, Reason: reason}
}

// RouteProposal is the external decision provider's candidate for the
// next hop. Justification is opaque to the core; it is logged, never
// parsed.
type RouteProposal struct {
	// Candidate is the proposed child name. Empty when Finish is set.
	Candidate string `json:"candidate,omitempty"`
	// Finish signals the supervisor considers the task complete (or
	// outside its team's expertise) and hands control back up.
	Finish bool `json:"finish,omitempty"`
	// Justification explains the choice, for the event log only.
	Justification string `json:"justification,omitempty"`
}

// TaskContext is what a worker receives on invocation.
type TaskContext struct {
	RequestID string `json:"request_id"`
	Task      string `json:"task"`
	// Critique carries the evaluation gate's feedback from the previous
	// rejected attempt at this worker, empty on a first attempt.
	Critique string `json:"critique,omitempty"`
	// Attempt is 1 for the first invocation of this worker.
	Attempt int `json:"attempt"`
}

// EvaluationResult is the judge's verdict on a worker payload.
type EvaluationResult struct {
	// Score is bounded to the configured range, 1-10 by default.
	Score float64 `json:"score"`
	// Sufficient is score >= acceptance threshold.
	Sufficient bool `json:"sufficient"`
	// Critique drives the retry when the result is insufficient.
	Critique string `json:"critique,omitempty"`
}
