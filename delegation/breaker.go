package delegation

import "fmt"

// Limits are the circuit-breaker budgets. All three are configuration,
// independently tunable, never hard-coded by the core.
type Limits struct {
	// MaxFailuresPerWorker is the consecutive-failure budget of one
	// worker before its local breaker trips.
	MaxFailuresPerWorker int `yaml:"max_failures_per_worker" json:"max_failures_per_worker"`

	// MaxDepth bounds the delegation path length, root included.
	MaxDepth int `yaml:"max_depth" json:"max_depth"`

	// MaxGlobalFailures bounds the distinct failed paths across the
	// whole request before the global breaker trips.
	MaxGlobalFailures int `yaml:"max_global_failures" json:"max_global_failures"`
}

// DefaultLimits returns the stock budgets.
func DefaultLimits() Limits {
	return Limits{
		MaxFailuresPerWorker: 2,
		MaxDepth:             4,
		MaxGlobalFailures:    5,
	}
}

// normalize fills non-positive budgets with defaults.
func (l Limits) normalize() Limits {
	d := DefaultLimits()
	if l.MaxFailuresPerWorker <= 0 {
		l.MaxFailuresPerWorker = d.MaxFailuresPerWorker
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = d.MaxDepth
	}
	if l.MaxGlobalFailures <= 0 {
		l.MaxGlobalFailures = d.MaxGlobalFailures
	}
	return l
}

// DenyReason says why the breaker refused a hop.
type DenyReason string

const (
	// DenyNone means the hop was approved.
	DenyNone DenyReason = ""
	// DenyDepthExceeded: the hop would push the path past MaxDepth.
	DenyDepthExceeded DenyReason = "DepthExceeded"
	// DenyGlobalBreaker: the request's distinct-failure budget is spent.
	DenyGlobalBreaker DenyReason = "GlobalBreakerTripped"
	// DenyLocalBreaker: the candidate's own failure budget is spent.
	// Only the candidate is excluded; siblings stay eligible.
	DenyLocalBreaker DenyReason = "LocalBreakerTripped"
	// DenyPathAttempted: the exact extended path was already attempted
	// and closed. Forces exploration of an unseen branch.
	DenyPathAttempted DenyReason = "PathAlreadyAttempted"
)

// Decision is the breaker's verdict on one proposed hop.
type Decision struct {
	Allowed   bool
	Reason    DenyReason
	Candidate string
	Detail    string
}

// CircuitBreaker is a pure decision function over the delegation state.
// It produces a verdict and a reason; it never mutates anything.
type CircuitBreaker struct {
	limits Limits
}

// NewCircuitBreaker builds a breaker with normalized limits.
func NewCircuitBreaker(limits Limits) *CircuitBreaker {
	return &CircuitBreaker{limits: limits.normalize()}
}

// Limits returns the normalized budgets in force.
func (b *CircuitBreaker) Limits() Limits { return b.limits }

// Check decides whether the hop from the current path tail to candidate
// may proceed. Checks run in fixed order: depth, global budget, local
// budget, path repetition.
func (b *CircuitBreaker) Check(st *State, candidate string) Decision {
	if st.Depth()+1 > b.limits.MaxDepth {
		return Decision{Reason: DenyDepthExceeded, Candidate: candidate, Detail: fmt.Sprintf(
			"hop to %q would reach depth %d, max is %d", candidate, st.Depth()+1, b.limits.MaxDepth)}
	}

	if st.GlobalFailures >= b.limits.MaxGlobalFailures {
		return Decision{Reason: DenyGlobalBreaker, Candidate: candidate, Detail: fmt.Sprintf(
			"%d distinct paths failed, budget is %d", st.GlobalFailures, b.limits.MaxGlobalFailures)}
	}

	if st.FailureCounts[candidate] >= b.limits.MaxFailuresPerWorker {
		return Decision{Reason: DenyLocalBreaker, Candidate: candidate, Detail: fmt.Sprintf(
			"worker %q failed %d times, budget is %d",
			candidate, st.FailureCounts[candidate], b.limits.MaxFailuresPerWorker)}
	}

	if rec := st.Record(st.ChildKey(candidate)); rec != nil && rec.Closed {
		return Decision{Reason: DenyPathAttempted, Candidate: candidate, Detail: fmt.Sprintf(
			"path %q already attempted and closed", st.ChildKey(candidate))}
	}

	return Decision{Allowed: true, Candidate: candidate}
}
