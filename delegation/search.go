package delegation

import (
	"github.com/BaSui01/swarmflow/registry"
)

// nextCandidate implements the backtracking search policy: at a routing
// point reached via backtrack, pick the first child of node the breaker
// still approves, in the registry's declared child order. A child whose
// local breaker tripped or whose path is closed is skipped; an earlier
// failed-but-open child is retried before moving to untouched siblings.
//
// Returns the chosen child and true, or false when the node is
// exhausted and control must escalate.
func nextCandidate(reg *registry.Registry, breaker *CircuitBreaker, st *State, node string) (string, Decision, bool) {
	n, err := reg.Lookup(node)
	if err != nil {
		return "", Decision{}, false
	}
	var denied Decision
	for _, child := range n.Children {
		d := breaker.Check(st, child)
		if d.Allowed {
			return child, d, true
		}
		denied = d
		// Depth and global denials apply to every sibling equally;
		// trying further children cannot change the verdict.
		if d.Reason == DenyDepthExceeded || d.Reason == DenyGlobalBreaker {
			return "", d, false
		}
	}
	return "", denied, false
}
