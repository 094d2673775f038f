// Package delegation implements the delegation-and-failure-containment
// control loop: the state machine that tracks where a request is in the
// worker tree, decides the next hop, counts failures, enforces
// circuit-breaker limits, backtracks to sibling alternatives before
// escalating to a parent, and gates worker output through a quality
// check with bounded retry.
//
// One request is processed strictly sequentially; route decisions and
// failure accounting must be totally ordered for the breaker invariants
// to stay well-defined. Independent requests run fully concurrently,
// each with its own State, sharing only the immutable registry.
//
// Every request terminates in exactly one of: success, graceful
// exhaustion (a breaker trip), or depth-limit termination. Nothing
// unwinds past the Orchestrator as a panic or unhandled error.
package delegation
