// Package types contains the shared data model of the SwarmFlow framework.
//
// It is the lowest-level package with no internal dependencies: worker tree
// nodes and capability descriptors, the tagged worker outcome, route
// proposals, evaluation results, structured errors, and the delegation
// event record. Higher-level packages (registry, delegation, evaluation,
// observability, persistence) all build on these types, so placing them
// here avoids circular imports.
package types
