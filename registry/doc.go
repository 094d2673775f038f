// Package registry holds the static description of a worker tree: node
// identities, roles, parent/child relations, and capability descriptors.
//
// A Registry is an immutable snapshot built once per load and shared
// freely across concurrent requests; it is never mutated after
// construction. The SnapshotProvider replaces an in-place tenant cache
// with generation-tokened snapshots: invalidation means "stop handing
// the old snapshot to new requests", in-flight requests keep theirs.
//
// Trees can be loaded from a YAML document or from a database-backed
// Store keyed by tenant.
package registry
