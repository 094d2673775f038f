package registry

import (
	"fmt"
	"strings"

	"github.com/BaSui01/swarmflow/types"
)

// Registry is an immutable snapshot of one tenant's worker tree.
// Safe for concurrent use by any number of requests.
type Registry struct {
	tenant     string
	generation uint64
	root       string
	nodes      map[string]*types.WorkerNode
	order      []string
}

// New validates the given nodes and builds a Registry snapshot.
// Validation enforces: unique names without path separators, exactly one
// root supervisor, consistent parent/child references, no cycles, and
// leaves without children.
func New(tenant string, generation uint64, nodes []types.WorkerNode) (*Registry, error) {
	if len(nodes) == 0 {
		return nil, types.NewError(types.ErrInvalidTree, "empty worker tree")
	}

	r := &Registry{
		tenant:     tenant,
		generation: generation,
		nodes:      make(map[string]*types.WorkerNode, len(nodes)),
		order:      make([]string, 0, len(nodes)),
	}

	for i := range nodes {
		n := nodes[i]
		if n.Name == "" {
			return nil, types.NewError(types.ErrInvalidTree, "worker with empty name")
		}
		if strings.Contains(n.Name, "/") {
			return nil, types.NewError(types.ErrInvalidTree,
				fmt.Sprintf("worker name %q must not contain '/'", n.Name))
		}
		if !n.Role.Valid() {
			return nil, types.NewError(types.ErrInvalidTree,
				fmt.Sprintf("worker %q has unknown role %q", n.Name, n.Role))
		}
		if _, dup := r.nodes[n.Name]; dup {
			return nil, types.NewError(types.ErrInvalidTree,
				fmt.Sprintf("duplicate worker name %q", n.Name))
		}
		r.nodes[n.Name] = &n
		r.order = append(r.order, n.Name)
	}

	if err := r.link(); err != nil {
		return nil, err
	}
	if err := r.checkAcyclic(); err != nil {
		return nil, err
	}
	return r, nil
}

// link cross-checks parent and children references and finds the root.
func (r *Registry) link() error {
	for _, name := range r.order {
		n := r.nodes[name]

		if n.IsLeaf() && len(n.Children) > 0 {
			return types.NewError(types.ErrInvalidTree,
				fmt.Sprintf("leaf worker %q declares children", n.Name))
		}
		for _, child := range n.Children {
			c, ok := r.nodes[child]
			if !ok {
				return types.NewError(types.ErrInvalidTree,
					fmt.Sprintf("worker %q lists unknown child %q", n.Name, child))
			}
			if c.Parent != "" && c.Parent != n.Name {
				return types.NewError(types.ErrInvalidTree,
					fmt.Sprintf("worker %q claimed by both %q and %q", child, c.Parent, n.Name))
			}
			c.Parent = n.Name
		}
	}

	for _, name := range r.order {
		n := r.nodes[name]
		if n.Parent != "" {
			if _, ok := r.nodes[n.Parent]; !ok {
				return types.NewError(types.ErrInvalidTree,
					fmt.Sprintf("worker %q references unknown parent %q", n.Name, n.Parent))
			}
			continue
		}
		if n.Role != types.RoleSupervisor {
			return types.NewError(types.ErrNoRoot,
				fmt.Sprintf("parentless worker %q is not a supervisor", n.Name))
		}
		if r.root != "" {
			return types.NewError(types.ErrInvalidTree,
				fmt.Sprintf("multiple roots: %q and %q", r.root, n.Name))
		}
		r.root = n.Name
	}

	if r.root == "" {
		return types.NewError(types.ErrNoRoot, "no root supervisor found")
	}
	return nil
}

// checkAcyclic verifies every node is reachable from the root exactly once.
func (r *Registry) checkAcyclic() error {
	seen := make(map[string]bool, len(r.nodes))
	var walk func(name string) error
	walk = func(name string) error {
		if seen[name] {
			return types.NewError(types.ErrInvalidTree,
				fmt.Sprintf("cycle or shared node at %q", name))
		}
		seen[name] = true
		for _, child := range r.nodes[name].Children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(r.root); err != nil {
		return err
	}
	if len(seen) != len(r.nodes) {
		for _, name := range r.order {
			if !seen[name] {
				return types.NewError(types.ErrInvalidTree,
					fmt.Sprintf("worker %q unreachable from root %q", name, r.root))
			}
		}
	}
	return nil
}

// Tenant returns the tenant this snapshot was built for.
func (r *Registry) Tenant() string { return r.tenant }

// Generation returns the snapshot's build generation token.
func (r *Registry) Generation() uint64 { return r.generation }

// Root returns the root supervisor node.
func (r *Registry) Root() *types.WorkerNode { return r.nodes[r.root] }

// Len returns the number of nodes in the tree.
func (r *Registry) Len() int { return len(r.nodes) }

// Lookup resolves a node by name.
func (r *Registry) Lookup(name string) (*types.WorkerNode, error) {
	n, ok := r.nodes[name]
	if !ok {
		return nil, types.NewError(types.ErrWorkerNotFound,
			fmt.Sprintf("worker %q not in registry", name)).WithWorker(name)
	}
	return n, nil
}

// ChildrenOf returns the children of a node in declared order.
func (r *Registry) ChildrenOf(name string) ([]*types.WorkerNode, error) {
	n, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	children := make([]*types.WorkerNode, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, r.nodes[c])
	}
	return children, nil
}
