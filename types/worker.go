package types

// NodeRole distinguishes leaf workers from supervisors in the worker tree.
type NodeRole string

const (
	// RoleLeaf is a worker that performs domain work and reports an outcome.
	RoleLeaf NodeRole = "leaf"
	// RoleSupervisor is an internal node that routes to its children.
	RoleSupervisor NodeRole = "supervisor"
)

// Valid reports whether the role is one of the known values.
func (r NodeRole) Valid() bool {
	return r == RoleLeaf || r == RoleSupervisor
}

// OperationSpec describes one named operation a worker offers, with its
// argument names and a one-line description. Operation specs are only
// visible to the worker's direct supervisor.
type OperationSpec struct {
	Name        string   `json:"name" yaml:"name"`
	Args        []string `json:"args,omitempty" yaml:"args,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// WorkerNode is one node of the worker tree: identity, role, parent and
// ordered children by name, and the node's capability descriptor.
//
// Nodes are created at registry load time, owned by the registry, and
// immutable for the lifetime of a request.
type WorkerNode struct {
	// Name uniquely identifies the node within one registry.
	Name string `json:"name" yaml:"name"`

	// Role is leaf or supervisor.
	Role NodeRole `json:"role" yaml:"role"`

	// Parent is the name of the supervising node, empty for the root.
	// It is a name reference only; the registry owns the nodes.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`

	// Children lists child node names in declared order. The order is
	// load-bearing: backtracking tries siblings in this order.
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`

	// Summary is the abstract one-line capability description shown to
	// supervisors more than one level up.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Operations is the detailed capability set shown to the direct
	// supervisor.
	Operations []OperationSpec `json:"operations,omitempty" yaml:"operations,omitempty"`
}

// IsLeaf reports whether the node is a leaf worker.
func (n *WorkerNode) IsLeaf() bool { return n.Role == RoleLeaf }

// IsRoot reports whether the node has no parent.
func (n *WorkerNode) IsRoot() bool { return n.Parent == "" }

// HasChild reports whether name is a direct child of the node.
func (n *WorkerNode) HasChild(name string) bool {
	for _, c := range n.Children {
		if c == name {
			return true
		}
	}
	return false
}

// CapabilityView is what a viewer is allowed to see of a target node.
// Direct children expose the full operation set; deeper descendants only
// expose the abstract summary. The asymmetry keeps the information any
// one supervisor reasons over bounded regardless of total tree size.
type CapabilityView struct {
	Name       string          `json:"name"`
	Role       NodeRole        `json:"role"`
	Summary    string          `json:"summary,omitempty"`
	Operations []OperationSpec `json:"operations,omitempty"`
	// Abstract is true when only the summary is visible.
	Abstract bool `json:"abstract"`
}
