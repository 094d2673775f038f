package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeRoleValid(t *testing.T) {
	assert.True(t, RoleLeaf.Valid())
	assert.True(t, RoleSupervisor.Valid())
	assert.False(t, NodeRole("manager").Valid())
	assert.False(t, NodeRole("").Valid())
}

func TestWorkerNodePredicates(t *testing.T) {
	leaf := WorkerNode{Name: "w", Role: RoleLeaf, Parent: "root"}
	assert.True(t, leaf.IsLeaf())
	assert.False(t, leaf.IsRoot())

	root := WorkerNode{Name: "root", Role: RoleSupervisor, Children: []string{"w", "v"}}
	assert.False(t, root.IsLeaf())
	assert.True(t, root.IsRoot())
	assert.True(t, root.HasChild("w"))
	assert.False(t, root.HasChild("x"))
}

func TestOutcomeConstructors(t *testing.T) {
	s := Success("payload")
	assert.Equal(t, OutcomeSuccess, s.Kind)
	assert.Equal(t, "payload", s.Payload)

	l := Limitation("out of scope")
	assert.Equal(t, OutcomeLimitation, l.Kind)
	assert.Equal(t, "out of scope", l.Reason)

	f := ToolFailure("timeout")
	assert.Equal(t, OutcomeToolFailure, f.Kind)
	assert.Equal(t, "timeout", f.Reason)
}
