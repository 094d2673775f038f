package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/swarmflow/types"
)

func visibilityTree(t *testing.T) *Registry {
	t.Helper()
	r, err := New("acme", 1, []types.WorkerNode{
		{Name: "root", Role: types.RoleSupervisor, Summary: "top", Children: []string{"team", "solo"}},
		{Name: "team", Role: types.RoleSupervisor, Summary: "mid", Children: []string{"worker"}},
		{
			Name: "worker", Role: types.RoleLeaf, Summary: "deep",
			Operations: []types.OperationSpec{{Name: "dig", Args: []string{"depth"}}},
		},
		{
			Name: "solo", Role: types.RoleLeaf, Summary: "direct",
			Operations: []types.OperationSpec{{Name: "act", Args: []string{"what"}}},
		},
	})
	require.NoError(t, err)
	return r
}

func TestVisibleCapabilitiesDirectChild(t *testing.T) {
	r := visibilityTree(t)

	view, err := r.VisibleCapabilities("root", "solo")
	require.NoError(t, err)
	assert.False(t, view.Abstract)
	assert.Equal(t, "direct", view.Summary)
	require.Len(t, view.Operations, 1)
	assert.Equal(t, "act", view.Operations[0].Name)
}

func TestVisibleCapabilitiesDeepDescendantIsAbstract(t *testing.T) {
	r := visibilityTree(t)

	view, err := r.VisibleCapabilities("root", "worker")
	require.NoError(t, err)
	assert.True(t, view.Abstract)
	assert.Equal(t, "deep", view.Summary)
	assert.Empty(t, view.Operations)

	// The same worker is fully visible to its own parent.
	view, err = r.VisibleCapabilities("team", "worker")
	require.NoError(t, err)
	assert.False(t, view.Abstract)
	assert.Len(t, view.Operations, 1)
}

func TestVisibleCapabilitiesRejectsNonDescendants(t *testing.T) {
	r := visibilityTree(t)

	// Sibling, ancestor, and self are all out of scope.
	for _, target := range []string{"root", "team"} {
		_, err := r.VisibleCapabilities("solo", target)
		require.Error(t, err)
		assert.Equal(t, types.ErrInvalidRoute, types.GetErrorCode(err))
	}

	_, err := r.VisibleCapabilities("root", "root")
	require.Error(t, err)

	_, err = r.VisibleCapabilities("root", "ghost")
	require.Error(t, err)
	assert.Equal(t, types.ErrWorkerNotFound, types.GetErrorCode(err))
}
