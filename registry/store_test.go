package registry

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BaSui01/swarmflow/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	store, err := NewStore(db, nil)
	require.NoError(t, err)
	return store
}

func storedNodes() []types.WorkerNode {
	return []types.WorkerNode{
		{Name: "root", Role: types.RoleSupervisor, Summary: "router", Children: []string{"team", "solo"}},
		{Name: "team", Role: types.RoleSupervisor, Summary: "sub-team", Children: []string{"digger"}},
		{
			Name: "digger", Role: types.RoleLeaf, Summary: "digs",
			Operations: []types.OperationSpec{{Name: "dig", Args: []string{"depth"}, Description: "dig a hole"}},
		},
		{Name: "solo", Role: types.RoleLeaf, Summary: "solo act"},
	}
}

func TestStoreSaveAndBuild(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveTree(ctx, "acme", storedNodes()))

	r, err := store.Build(ctx, "acme", 9)
	require.NoError(t, err)
	assert.Equal(t, "acme", r.Tenant())
	assert.Equal(t, uint64(9), r.Generation())
	assert.Equal(t, "root", r.Root().Name)
	assert.Equal(t, 4, r.Len())

	// Sibling order survives the round trip.
	children, err := r.ChildrenOf("root")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "team", children[0].Name)
	assert.Equal(t, "solo", children[1].Name)

	digger, err := r.Lookup("digger")
	require.NoError(t, err)
	require.Len(t, digger.Operations, 1)
	assert.Equal(t, "dig", digger.Operations[0].Name)
	assert.Equal(t, []string{"depth"}, digger.Operations[0].Args)
}

func TestStoreSaveRejectsInvalidTree(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.SaveTree(ctx, "acme", []types.WorkerNode{
		{Name: "root", Role: types.RoleSupervisor, Children: []string{"ghost"}},
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidTree, types.GetErrorCode(err))

	_, err = store.Build(ctx, "acme", 1)
	require.Error(t, err)
}

func TestStoreSaveReplacesTree(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveTree(ctx, "acme", storedNodes()))
	require.NoError(t, store.SaveTree(ctx, "acme", []types.WorkerNode{
		{Name: "root", Role: types.RoleSupervisor, Children: []string{"only"}},
		{Name: "only", Role: types.RoleLeaf},
	}))

	r, err := store.Build(ctx, "acme", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	_, err = r.Lookup("digger")
	require.Error(t, err)
}

func TestStoreTenantsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveTree(ctx, "acme", storedNodes()))
	require.NoError(t, store.SaveTree(ctx, "globex", []types.WorkerNode{
		{Name: "root", Role: types.RoleSupervisor, Children: []string{"lonely"}},
		{Name: "lonely", Role: types.RoleLeaf},
	}))

	acme, err := store.Build(ctx, "acme", 1)
	require.NoError(t, err)
	globex, err := store.Build(ctx, "globex", 1)
	require.NoError(t, err)

	assert.Equal(t, 4, acme.Len())
	assert.Equal(t, 2, globex.Len())

	_, err = store.Build(ctx, "initech", 1)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidTree, types.GetErrorCode(err))
}

func TestStoreDisableLeaf(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveTree(ctx, "acme", storedNodes()))

	require.NoError(t, store.SetEnabled(ctx, "acme", "solo", false))

	r, err := store.Build(ctx, "acme", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	_, err = r.Lookup("solo")
	require.Error(t, err)

	children, err := r.ChildrenOf("root")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "team", children[0].Name)
}

func TestStoreDisableSupervisorDropsSubtree(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveTree(ctx, "acme", storedNodes()))

	require.NoError(t, store.SetEnabled(ctx, "acme", "team", false))

	r, err := store.Build(ctx, "acme", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	_, err = r.Lookup("digger")
	require.Error(t, err)
}

func TestStoreSetEnabledUnknownWorker(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveTree(ctx, "acme", storedNodes()))

	err := store.SetEnabled(ctx, "acme", "ghost", true)
	require.Error(t, err)
	assert.Equal(t, types.ErrWorkerNotFound, types.GetErrorCode(err))
}

func TestStoreAsSnapshotSource(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveTree(ctx, "acme", storedNodes()))

	p := NewSnapshotProvider(store, nil)
	r1, err := p.Get(ctx, "acme")
	require.NoError(t, err)

	// A tree edit becomes visible only after invalidation.
	require.NoError(t, store.SetEnabled(ctx, "acme", "solo", false))
	r2, err := p.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Same(t, r1, r2)

	p.Invalidate("acme")
	r3, err := p.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 3, r3.Len())
	assert.Equal(t, 4, r1.Len())
}
