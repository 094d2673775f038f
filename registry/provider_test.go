package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/swarmflow/types"
)

type countingSource struct {
	mu     sync.Mutex
	builds int
	err    error
}

func (s *countingSource) Build(_ context.Context, tenant string, generation uint64) (*Registry, error) {
	s.mu.Lock()
	s.builds++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return New(tenant, generation, []types.WorkerNode{
		{Name: "root", Role: types.RoleSupervisor, Children: []string{"a"}},
		{Name: "a", Role: types.RoleLeaf},
	})
}

func (s *countingSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builds
}

func TestSnapshotProviderCachesPerTenant(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	p := NewSnapshotProvider(src, nil)

	r1, err := p.Get(ctx, "acme")
	require.NoError(t, err)
	r2, err := p.Get(ctx, "acme")
	require.NoError(t, err)

	assert.Same(t, r1, r2)
	assert.Equal(t, 1, src.count())

	r3, err := p.Get(ctx, "globex")
	require.NoError(t, err)
	assert.NotSame(t, r1, r3)
	assert.Equal(t, 2, src.count())
}

func TestSnapshotProviderInvalidateBumpsGeneration(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	p := NewSnapshotProvider(src, nil)

	r1, err := p.Get(ctx, "acme")
	require.NoError(t, err)

	p.Invalidate("acme")
	r2, err := p.Get(ctx, "acme")
	require.NoError(t, err)

	// The old snapshot stays intact for requests still holding it.
	assert.NotSame(t, r1, r2)
	assert.Greater(t, r2.Generation(), r1.Generation())
	assert.Equal(t, "root", r1.Root().Name)
	assert.Equal(t, 2, src.count())
}

func TestSnapshotProviderBuildErrorNotCached(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{err: errors.New("db down")}
	p := NewSnapshotProvider(src, nil)

	_, err := p.Get(ctx, "acme")
	require.Error(t, err)

	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()

	r, err := p.Get(ctx, "acme")
	require.NoError(t, err)
	assert.NotNil(t, r)
	assert.Equal(t, 2, src.count())
}

func TestSnapshotProviderConcurrentGets(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	p := NewSnapshotProvider(src, nil)

	var wg sync.WaitGroup
	results := make([]*Registry, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := p.Get(ctx, "acme")
			require.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Same(t, results[0], r)
	}
}
