package registry

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Source builds a fresh Registry snapshot for a tenant. The generation
// token is assigned by the provider and stamped into the snapshot.
type Source interface {
	Build(ctx context.Context, tenant string, generation uint64) (*Registry, error)
}

// SnapshotProvider hands out immutable Registry snapshots per tenant.
//
// It replaces a manually invalidated global cache of built trees:
// Invalidate only stops handing the old snapshot to new requests, it
// never mutates a snapshot in place. A request holds one snapshot
// reference for its whole lifetime.
type SnapshotProvider struct {
	source Source
	logger *zap.Logger

	mu         sync.RWMutex
	snapshots  map[string]*Registry
	generation uint64
}

// NewSnapshotProvider creates a provider over the given source.
func NewSnapshotProvider(source Source, logger *zap.Logger) *SnapshotProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotProvider{
		source:    source,
		logger:    logger.With(zap.String("component", "snapshot_provider")),
		snapshots: make(map[string]*Registry),
	}
}

// Get returns the current snapshot for tenant, building one if none is
// cached. Concurrent callers for the same tenant may race to build; the
// first stored snapshot wins and the duplicate is discarded.
func (p *SnapshotProvider) Get(ctx context.Context, tenant string) (*Registry, error) {
	p.mu.RLock()
	if r, ok := p.snapshots[tenant]; ok {
		p.mu.RUnlock()
		return r, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	if r, ok := p.snapshots[tenant]; ok {
		p.mu.Unlock()
		return r, nil
	}
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	r, err := p.source.Build(ctx, tenant, gen)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.snapshots[tenant]; ok {
		return cur, nil
	}
	p.snapshots[tenant] = r
	p.logger.Info("registry snapshot built",
		zap.String("tenant", tenant),
		zap.Uint64("generation", gen),
		zap.Int("workers", r.Len()),
	)
	return r, nil
}

// Invalidate drops the cached snapshot for tenant. Requests already
// holding the old snapshot keep using it; the next Get builds a new one.
func (p *SnapshotProvider) Invalidate(tenant string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.snapshots[tenant]; ok {
		delete(p.snapshots, tenant)
		p.logger.Info("registry snapshot invalidated", zap.String("tenant", tenant))
	}
}
