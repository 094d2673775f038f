package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/swarmflow/types"
)

// WorkerRecord is the database row describing one worker tree node.
// Trees are keyed by tenant; Position fixes sibling order under one
// parent. Disabled workers are kept in the table but excluded from
// built snapshots.
type WorkerRecord struct {
	ID       uint   `gorm:"primaryKey"`
	Tenant   string `gorm:"index:idx_worker_tenant_name,unique;size:128"`
	Name     string `gorm:"index:idx_worker_tenant_name,unique;size:128"`
	Role     string `gorm:"size:16"`
	Parent   string `gorm:"size:128"`
	Position int
	Summary  string
	// Operations holds the JSON-encoded []types.OperationSpec.
	Operations string
	Enabled    bool `gorm:"default:true"`
}

// TableName keeps the table name stable across GORM naming strategies.
func (WorkerRecord) TableName() string { return "swarm_workers" }

// Store loads tenant worker trees from a relational database and builds
// Registry snapshots from them. It implements Source.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore wraps a GORM handle and migrates the worker table.
func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&WorkerRecord{}); err != nil {
		return nil, fmt.Errorf("migrate worker table: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(zap.String("component", "registry_store")),
	}, nil
}

// SaveTree replaces the stored tree for a tenant with the given nodes.
// Sibling order is taken from each parent's Children list.
func (s *Store) SaveTree(ctx context.Context, tenant string, nodes []types.WorkerNode) error {
	// Validate before touching the table.
	if _, err := New(tenant, 0, nodes); err != nil {
		return err
	}

	// Rows persist the tree through Parent + Position; derive both from
	// each supervisor's Children list so callers may supply either form.
	position := make(map[string]int, len(nodes))
	parentOf := make(map[string]string, len(nodes))
	for _, n := range nodes {
		for i, child := range n.Children {
			position[child] = i
			parentOf[child] = n.Name
		}
	}

	records := make([]WorkerRecord, 0, len(nodes))
	for _, n := range nodes {
		ops, err := json.Marshal(n.Operations)
		if err != nil {
			return fmt.Errorf("encode operations for %q: %w", n.Name, err)
		}
		parent := n.Parent
		if parent == "" {
			parent = parentOf[n.Name]
		}
		records = append(records, WorkerRecord{
			Tenant:     tenant,
			Name:       n.Name,
			Role:       string(n.Role),
			Parent:     parent,
			Position:   position[n.Name],
			Summary:    n.Summary,
			Operations: string(ops),
			Enabled:    true,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant = ?", tenant).Delete(&WorkerRecord{}).Error; err != nil {
			return err
		}
		return tx.Create(&records).Error
	})
}

// SetEnabled flips a worker's enabled flag without rebuilding the tree.
func (s *Store) SetEnabled(ctx context.Context, tenant, name string, enabled bool) error {
	res := s.db.WithContext(ctx).Model(&WorkerRecord{}).
		Where("tenant = ? AND name = ?", tenant, name).
		Update("enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.NewError(types.ErrWorkerNotFound,
			fmt.Sprintf("worker %q not stored for tenant %q", name, tenant)).WithWorker(name)
	}
	return nil
}

// Build implements Source: it loads the enabled workers for a tenant and
// assembles an immutable snapshot. Children of each supervisor are
// ordered by their stored position; workers whose parent is disabled
// drop out with their subtree.
func (s *Store) Build(ctx context.Context, tenant string, generation uint64) (*Registry, error) {
	var records []WorkerRecord
	err := s.db.WithContext(ctx).
		Where("tenant = ? AND enabled = ?", tenant, true).
		Order("parent, position, name").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load workers for tenant %q: %w", tenant, err)
	}
	if len(records) == 0 {
		return nil, types.NewError(types.ErrInvalidTree,
			fmt.Sprintf("no workers stored for tenant %q", tenant))
	}

	byName := make(map[string]WorkerRecord, len(records))
	for _, rec := range records {
		byName[rec.Name] = rec
	}

	// A node survives only if its whole ancestor chain is enabled;
	// disabling a supervisor drops its subtree from the snapshot.
	alive := make(map[string]bool, len(records))
	var isAlive func(name string) bool
	isAlive = func(name string) bool {
		if v, ok := alive[name]; ok {
			return v
		}
		alive[name] = false // breaks parent cycles in corrupt data
		rec, ok := byName[name]
		v := ok && (rec.Parent == "" || isAlive(rec.Parent))
		alive[name] = v
		return v
	}

	nodes := make([]types.WorkerNode, 0, len(records))
	childrenOf := make(map[string][]string)
	for _, rec := range records {
		if !isAlive(rec.Name) {
			continue
		}
		var ops []types.OperationSpec
		if rec.Operations != "" {
			if err := json.Unmarshal([]byte(rec.Operations), &ops); err != nil {
				return nil, fmt.Errorf("decode operations for %q: %w", rec.Name, err)
			}
		}
		nodes = append(nodes, types.WorkerNode{
			Name:       rec.Name,
			Role:       types.NodeRole(rec.Role),
			Parent:     rec.Parent,
			Summary:    rec.Summary,
			Operations: ops,
		})
		if rec.Parent != "" {
			childrenOf[rec.Parent] = append(childrenOf[rec.Parent], rec.Name)
		}
	}

	for i := range nodes {
		nodes[i].Children = childrenOf[nodes[i].Name]
	}

	s.logger.Debug("worker tree loaded",
		zap.String("tenant", tenant),
		zap.Int("workers", len(nodes)),
	)
	return New(tenant, generation, nodes)
}
