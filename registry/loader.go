package registry

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/swarmflow/types"
)

// treeFile is the YAML document shape for a worker tree.
//
//	tenant: default
//	workers:
//	  - name: root
//	    role: supervisor
//	    summary: routes requests
//	    children: [recipes, inventory]
//	  - name: recipes
//	    role: leaf
//	    summary: recipe search
//	    operations:
//	      - name: search_recipes
//	        args: [kitchen, recipe]
//	        description: search recipes by kitchen or name
type treeFile struct {
	Tenant  string             `yaml:"tenant"`
	Workers []types.WorkerNode `yaml:"workers"`
}

// Parse builds a Registry from a YAML worker tree document.
func Parse(data []byte, generation uint64) (*Registry, error) {
	var f treeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, types.NewError(types.ErrInvalidTree, "malformed worker tree document").WithCause(err)
	}
	tenant := f.Tenant
	if tenant == "" {
		tenant = "default"
	}
	return New(tenant, generation, f.Workers)
}

// LoadFile reads and parses a YAML worker tree file.
func LoadFile(path string, generation uint64) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidTree,
			fmt.Sprintf("read worker tree %s", path)).WithCause(err)
	}
	return Parse(data, generation)
}

// FileSource adapts a YAML file to the SnapshotProvider's Source
// contract. A file describes one tree; the requested tenant overrides
// the one declared in the document.
type FileSource struct {
	Path string
}

// Build implements Source.
func (s FileSource) Build(_ context.Context, tenant string, generation uint64) (*Registry, error) {
	r, err := LoadFile(s.Path, generation)
	if err != nil {
		return nil, err
	}
	if tenant != "" && tenant != r.tenant {
		r.tenant = tenant
	}
	return r, nil
}
