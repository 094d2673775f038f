package registry

import (
	"fmt"

	"github.com/BaSui01/swarmflow/types"
)

// VisibleCapabilities returns the capability descriptor of target as seen
// by viewer: the full operation set when target is a direct child of
// viewer, the abstract summary for any deeper descendant.
//
// The asymmetry is load-bearing. It bounds what one supervisor must
// reason over regardless of tree size, and it forces routing decisions
// to be made by the nearest competent supervisor instead of letting an
// ancestor bypass intermediate levels. It is a pure function of tree
// distance, independent of any message formatting.
func (r *Registry) VisibleCapabilities(viewer, target string) (types.CapabilityView, error) {
	v, err := r.Lookup(viewer)
	if err != nil {
		return types.CapabilityView{}, err
	}
	t, err := r.Lookup(target)
	if err != nil {
		return types.CapabilityView{}, err
	}
	if !r.isDescendant(viewer, target) {
		return types.CapabilityView{}, types.NewError(types.ErrInvalidRoute,
			fmt.Sprintf("%q is not a descendant of %q", target, viewer)).WithWorker(target)
	}

	view := types.CapabilityView{
		Name:    t.Name,
		Role:    t.Role,
		Summary: t.Summary,
	}
	if v.HasChild(target) {
		view.Operations = t.Operations
		return view, nil
	}
	view.Abstract = true
	return view, nil
}

// isDescendant reports whether target sits strictly below ancestor.
func (r *Registry) isDescendant(ancestor, target string) bool {
	cur := r.nodes[target]
	for cur != nil && cur.Parent != "" {
		if cur.Parent == ancestor {
			return true
		}
		cur = r.nodes[cur.Parent]
	}
	return false
}
