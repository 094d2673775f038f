// Package fixtures provides prebuilt worker trees and task data for
// swarmflow tests.
package fixtures

import (
	"fmt"

	"github.com/BaSui01/swarmflow/registry"
	"github.com/BaSui01/swarmflow/types"
)

// FlatTree is one supervisor with two leaf workers, alpha before beta
// in declared order.
func FlatTree() *registry.Registry {
	return must(registry.New("test-tenant", 1, []types.WorkerNode{
		{
			Name:     "coordinator",
			Role:     types.RoleSupervisor,
			Summary:  "routes tasks to workers",
			Children: []string{"alpha", "beta"},
		},
		leaf("alpha", "general-purpose worker"),
		leaf("beta", "fallback worker"),
	}))
}

// DeepTree is a three-level chain: root supervisor, mid supervisor,
// one leaf.
func DeepTree() *registry.Registry {
	return must(registry.New("test-tenant", 1, []types.WorkerNode{
		{
			Name:     "root",
			Role:     types.RoleSupervisor,
			Summary:  "top-level router",
			Children: []string{"mid"},
		},
		{
			Name:     "mid",
			Role:     types.RoleSupervisor,
			Summary:  "intermediate router",
			Children: []string{"leaf"},
		},
		leaf("leaf", "does the actual work"),
	}))
}

// RestaurantTree mirrors a realistic tenant: a coordinator over a
// reservation team and a menu team.
func RestaurantTree() *registry.Registry {
	return must(registry.New("bistro", 1, []types.WorkerNode{
		{
			Name:     "coordinator",
			Role:     types.RoleSupervisor,
			Summary:  "front desk, routes guest requests",
			Children: []string{"reservation_team", "menu_team"},
		},
		{
			Name:     "reservation_team",
			Role:     types.RoleSupervisor,
			Summary:  "handles table bookings",
			Children: []string{"booker", "availability"},
		},
		{
			Name:    "booker",
			Role:    types.RoleLeaf,
			Summary: "creates and updates reservations",
			Operations: []types.OperationSpec{
				{Name: "book_table", Args: []string{"party_size", "time"}, Description: "reserve a table"},
				{Name: "cancel_booking", Args: []string{"booking_id"}, Description: "cancel a reservation"},
			},
		},
		{
			Name:    "availability",
			Role:    types.RoleLeaf,
			Summary: "checks table availability",
			Operations: []types.OperationSpec{
				{Name: "check_slots", Args: []string{"date"}, Description: "list free slots"},
			},
		},
		{
			Name:     "menu_team",
			Role:     types.RoleSupervisor,
			Summary:  "answers menu questions",
			Children: []string{"menu_lookup"},
		},
		{
			Name:    "menu_lookup",
			Role:    types.RoleLeaf,
			Summary: "searches menu items",
			Operations: []types.OperationSpec{
				{Name: "find_dish", Args: []string{"query"}, Description: "search dishes"},
			},
		},
	}))
}

// WideTree is one supervisor over n leaves named worker0..worker{n-1}.
func WideTree(n int) *registry.Registry {
	nodes := make([]types.WorkerNode, 0, n+1)
	children := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("worker%d", i)
		children = append(children, name)
		nodes = append(nodes, leaf(name, "interchangeable worker"))
	}
	nodes = append([]types.WorkerNode{{
		Name:     "root",
		Role:     types.RoleSupervisor,
		Summary:  "fans out over many workers",
		Children: children,
	}}, nodes...)
	return must(registry.New("test-tenant", 1, nodes))
}

func leaf(name, summary string) types.WorkerNode {
	return types.WorkerNode{
		Name:    name,
		Role:    types.RoleLeaf,
		Summary: summary,
		Operations: []types.OperationSpec{
			{Name: "run", Args: []string{"task"}, Description: "attempt the task"},
		},
	}
}

func must(r *registry.Registry, err error) *registry.Registry {
	if err != nil {
		panic(fmt.Sprintf("fixture tree must be valid: %v", err))
	}
	return r
}
