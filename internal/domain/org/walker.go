package org

import (
	"context"
	"errors"
)

// MaxSuperiorHops bounds the ancestor walk to approval levels 2..6.
const MaxSuperiorHops = 5

// WalkSuperiors returns up to hops reports-to ancestors of employeeID,
// starting with the direct superior at level 2. Inactive ancestors are
// reported with Active false and the walk continues past them. It stops
// early at a missing link, a cycle or the hop bound. Only a missing
// starting employee is an error.
func WalkSuperiors(ctx context.Context, dir Directory, employeeID string, hops int) ([]Ancestor, error) {
	if hops <= 0 || hops > MaxSuperiorHops {
		hops = MaxSuperiorHops
	}

	start, err := dir.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	visited := map[string]struct{}{start.ID: {}}
	ancestors := make([]Ancestor, 0, hops)
	nextID := start.ReportsTo
	for level := 2; nextID != "" && len(ancestors) < hops; level++ {
		if _, seen := visited[nextID]; seen {
			break
		}
		next, err := dir.GetEmployee(ctx, nextID)
		if err != nil {
			if errors.Is(err, ErrEmployeeNotFound) {
				break
			}
			return ancestors, err
		}
		visited[next.ID] = struct{}{}
		ancestors = append(ancestors, Ancestor{
			Level:    level,
			ID:       next.ID,
			Name:     next.Name,
			JobTitle: next.JobTitle,
			Active:   next.Active,
		})
		nextID = next.ReportsTo
	}
	return ancestors, nil
}
