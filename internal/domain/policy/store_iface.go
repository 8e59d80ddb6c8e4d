package policy

import "context"

// Source yields the current policy snapshot of a department. A department
// without a stored policy gets Default, not an error.
type Source interface {
	GetPolicy(ctx context.Context, departmentID string) (Policy, error)
}

type StoreAPI interface {
	Source
	SavePolicy(ctx context.Context, p Policy) error
	SaveOverride(ctx context.Context, o Override) (string, error)
}
