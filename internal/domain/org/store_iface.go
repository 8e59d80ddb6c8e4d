package org

import "context"

// View is an already-loaded, read-only set of employees addressed by id.
type View interface {
	Lookup(id string) (Employee, bool)
}

// Directory is the live organization directory.
type Directory interface {
	GetEmployee(ctx context.Context, id string) (Employee, error)
	GetEmployees(ctx context.Context, ids []string) ([]Employee, error)
	ListActive(ctx context.Context, departmentID string) ([]Employee, error)
}
