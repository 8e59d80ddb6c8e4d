package org

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Snapshot is an arena of employees keyed by id. It is both a View for the
// resolver and an in-memory Directory.
type Snapshot struct {
	mu        sync.RWMutex
	employees map[string]Employee
}

func NewSnapshot(employees ...Employee) *Snapshot {
	s := &Snapshot{employees: make(map[string]Employee, len(employees))}
	for _, e := range employees {
		s.employees[e.ID] = e
	}
	return s
}

// Put inserts or replaces an employee.
func (s *Snapshot) Put(e Employee) {
	s.mu.Lock()
	s.employees[e.ID] = e
	s.mu.Unlock()
}

func (s *Snapshot) Lookup(id string) (Employee, bool) {
	if id == "" {
		return Employee{}, false
	}
	s.mu.RLock()
	e, ok := s.employees[id]
	s.mu.RUnlock()
	return e, ok
}

func (s *Snapshot) IsActive(id string) bool {
	e, ok := s.Lookup(id)
	return ok && e.Active
}

func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.employees)
}

func (s *Snapshot) GetEmployee(_ context.Context, id string) (Employee, error) {
	e, ok := s.Lookup(id)
	if !ok {
		return Employee{}, fmt.Errorf("%w: %s", ErrEmployeeNotFound, id)
	}
	return e, nil
}

func (s *Snapshot) GetEmployees(_ context.Context, ids []string) ([]Employee, error) {
	out := make([]Employee, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.Lookup(id); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Snapshot) ListActive(_ context.Context, departmentID string) ([]Employee, error) {
	s.mu.RLock()
	out := make([]Employee, 0, len(s.employees))
	for _, e := range s.employees {
		if !e.Active {
			continue
		}
		if departmentID != "" && e.DepartmentID != departmentID {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadSnapshot fetches ids from dir into a fresh Snapshot. Ids the
// directory does not know are left out.
func LoadSnapshot(ctx context.Context, dir Directory, ids ...string) (*Snapshot, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return NewSnapshot(), nil
	}
	employees, err := dir.GetEmployees(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	return NewSnapshot(employees...), nil
}
