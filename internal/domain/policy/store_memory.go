package policy

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
)

// MemoryStore keeps policies in process. Reads return copies so callers
// can never mutate a stored snapshot.
type MemoryStore struct {
	mu        sync.RWMutex
	policies  map[string]Policy
	overrides []Override
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{policies: make(map[string]Policy), now: time.Now}
}

func (m *MemoryStore) GetPolicy(_ context.Context, departmentID string) (Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.policies[departmentID]
	if !ok {
		p = Default(departmentID)
	}
	p = clonePolicy(p)
	for _, o := range m.overrides {
		if o.Active && (o.DepartmentID == "" || o.DepartmentID == departmentID) {
			p.Overrides = append(p.Overrides, cloneOverride(o))
		}
	}
	return p, nil
}

func (m *MemoryStore) SavePolicy(_ context.Context, p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p = clonePolicy(p)
	p.Overrides = nil
	p.UpdatedAt = m.now()
	m.mu.Lock()
	m.policies[p.DepartmentID] = p
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) SaveOverride(_ context.Context, o Override) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.overrides {
		if m.overrides[i].ID == o.ID {
			m.overrides[i] = cloneOverride(o)
			return o.ID, nil
		}
	}
	m.overrides = append(m.overrides, cloneOverride(o))
	return o.ID, nil
}

func clonePolicy(p Policy) Policy {
	out := p
	out.Levels = append([]LevelApprover(nil), p.Levels...)
	if p.TypeCaps != nil {
		out.TypeCaps = make(map[org.EmployeeType]int, len(p.TypeCaps))
		for t, v := range p.TypeCaps {
			out.TypeCaps[t] = v
		}
	}
	out.Overrides = make([]Override, 0, len(p.Overrides))
	for _, o := range p.Overrides {
		out.Overrides = append(out.Overrides, cloneOverride(o))
	}
	return out
}

func cloneOverride(o Override) Override {
	out := o
	out.SkipLevels = append([]int(nil), o.SkipLevels...)
	if o.OnProbation != nil {
		v := *o.OnProbation
		out.OnProbation = &v
	}
	return out
}
