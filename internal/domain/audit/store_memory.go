package audit

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	seen   map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: map[string]struct{}{}}
}

func (m *MemoryStore) Record(_ context.Context, evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.seen[evt.ID]; dup {
		return nil
	}
	m.seen[evt.ID] = struct{}{}
	m.events = append(m.events, evt)
	return nil
}

func (m *MemoryStore) Count(_ context.Context, filter Filter) (int, error) {
	return len(m.match(filter)), nil
}

func (m *MemoryStore) List(_ context.Context, filter Filter, limit, offset int) ([]Event, error) {
	out := m.match(filter)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) match(filter Filter) []Event {
	m.mu.Lock()
	var out []Event
	for i := len(m.events) - 1; i >= 0; i-- {
		evt := m.events[i]
		if filter.AppraisalID != "" && evt.AppraisalID != filter.AppraisalID {
			continue
		}
		if filter.EmployeeID != "" && evt.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		out = append(out, evt)
	}
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out
}
