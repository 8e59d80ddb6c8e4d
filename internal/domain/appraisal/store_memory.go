package appraisal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/approval"
)

// MemoryStore is a StoreAPI held in process. A single mutex gives every
// write the same compare-and-bump semantics as the Postgres store.
type MemoryStore struct {
	mu         sync.Mutex
	appraisals map[string]*Appraisal
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{appraisals: make(map[string]*Appraisal), now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, a *Appraisal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appraisals[a.ID]; ok {
		return fmt.Errorf("%w: id %s", ErrAppraisalExists, a.ID)
	}
	for _, existing := range m.appraisals {
		if existing.EmployeeID == a.EmployeeID && samePeriod(existing, a.PeriodStart, a.PeriodEnd) {
			return ErrAppraisalExists
		}
	}
	stored := a.Clone()
	if stored.Version == 0 {
		stored.Version = 1
	}
	m.appraisals[a.ID] = stored
	a.Version = stored.Version
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Appraisal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appraisals[id]
	if !ok {
		return nil, ErrAppraisalNotFound
	}
	return a.Clone(), nil
}

func (m *MemoryStore) FindByEmployeePeriod(_ context.Context, employeeID string, start, end time.Time) (*Appraisal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appraisals {
		if a.EmployeeID == employeeID && samePeriod(a, start, end) {
			return a.Clone(), nil
		}
	}
	return nil, ErrAppraisalNotFound
}

func (m *MemoryStore) SaveResponses(_ context.Context, id string, version int, answers []Answer) error {
	return m.update(id, version, func(a *Appraisal) error {
		a.Responses = append([]Answer(nil), answers...)
		return nil
	})
}

func (m *MemoryStore) Freeze(_ context.Context, id string, version int, chain approval.Chain, submittedAt time.Time) error {
	return m.update(id, version, func(a *Appraisal) error {
		a.Chain = chain.Clone()
		if a.Chain == nil {
			a.Chain = approval.Chain{}
		}
		a.Status = StatusSubmitted
		a.SubmittedAt = &submittedAt
		return nil
	})
}

func (m *MemoryStore) RecordLevelReview(_ context.Context, id string, version int, review LevelReview, status Status) error {
	return m.update(id, version, func(a *Appraisal) error {
		if _, exists := a.Review(review.Level); exists {
			return ErrVersionConflict
		}
		review.Answers = append([]Answer(nil), review.Answers...)
		a.Reviews = append(a.Reviews, review)
		a.Status = status
		return nil
	})
}

func (m *MemoryStore) AdvanceStatus(_ context.Context, id string, version int, change StatusChange) error {
	return m.update(id, version, func(a *Appraisal) error {
		a.Status = change.Status
		if change.Outcome != "" {
			a.Outcome = change.Outcome
		}
		if change.Score != nil {
			v := *change.Score
			a.Score = &v
		}
		if change.Grade != "" {
			a.Grade = change.Grade
		}
		if change.CompletedAt != nil {
			v := *change.CompletedAt
			a.CompletedAt = &v
		}
		return nil
	})
}

func (m *MemoryStore) update(id string, version int, fn func(a *Appraisal) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.appraisals[id]
	if !ok {
		return ErrAppraisalNotFound
	}
	if stored.Version != version {
		return ErrVersionConflict
	}
	next := stored.Clone()
	if err := fn(next); err != nil {
		return err
	}
	next.Version++
	next.UpdatedAt = m.now()
	m.appraisals[id] = next
	return nil
}

func samePeriod(a *Appraisal, start, end time.Time) bool {
	return a.PeriodStart.Equal(start) && a.PeriodEnd.Equal(end)
}
