package notify

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryStore struct {
	mu      sync.Mutex
	notices []Notice
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) CreateNotice(_ context.Context, n Notice) error {
	n.Email = ""
	m.mu.Lock()
	m.notices = append(m.notices, n)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ListNotices(_ context.Context, recipientID string, limit, offset int) ([]Notice, error) {
	m.mu.Lock()
	var mine []Notice
	for _, n := range m.notices {
		if n.RecipientID == recipientID {
			mine = append(mine, n)
		}
	}
	m.mu.Unlock()

	sort.SliceStable(mine, func(i, j int) bool { return mine[i].OccurredAt.After(mine[j].OccurredAt) })
	if offset >= len(mine) {
		return nil, nil
	}
	mine = mine[offset:]
	if limit > 0 && limit < len(mine) {
		mine = mine[:limit]
	}
	return mine, nil
}

func (m *MemoryStore) CountUnread(_ context.Context, recipientID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.notices {
		if n.RecipientID == recipientID && n.ReadAt == nil {
			total++
		}
	}
	return total, nil
}

func (m *MemoryStore) MarkRead(_ context.Context, recipientID, noticeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notices {
		n := &m.notices[i]
		if n.ID != noticeID || n.RecipientID != recipientID {
			continue
		}
		if n.ReadAt == nil {
			at := m.now()
			n.ReadAt = &at
		}
		return nil
	}
	return ErrNoticeNotFound
}
