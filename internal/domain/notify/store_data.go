package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateNotice(ctx context.Context, n Notice) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notices (id, kind, appraisal_id, recipient_id, level, title, body, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, n.ID, string(n.Kind), n.AppraisalID, n.RecipientID, n.Level, n.Title, n.Body, n.OccurredAt)
	return err
}

func (s *Store) ListNotices(ctx context.Context, recipientID string, limit, offset int) ([]Notice, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, kind, appraisal_id::text, recipient_id, level, title, body, read_at, created_at
    FROM notices
    WHERE recipient_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notice
	for rows.Next() {
		var (
			n    Notice
			kind string
		)
		if err := rows.Scan(&n.ID, &kind, &n.AppraisalID, &n.RecipientID, &n.Level, &n.Title, &n.Body, &n.ReadAt, &n.OccurredAt); err != nil {
			return nil, err
		}
		n.Kind = Kind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notices WHERE recipient_id = $1 AND read_at IS NULL", recipientID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, recipientID, noticeID string) error {
	if _, err := uuid.Parse(noticeID); err != nil {
		return ErrNoticeNotFound
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE notices SET read_at = COALESCE(read_at, now())
    WHERE recipient_id = $1 AND id = $2
  `, recipientID, noticeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoticeNotFound
	}
	return nil
}
