package audit

import (
	"context"
	"fmt"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// Record is idempotent on the event ID so a redelivered transition does
// not duplicate a row.
func (s *Store) Record(ctx context.Context, evt Event) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (id, appraisal_id, employee_id, action, from_status, to_status, level, approver_id, outcome, actor_id, request_id, occurred_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    ON CONFLICT (id) DO NOTHING
  `, evt.ID, evt.AppraisalID, evt.EmployeeID, evt.Action, evt.From, evt.To, evt.Level, evt.ApproverID, evt.Outcome, evt.ActorID, evt.RequestID, evt.OccurredAt)
	return err
}

func (s *Store) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// List returns newest first. A non-positive limit returns every match.
func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query, args := buildBaseQuery(`SELECT id::text, appraisal_id::text, employee_id, action, from_status, to_status,
    level, approver_id, outcome, actor_id, request_id, occurred_at`, filter)
	query += " ORDER BY occurred_at DESC, id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.AppraisalID, &evt.EmployeeID, &evt.Action, &evt.From, &evt.To,
			&evt.Level, &evt.ApproverID, &evt.Outcome, &evt.ActorID, &evt.RequestID, &evt.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if filter.AppraisalID != "" {
		query += fmt.Sprintf(" AND appraisal_id::text = $%d", len(args)+1)
		args = append(args, filter.AppraisalID)
	}
	if filter.EmployeeID != "" {
		query += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		args = append(args, filter.EmployeeID)
	}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}
	return query, args
}
