package appraisal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/approval"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/crypto"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/querier"
)

// Store keeps appraisals in Postgres. Responses and review payloads are
// sealed with Crypto, scoped to their appraisal and field, before they are
// written.
type Store struct {
	DB     querier.Querier
	Crypto *crypto.Sealer
}

func NewStore(db querier.Querier, c *crypto.Sealer) *Store {
	return &Store{DB: db, Crypto: c}
}

func responsesScope(id string) string {
	return id + "/responses"
}

func reviewScope(id string, level int) string {
	return fmt.Sprintf("%s/level/%d", id, level)
}

const appraisalColumns = `
    id::text, employee_id, period_start, period_end, status, chain, responses,
    outcome, score::float8, grade, submitted_at, completed_at, created_at, updated_at, version`

func (s *Store) Create(ctx context.Context, a *Appraisal) error {
	chain, err := json.Marshal(nonNilChain(a.Chain))
	if err != nil {
		return err
	}
	if a.Version == 0 {
		a.Version = 1
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO appraisals (id, employee_id, period_start, period_end, status, chain, version, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
  `, a.ID, a.EmployeeID, a.PeriodStart, a.PeriodEnd, string(a.Status), chain, a.Version, a.CreatedAt)
	if isUniqueViolation(err) {
		return ErrAppraisalExists
	}
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*Appraisal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAppraisalNotFound
	}
	a, err := s.scanOne(ctx, `SELECT `+appraisalColumns+` FROM appraisals WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	reviews, err := s.listReviews(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Reviews = reviews
	return a, nil
}

func (s *Store) FindByEmployeePeriod(ctx context.Context, employeeID string, start, end time.Time) (*Appraisal, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id::text FROM appraisals
    WHERE employee_id = $1 AND period_start = $2 AND period_end = $3
  `, employeeID, start, end).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppraisalNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Store) SaveResponses(ctx context.Context, id string, version int, answers []Answer) error {
	sealed, err := s.sealAnswers(answers, responsesScope(id))
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE appraisals SET responses = $3, version = version + 1, updated_at = now()
    WHERE id = $1 AND version = $2
  `, id, version, sealed)
	if err != nil {
		return err
	}
	return s.checkApplied(ctx, s.DB, id, tag)
}

func (s *Store) Freeze(ctx context.Context, id string, version int, chain approval.Chain, submittedAt time.Time) error {
	raw, err := json.Marshal(nonNilChain(chain))
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE appraisals
    SET chain = $3, status = $4, submitted_at = $5, version = version + 1, updated_at = now()
    WHERE id = $1 AND version = $2
  `, id, version, raw, string(StatusSubmitted), submittedAt)
	if err != nil {
		return err
	}
	return s.checkApplied(ctx, s.DB, id, tag)
}

// RecordLevelReview bumps the appraisal version and inserts the review in
// one transaction. The (appraisal_id, level) key turns a second review of
// the same level into ErrVersionConflict.
func (s *Store) RecordLevelReview(ctx context.Context, id string, version int, review LevelReview, status Status) error {
	scope := reviewScope(id, review.Level)
	answers, err := s.sealAnswers(review.Answers, scope)
	if err != nil {
		return err
	}
	comment, err := s.Crypto.SealString(review.Comment, scope)
	if err != nil {
		return err
	}
	return querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE appraisals SET status = $3, version = version + 1, updated_at = now()
      WHERE id = $1 AND version = $2
    `, id, version, string(status))
		if err != nil {
			return err
		}
		if err := s.checkApplied(ctx, tx, id, tag); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
      INSERT INTO appraisal_level_reviews (appraisal_id, level, approver_id, answers, comment, reviewed_at)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, id, review.Level, review.ApproverID, answers, comment, review.ReviewedAt)
		if isUniqueViolation(err) {
			return ErrVersionConflict
		}
		return err
	})
}

func (s *Store) AdvanceStatus(ctx context.Context, id string, version int, change StatusChange) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE appraisals
    SET status = $3,
        outcome = COALESCE(NULLIF($4::text, ''), outcome),
        score = COALESCE($5::numeric, score),
        grade = COALESCE(NULLIF($6::text, ''), grade),
        completed_at = COALESCE($7::timestamptz, completed_at),
        version = version + 1,
        updated_at = now()
    WHERE id = $1 AND version = $2
  `, id, version, string(change.Status), change.Outcome, change.Score, change.Grade, change.CompletedAt)
	if err != nil {
		return err
	}
	return s.checkApplied(ctx, s.DB, id, tag)
}

// checkApplied tells a missing appraisal apart from a stale version when an
// update matched no row.
func (s *Store) checkApplied(ctx context.Context, q querier.Querier, id string, tag pgconn.CommandTag) error {
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appraisals WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrAppraisalNotFound
	}
	return ErrVersionConflict
}

func (s *Store) scanOne(ctx context.Context, sql string, args ...any) (*Appraisal, error) {
	var (
		a         Appraisal
		status    string
		chain     []byte
		responses []byte
	)
	err := s.DB.QueryRow(ctx, sql, args...).Scan(
		&a.ID, &a.EmployeeID, &a.PeriodStart, &a.PeriodEnd, &status, &chain, &responses,
		&a.Outcome, &a.Score, &a.Grade, &a.SubmittedAt, &a.CompletedAt, &a.CreatedAt, &a.UpdatedAt, &a.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppraisalNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	a.Chain = approval.Chain{}
	if len(chain) > 0 {
		if err := json.Unmarshal(chain, &a.Chain); err != nil {
			return nil, fmt.Errorf("decode chain of %s: %w", a.ID, err)
		}
	}
	if a.Responses, err = s.openAnswers(responses, responsesScope(a.ID)); err != nil {
		return nil, fmt.Errorf("decode responses of %s: %w", a.ID, err)
	}
	return &a, nil
}

func (s *Store) listReviews(ctx context.Context, id string) ([]LevelReview, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT level, approver_id, answers, comment, reviewed_at
    FROM appraisal_level_reviews
    WHERE appraisal_id = $1
    ORDER BY level
  `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LevelReview
	for rows.Next() {
		var (
			r       LevelReview
			answers []byte
			comment []byte
		)
		if err := rows.Scan(&r.Level, &r.ApproverID, &answers, &comment, &r.ReviewedAt); err != nil {
			return nil, err
		}
		scope := reviewScope(id, r.Level)
		if r.Answers, err = s.openAnswers(answers, scope); err != nil {
			return nil, fmt.Errorf("decode level %d review: %w", r.Level, err)
		}
		if r.Comment, err = s.Crypto.OpenString(comment, scope); err != nil {
			return nil, fmt.Errorf("decode level %d comment: %w", r.Level, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) sealAnswers(answers []Answer, scope string) ([]byte, error) {
	if len(answers) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	return s.Crypto.Seal(raw, scope)
}

func (s *Store) openAnswers(sealed []byte, scope string) ([]Answer, error) {
	raw, err := s.Crypto.Open(sealed, scope)
	if err != nil || len(raw) == 0 {
		return nil, err
	}
	var out []Answer
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func nonNilChain(c approval.Chain) approval.Chain {
	if c == nil {
		return approval.Chain{}
	}
	return c
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
