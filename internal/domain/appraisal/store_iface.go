package appraisal

import (
	"context"
	"time"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/approval"
)

// StatusChange is the payload of AdvanceStatus.
type StatusChange struct {
	Status      Status
	Outcome     string
	Score       *float64
	Grade       string
	CompletedAt *time.Time
}

// StoreAPI persists appraisals. Every write is atomic, succeeds only when
// the stored version equals version, and bumps the version by one;
// otherwise it returns ErrVersionConflict.
type StoreAPI interface {
	Create(ctx context.Context, a *Appraisal) error
	Get(ctx context.Context, id string) (*Appraisal, error)
	FindByEmployeePeriod(ctx context.Context, employeeID string, start, end time.Time) (*Appraisal, error)
	SaveResponses(ctx context.Context, id string, version int, answers []Answer) error
	Freeze(ctx context.Context, id string, version int, chain approval.Chain, submittedAt time.Time) error
	RecordLevelReview(ctx context.Context, id string, version int, review LevelReview, status Status) error
	AdvanceStatus(ctx context.Context, id string, version int, change StatusChange) error
}
