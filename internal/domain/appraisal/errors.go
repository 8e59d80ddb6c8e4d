package appraisal

import "errors"

var (
	ErrAppraisalNotFound    = errors.New("appraisal not found")
	ErrAppraisalExists      = errors.New("appraisal already exists for this period")
	ErrInvalidPeriod        = errors.New("review period end must not be before its start")
	ErrNotOwner             = errors.New("only the appraised employee can do this")
	ErrNotDraft             = errors.New("appraisal is no longer a draft")
	ErrAlreadySubmitted     = errors.New("appraisal already submitted")
	ErrNotSubmitted         = errors.New("appraisal has not been submitted")
	ErrNotInChain           = errors.New("level is not part of the frozen approval chain")
	ErrNotApprover          = errors.New("actor is not the approver for this level")
	ErrNotYourTurn          = errors.New("an earlier approval level is still pending")
	ErrLevelAlreadyReviewed = errors.New("level already reviewed")
	ErrReviewsPending       = errors.New("approval levels still pending")
	ErrScoringFailed        = errors.New("scoring failed, appraisal kept in review")
	ErrVersionConflict      = errors.New("appraisal was modified concurrently")
	ErrInvalidAnswer        = errors.New("invalid answer")
)

// IsNoop reports whether err is an idempotent outcome that left the
// appraisal unchanged.
func IsNoop(err error) bool {
	return errors.Is(err, ErrAlreadySubmitted) || errors.Is(err, ErrLevelAlreadyReviewed)
}
