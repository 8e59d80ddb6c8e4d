package appraisal

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusInReview  Status = "in_review"
	StatusCompleted Status = "completed"

	OutcomeReviewed   = "reviewed"
	OutcomeNoApprover = "no_approver"

	GradeUnrated = "unrated"

	defaultRetryLimit = 3
)
