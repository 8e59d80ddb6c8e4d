package notify

type Kind string

const (
	KindReviewRequested    Kind = "review_requested"
	KindAppraisalSubmitted Kind = "appraisal_submitted"
	KindAppraisalCompleted Kind = "appraisal_completed"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)
