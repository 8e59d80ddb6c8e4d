package appraisal

import (
	"time"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/approval"
)

// Answer is a response to one question. MaxRating zero means the question
// is comment only.
type Answer struct {
	QuestionID string  `json:"questionId"`
	Rating     float64 `json:"rating,omitempty"`
	MaxRating  float64 `json:"maxRating,omitempty"`
	Comment    string  `json:"comment,omitempty"`
}

type LevelReview struct {
	Level      int       `json:"level"`
	ApproverID string    `json:"approverId"`
	Answers    []Answer  `json:"answers,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

type Appraisal struct {
	ID          string         `json:"id"`
	EmployeeID  string         `json:"employeeId"`
	PeriodStart time.Time      `json:"periodStart"`
	PeriodEnd   time.Time      `json:"periodEnd"`
	Status      Status         `json:"status"`
	Chain       approval.Chain `json:"chain"`
	Responses   []Answer       `json:"responses,omitempty"`
	Reviews     []LevelReview  `json:"reviews,omitempty"`
	Outcome     string         `json:"outcome,omitempty"`
	Score       *float64       `json:"score,omitempty"`
	Grade       string         `json:"grade,omitempty"`
	SubmittedAt *time.Time     `json:"submittedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Version     int            `json:"version"`
}

// Score is what the scoring collaborator returns at completion.
type Score struct {
	Total float64 `json:"total"`
	Grade string  `json:"grade"`
}

func (a *Appraisal) Review(level int) (LevelReview, bool) {
	for _, r := range a.Reviews {
		if r.Level == level {
			return r, true
		}
	}
	return LevelReview{}, false
}

// ActiveLink is the lowest frozen level without a review.
func (a *Appraisal) ActiveLink() (approval.Link, bool) {
	for _, link := range a.Chain {
		if _, done := a.Review(link.Level); !done {
			return link, true
		}
	}
	return approval.Link{}, false
}

// AllReviewed is true when every frozen level has a review, including the
// empty chain.
func (a *Appraisal) AllReviewed() bool {
	_, pending := a.ActiveLink()
	return !pending
}

func (a *Appraisal) Clone() *Appraisal {
	if a == nil {
		return nil
	}
	out := *a
	out.Chain = a.Chain.Clone()
	out.Responses = append([]Answer(nil), a.Responses...)
	out.Reviews = make([]LevelReview, len(a.Reviews))
	for i, r := range a.Reviews {
		r.Answers = append([]Answer(nil), r.Answers...)
		out.Reviews[i] = r
	}
	if a.Score != nil {
		v := *a.Score
		out.Score = &v
	}
	if a.SubmittedAt != nil {
		v := *a.SubmittedAt
		out.SubmittedAt = &v
	}
	if a.CompletedAt != nil {
		v := *a.CompletedAt
		out.CompletedAt = &v
	}
	return &out
}
