package appraisal

import (
	"context"
	"strings"
	"time"
)

// Transition is emitted after every committed status change, and after a
// review moves the active level forward within in_review.
type Transition struct {
	ID               string    `json:"id"`
	AppraisalID      string    `json:"appraisalId"`
	EmployeeID       string    `json:"employeeId"`
	From             Status    `json:"from"`
	To               Status    `json:"to"`
	ActiveLevel      int       `json:"activeLevel,omitempty"`
	ActiveApproverID string    `json:"activeApproverId,omitempty"`
	Outcome          string    `json:"outcome,omitempty"`
	OccurredAt       time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Transition) error
}

// Subject returns the NATS subject func for transitions:
// <prefix>.transition.<to>.
func Subject(prefix string) func(Transition) string {
	prefix = strings.TrimSuffix(prefix, ".")
	return func(t Transition) string {
		return prefix + ".transition." + string(t.To)
	}
}
