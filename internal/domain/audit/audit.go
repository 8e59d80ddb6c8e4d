package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/appraisal"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/requestctx"
)

const (
	ActionSubmitted      = "appraisal.submitted"
	ActionInReview       = "appraisal.in_review"
	ActionReviewRecorded = "appraisal.review_recorded"
	ActionCompleted      = "appraisal.completed"
)

// Event is one row of the appraisal audit trail. ActorID and RequestID
// are empty when the transition did not originate from an HTTP request.
type Event struct {
	ID          string    `json:"id"`
	AppraisalID string    `json:"appraisalId"`
	EmployeeID  string    `json:"employeeId"`
	Action      string    `json:"action"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Level       int       `json:"level,omitempty"`
	ApproverID  string    `json:"approverId,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	ActorID     string    `json:"actorId,omitempty"`
	RequestID   string    `json:"requestId,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type Filter struct {
	AppraisalID string
	EmployeeID  string
	Action      string
}

type StoreAPI interface {
	Record(ctx context.Context, evt Event) error
	Count(ctx context.Context, filter Filter) (int, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error)
}

// Action names a transition. A review that moves the active level forward
// stays in in_review and is recorded as review_recorded.
func Action(t appraisal.Transition) string {
	switch {
	case t.From == appraisal.StatusInReview && t.To == appraisal.StatusInReview:
		return ActionReviewRecorded
	case t.To == appraisal.StatusSubmitted:
		return ActionSubmitted
	case t.To == appraisal.StatusInReview:
		return ActionInReview
	case t.To == appraisal.StatusCompleted:
		return ActionCompleted
	}
	return "appraisal." + string(t.To)
}

// FromTransition builds the audit row for t, taking the actor and request
// ID from ctx when present.
func FromTransition(ctx context.Context, t appraisal.Transition) Event {
	evt := Event{
		ID:          t.ID,
		AppraisalID: t.AppraisalID,
		EmployeeID:  t.EmployeeID,
		Action:      Action(t),
		From:        string(t.From),
		To:          string(t.To),
		Level:       t.ActiveLevel,
		ApproverID:  t.ActiveApproverID,
		Outcome:     t.Outcome,
		RequestID:   requestctx.GetRequestID(ctx),
		OccurredAt:  t.OccurredAt,
	}
	if actor, ok := requestctx.GetActor(ctx); ok {
		evt.ActorID = actor.EmployeeID
	}
	return evt
}

type Recorder struct {
	store StoreAPI
	log   zerolog.Logger
}

func NewRecorder(store StoreAPI, log zerolog.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Handle is subscribed to the transition bus. A failed write is logged and
// never fails the transition that produced it.
func (r *Recorder) Handle(ctx context.Context, t appraisal.Transition) {
	evt := FromTransition(ctx, t)
	if err := r.store.Record(ctx, evt); err != nil {
		r.log.Error().Err(err).
			Str("appraisal_id", evt.AppraisalID).
			Str("action", evt.Action).
			Msg("audit event not recorded")
	}
}

func (r *Recorder) Count(ctx context.Context, filter Filter) (int, error) {
	return r.store.Count(ctx, filter)
}

func (r *Recorder) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	return r.store.List(ctx, filter, limit, offset)
}
