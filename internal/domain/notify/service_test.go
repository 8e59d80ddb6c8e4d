package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/appraisal"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/events"
)

type captured struct {
	mu      sync.Mutex
	notices []Notice
	err     error
}

func (c *captured) Publish(_ context.Context, n Notice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.notices = append(c.notices, n)
	return nil
}

type fakeConn struct {
	subjects []string
}

func (f *fakeConn) Publish(subject string, _ []byte) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

var at = time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)

func people() *org.Snapshot {
	return org.NewSnapshot(
		org.Employee{ID: "E", Email: "e@example.com", Active: true},
		org.Employee{ID: "M", Email: "m@example.com", Active: true},
		org.Employee{ID: "A", Active: true},
	)
}

func TestPlanSubmission(t *testing.T) {
	d := NewDispatcher(people(), nil, nil, zerolog.Nop(), nil)
	notices, err := d.Plan(context.Background(), appraisal.Transition{
		AppraisalID: "a1", EmployeeID: "E",
		From: appraisal.StatusDraft, To: appraisal.StatusSubmitted,
		ActiveLevel: 1, ActiveApproverID: "M", OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, notices, 2)
	require.Equal(t, KindAppraisalSubmitted, notices[0].Kind)
	require.Equal(t, "E", notices[0].RecipientID)
	require.Equal(t, KindReviewRequested, notices[1].Kind)
	require.Equal(t, "M", notices[1].RecipientID)
	require.Equal(t, "m@example.com", notices[1].Email)
	require.Equal(t, 1, notices[1].Level)
}

func TestPlanLevelAdvanceAndCompletion(t *testing.T) {
	d := NewDispatcher(people(), nil, nil, zerolog.Nop(), nil)

	advance, err := d.Plan(context.Background(), appraisal.Transition{
		AppraisalID: "a1", EmployeeID: "E",
		From: appraisal.StatusSubmitted, To: appraisal.StatusInReview,
		ActiveLevel: 2, ActiveApproverID: "A",
	})
	require.NoError(t, err)
	require.Len(t, advance, 1)
	require.Equal(t, "A", advance[0].RecipientID)
	require.Empty(t, advance[0].Email)

	done, err := d.Plan(context.Background(), appraisal.Transition{
		AppraisalID: "a1", EmployeeID: "E",
		From: appraisal.StatusInReview, To: appraisal.StatusCompleted,
		Outcome: appraisal.OutcomeReviewed,
	})
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.Equal(t, KindAppraisalCompleted, done[0].Kind)
	require.Equal(t, "E", done[0].RecipientID)
}

func TestPlanEmptyChainCompletion(t *testing.T) {
	d := NewDispatcher(people(), nil, nil, zerolog.Nop(), nil)
	done, err := d.Plan(context.Background(), appraisal.Transition{
		AppraisalID: "a1", EmployeeID: "E",
		From: appraisal.StatusSubmitted, To: appraisal.StatusCompleted,
		Outcome: appraisal.OutcomeNoApprover,
	})
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.Contains(t, done[0].Body, "no approver")
}

func TestHandleSkipsSendingWithoutEmail(t *testing.T) {
	inbox := NewMemoryStore()
	sender := &captured{}
	d := NewDispatcher(people(), inbox, sender, zerolog.Nop(), nil)

	d.Handle(context.Background(), appraisal.Transition{
		AppraisalID: "a1", EmployeeID: "E",
		From: appraisal.StatusSubmitted, To: appraisal.StatusInReview,
		ActiveLevel: 2, ActiveApproverID: "A", OccurredAt: at,
	})
	require.Empty(t, sender.notices)

	items, unread, err := d.Inbox(context.Background(), "A", 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, unread)
	require.Len(t, items, 1)
	require.Equal(t, KindReviewRequested, items[0].Kind)
}

func TestHandleSurvivesPublishFailure(t *testing.T) {
	inbox := NewMemoryStore()
	sender := &captured{err: errors.New("nats down")}
	d := NewDispatcher(people(), inbox, sender, zerolog.Nop(), nil)

	d.Handle(context.Background(), appraisal.Transition{
		AppraisalID: "a1", EmployeeID: "E",
		From: appraisal.StatusDraft, To: appraisal.StatusSubmitted,
		ActiveLevel: 1, ActiveApproverID: "M", OccurredAt: at,
	})

	_, unread, err := d.Inbox(context.Background(), "M", 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, unread)
}

func TestHandlePublishesOnKindSubject(t *testing.T) {
	conn := &fakeConn{}
	sender := events.NewNATSPublisher[Notice](conn, Subject("appraisal."))
	d := NewDispatcher(people(), nil, sender, zerolog.Nop(), nil)

	d.Handle(context.Background(), appraisal.Transition{
		AppraisalID: "a1", EmployeeID: "E",
		From: appraisal.StatusDraft, To: appraisal.StatusSubmitted,
		ActiveLevel: 1, ActiveApproverID: "M", OccurredAt: at,
	})
	require.Equal(t, []string{
		"appraisal.notice.appraisal_submitted",
		"appraisal.notice.review_requested",
	}, conn.subjects)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	inbox := NewMemoryStore()
	d := NewDispatcher(people(), inbox, nil, zerolog.Nop(), nil)
	require.NoError(t, inbox.CreateNotice(ctx, Notice{ID: "n1", RecipientID: "M", Kind: KindReviewRequested, OccurredAt: at}))

	require.ErrorIs(t, d.MarkRead(ctx, "E", "n1"), ErrNoticeNotFound)
	require.NoError(t, d.MarkRead(ctx, "M", "n1"))
	require.NoError(t, d.MarkRead(ctx, "M", "n1"))

	_, unread, err := d.Inbox(ctx, "M", 10, 0)
	require.NoError(t, err)
	require.Zero(t, unread)
}
