package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/appraisal"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/approval"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/events"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/metrics"
)

// Subject returns the NATS subject func for notices: <prefix>.notice.<kind>.
func Subject(prefix string) func(Notice) string {
	prefix = strings.TrimSuffix(prefix, ".")
	return func(n Notice) string {
		return prefix + ".notice." + string(n.Kind)
	}
}

// Dispatcher turns workflow transitions into notices. Each notice goes to
// the in-app inbox, and to Sender when the recipient has an email address.
type Dispatcher struct {
	directory org.Directory
	inbox     StoreAPI
	sender    events.Publisher[Notice]
	log       zerolog.Logger
	metrics   *metrics.Collector
}

func NewDispatcher(directory org.Directory, inbox StoreAPI, sender events.Publisher[Notice], log zerolog.Logger, m *metrics.Collector) *Dispatcher {
	return &Dispatcher{
		directory: directory,
		inbox:     inbox,
		sender:    sender,
		log:       log.With().Str("component", "notification_dispatcher").Logger(),
		metrics:   m,
	}
}

// Plan decides who hears about evt. Submission and level advances reach the
// active approver; submission and completion reach the employee.
func (d *Dispatcher) Plan(ctx context.Context, evt appraisal.Transition) ([]Notice, error) {
	var out []Notice
	add := func(kind Kind, recipient string, level int, title, body string) error {
		n := Notice{
			ID:          uuid.NewString(),
			Kind:        kind,
			AppraisalID: evt.AppraisalID,
			RecipientID: recipient,
			Level:       level,
			Title:       title,
			Body:        body,
			OccurredAt:  evt.OccurredAt,
		}
		email, err := d.emailOf(ctx, recipient)
		if err != nil {
			return err
		}
		n.Email = email
		out = append(out, n)
		return nil
	}

	switch {
	case evt.To == appraisal.StatusCompleted:
		body := "Your appraisal has been completed."
		if evt.Outcome == appraisal.OutcomeNoApprover {
			body = "Your appraisal was closed without review because no approver is configured."
		}
		if err := add(KindAppraisalCompleted, evt.EmployeeID, 0, "Appraisal completed", body); err != nil {
			return nil, err
		}
	case evt.From == appraisal.StatusDraft && evt.To == appraisal.StatusSubmitted:
		if err := add(KindAppraisalSubmitted, evt.EmployeeID, 0, "Appraisal submitted", "Your self assessment was submitted for review."); err != nil {
			return nil, err
		}
	}

	if evt.To != appraisal.StatusCompleted && evt.ActiveApproverID != "" {
		title := fmt.Sprintf("Level %d review requested", evt.ActiveLevel)
		body := fmt.Sprintf("An appraisal for %s is waiting for your level %d review.", evt.EmployeeID, evt.ActiveLevel)
		if err := add(KindReviewRequested, evt.ActiveApproverID, evt.ActiveLevel, title, body); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Handle is subscribed to the transition bus. Delivery problems are logged
// and never reach the workflow.
func (d *Dispatcher) Handle(ctx context.Context, evt appraisal.Transition) {
	notices, err := d.Plan(ctx, evt)
	if err != nil {
		d.log.Error().Err(err).Str("appraisal_id", evt.AppraisalID).Msg("notification planning failed")
		return
	}
	for _, n := range notices {
		if d.inbox != nil {
			if err := d.inbox.CreateNotice(ctx, n); err != nil {
				d.log.Warn().Err(err).Str("notice_id", n.ID).Msg("notice not stored")
			}
		}
		if n.Email == "" {
			if n.Kind == KindReviewRequested {
				d.metrics.PolicyGap(string(approval.GapNoApproverEmail))
				d.log.Warn().
					Str("appraisal_id", n.AppraisalID).
					Str("approver_id", n.RecipientID).
					Int("approval_level", n.Level).
					Str("reason", string(approval.GapNoApproverEmail)).
					Msg("approver has no email, review request not sent")
			}
			continue
		}
		if d.sender == nil {
			continue
		}
		if err := d.sender.Publish(ctx, n); err != nil {
			d.log.Warn().Err(err).
				Str("notice_id", n.ID).
				Str("kind", string(n.Kind)).
				Msg("notice not published")
		}
	}
}

// Inbox returns a page of recipientID's notices and the unread count.
func (d *Dispatcher) Inbox(ctx context.Context, recipientID string, limit, offset int) ([]Notice, int, error) {
	if d.inbox == nil {
		return nil, 0, nil
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	items, err := d.inbox.ListNotices(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	unread, err := d.inbox.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, 0, err
	}
	return items, unread, nil
}

func (d *Dispatcher) MarkRead(ctx context.Context, recipientID, noticeID string) error {
	if d.inbox == nil {
		return ErrNoticeNotFound
	}
	return d.inbox.MarkRead(ctx, recipientID, noticeID)
}

func (d *Dispatcher) emailOf(ctx context.Context, id string) (string, error) {
	e, err := d.directory.GetEmployee(ctx, id)
	if errors.Is(err, org.ErrEmployeeNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up %s: %w", id, err)
	}
	return strings.TrimSpace(e.Email), nil
}
