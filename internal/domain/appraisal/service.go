package appraisal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/approval"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/metrics"
)

// ChainResolver resolves the current approval chain of an employee.
type ChainResolver interface {
	ResolveFor(ctx context.Context, employeeID string) (approval.Resolution, error)
}

// Scorer computes the final score of an appraisal whose levels are all
// reviewed.
type Scorer interface {
	Score(ctx context.Context, a Appraisal) (Score, error)
}

type ReviewInput struct {
	Answers []Answer
	Comment string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRetryLimit(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.retries = n
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}

// Service drives appraisals through draft, submitted, in_review and
// completed. Writes are optimistic: a version conflict reloads the
// appraisal and re-evaluates the request against the winner's state.
type Service struct {
	store     StoreAPI
	chains    ChainResolver
	scorer    Scorer
	publisher Publisher
	log       zerolog.Logger
	metrics   *metrics.Collector
	now       func() time.Time
	retries   int
}

func NewService(store StoreAPI, chains ChainResolver, scorer Scorer, publisher Publisher, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		chains:    chains,
		scorer:    scorer,
		publisher: publisher,
		log:       log.With().Str("component", "appraisal_workflow").Logger(),
		now:       time.Now,
		retries:   defaultRetryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, id string) (*Appraisal, error) {
	return s.store.Get(ctx, id)
}

// Create opens a draft for employeeID. An existing appraisal for the same
// period is returned together with ErrAppraisalExists.
func (s *Service) Create(ctx context.Context, employeeID string, start, end time.Time) (*Appraisal, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, ErrInvalidPeriod
	}
	existing, err := s.store.FindByEmployeePeriod(ctx, employeeID, start, end)
	if err == nil {
		return existing, ErrAppraisalExists
	}
	if !errors.Is(err, ErrAppraisalNotFound) {
		return nil, err
	}

	now := s.now()
	a := &Appraisal{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, ErrAppraisalExists) {
			if existing, ferr := s.store.FindByEmployeePeriod(ctx, employeeID, start, end); ferr == nil {
				return existing, ErrAppraisalExists
			}
		}
		return nil, err
	}
	s.log.Info().Str("appraisal_id", a.ID).Str("employee_id", employeeID).Msg("appraisal created")
	return a, nil
}

func (s *Service) SaveResponses(ctx context.Context, id, actorID string, answers []Answer) (*Appraisal, error) {
	if err := validateAnswers(answers); err != nil {
		return nil, err
	}
	return s.withRetry(ctx, id, func(a *Appraisal) (*Appraisal, error) {
		if a.EmployeeID != actorID {
			return nil, ErrNotOwner
		}
		if a.Status != StatusDraft {
			return nil, ErrNotDraft
		}
		if err := s.store.SaveResponses(ctx, a.ID, a.Version, answers); err != nil {
			return nil, err
		}
		a.Responses = append([]Answer(nil), answers...)
		a.Version++
		return a, nil
	})
}

// Submit freezes the approval chain onto a draft. Resubmitting returns the
// current state with ErrAlreadySubmitted. An empty chain completes the
// appraisal straight away with the no_approver outcome.
func (s *Service) Submit(ctx context.Context, id, actorID string) (*Appraisal, error) {
	var resolved *approval.Resolution
	return s.withRetry(ctx, id, func(a *Appraisal) (*Appraisal, error) {
		if a.EmployeeID != actorID {
			return nil, ErrNotOwner
		}
		if a.Status != StatusDraft {
			return a, ErrAlreadySubmitted
		}
		if resolved == nil {
			res, err := s.chains.ResolveFor(ctx, a.EmployeeID)
			if err != nil {
				return nil, fmt.Errorf("resolve approval chain: %w", err)
			}
			resolved = &res
		}

		submittedAt := s.now()
		if err := s.store.Freeze(ctx, a.ID, a.Version, resolved.Chain, submittedAt); err != nil {
			return nil, err
		}
		a.Chain = resolved.Chain.Clone()
		a.Status = StatusSubmitted
		a.SubmittedAt = &submittedAt
		a.Version++
		s.log.Info().
			Str("appraisal_id", a.ID).
			Str("employee_id", a.EmployeeID).
			Strs("approvers", a.Chain.Approvers()).
			Msg("appraisal submitted, chain frozen")
		s.emit(ctx, a, StatusDraft, StatusSubmitted)

		if a.Chain.Empty() {
			s.metrics.NoApprover()
			s.log.Warn().
				Str("appraisal_id", a.ID).
				Str("employee_id", a.EmployeeID).
				Msg("appraisal has no approvers, completing without review")
			return s.complete(ctx, a, StatusSubmitted, OutcomeNoApprover)
		}
		return a, nil
	})
}

// RecordReview stores the review of level by actorID. Only the approver of
// the lowest unreviewed frozen level may act. When that approver repeats a
// review of a closed level the current state comes back with
// ErrLevelAlreadyReviewed; anyone else gets ErrNotApprover and no state.
func (s *Service) RecordReview(ctx context.Context, id, actorID string, level int, input ReviewInput) (*Appraisal, error) {
	if err := validateAnswers(input.Answers); err != nil {
		return nil, err
	}
	return s.withRetry(ctx, id, func(a *Appraisal) (*Appraisal, error) {
		if a.Status == StatusDraft {
			return nil, ErrNotSubmitted
		}
		link, ok := a.Chain.Link(level)
		if !ok {
			return nil, ErrNotInChain
		}
		if link.ApproverID != actorID {
			return nil, ErrNotApprover
		}
		if _, done := a.Review(level); done {
			return a, ErrLevelAlreadyReviewed
		}
		if active, _ := a.ActiveLink(); active.Level != level {
			return nil, ErrNotYourTurn
		}

		review := LevelReview{
			Level:      level,
			ApproverID: actorID,
			Answers:    append([]Answer(nil), input.Answers...),
			Comment:    strings.TrimSpace(input.Comment),
			ReviewedAt: s.now(),
		}
		if err := s.store.RecordLevelReview(ctx, a.ID, a.Version, review, StatusInReview); err != nil {
			return nil, err
		}
		from := a.Status
		a.Reviews = append(a.Reviews, review)
		a.Status = StatusInReview
		a.Version++
		s.log.Info().
			Str("appraisal_id", a.ID).
			Int("approval_level", level).
			Str("approver_id", actorID).
			Msg("level review recorded")

		if from == StatusSubmitted {
			s.emit(ctx, a, StatusSubmitted, StatusInReview)
		}
		if a.AllReviewed() {
			return s.complete(ctx, a, StatusInReview, OutcomeReviewed)
		}
		if from == StatusInReview {
			s.emit(ctx, a, StatusInReview, StatusInReview)
		}
		return a, nil
	})
}

// Finalize retries completion of an appraisal whose levels are all
// reviewed but whose scoring failed earlier. Completed appraisals are
// returned unchanged.
func (s *Service) Finalize(ctx context.Context, id string) (*Appraisal, error) {
	return s.withRetry(ctx, id, func(a *Appraisal) (*Appraisal, error) {
		switch a.Status {
		case StatusCompleted:
			return a, nil
		case StatusDraft:
			return nil, ErrNotSubmitted
		}
		if !a.AllReviewed() {
			return nil, ErrReviewsPending
		}
		outcome := OutcomeReviewed
		if a.Chain.Empty() {
			outcome = OutcomeNoApprover
		}
		return s.complete(ctx, a, a.Status, outcome)
	})
}

// complete scores a and marks it completed. A scoring failure leaves the
// status untouched and returns ErrScoringFailed.
func (s *Service) complete(ctx context.Context, a *Appraisal, from Status, outcome string) (*Appraisal, error) {
	for attempt := 0; ; attempt++ {
		score, err := s.scorer.Score(ctx, *a.Clone())
		if err != nil {
			s.metrics.ScoringFailure()
			s.log.Error().Err(err).
				Str("appraisal_id", a.ID).
				Str("status", string(a.Status)).
				Msg("scoring failed, appraisal stays open")
			return a, fmt.Errorf("%w: %v", ErrScoringFailed, err)
		}

		completedAt := s.now()
		total := score.Total
		change := StatusChange{
			Status:      StatusCompleted,
			Outcome:     outcome,
			Score:       &total,
			Grade:       score.Grade,
			CompletedAt: &completedAt,
		}
		err = s.store.AdvanceStatus(ctx, a.ID, a.Version, change)
		if err == nil {
			a.Status = StatusCompleted
			a.Outcome = outcome
			a.Score = &total
			a.Grade = score.Grade
			a.CompletedAt = &completedAt
			a.Version++
			s.log.Info().
				Str("appraisal_id", a.ID).
				Str("outcome", outcome).
				Float64("score", total).
				Str("grade", score.Grade).
				Msg("appraisal completed")
			s.emit(ctx, a, from, StatusCompleted)
			return a, nil
		}
		if !errors.Is(err, ErrVersionConflict) || attempt >= s.retries {
			return a, err
		}

		s.metrics.VersionConflict()
		fresh, gerr := s.store.Get(ctx, a.ID)
		if gerr != nil {
			return a, gerr
		}
		if fresh.Status == StatusCompleted {
			return fresh, nil
		}
		a = fresh
	}
}

func (s *Service) withRetry(ctx context.Context, id string, fn func(a *Appraisal) (*Appraisal, error)) (*Appraisal, error) {
	for attempt := 0; ; attempt++ {
		a, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out, err := fn(a)
		if !errors.Is(err, ErrVersionConflict) {
			return out, err
		}
		s.metrics.VersionConflict()
		s.log.Debug().Str("appraisal_id", id).Int("attempt", attempt+1).Msg("version conflict, reloading")
		if attempt >= s.retries {
			return nil, err
		}
	}
}

func (s *Service) emit(ctx context.Context, a *Appraisal, from, to Status) {
	evt := Transition{
		ID:          uuid.NewString(),
		AppraisalID: a.ID,
		EmployeeID:  a.EmployeeID,
		From:        from,
		To:          to,
		OccurredAt:  s.now(),
	}
	if to == StatusCompleted {
		evt.Outcome = a.Outcome
	} else if link, ok := a.ActiveLink(); ok {
		evt.ActiveLevel = link.Level
		evt.ActiveApproverID = link.ApproverID
	}
	s.metrics.Transition(string(from), string(to))
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn().Err(err).
			Str("appraisal_id", a.ID).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("transition event not delivered")
	}
}

func validateAnswers(answers []Answer) error {
	seen := make(map[string]struct{}, len(answers))
	for _, ans := range answers {
		if strings.TrimSpace(ans.QuestionID) == "" {
			return fmt.Errorf("%w: questionId is required", ErrInvalidAnswer)
		}
		if _, dup := seen[ans.QuestionID]; dup {
			return fmt.Errorf("%w: question %s answered twice", ErrInvalidAnswer, ans.QuestionID)
		}
		seen[ans.QuestionID] = struct{}{}
		if ans.MaxRating < 0 || ans.Rating < 0 || ans.Rating > ans.MaxRating {
			return fmt.Errorf("%w: rating for %s must be between 0 and %v", ErrInvalidAnswer, ans.QuestionID, ans.MaxRating)
		}
	}
	return nil
}
