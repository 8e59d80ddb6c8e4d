package appraisalhandler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/auth"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/appraisal"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/appraisal/export"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/middleware"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/shared"
)

// Workflow is the appraisal service surface the handlers drive.
type Workflow interface {
	Get(ctx context.Context, id string) (*appraisal.Appraisal, error)
	Create(ctx context.Context, employeeID string, start, end time.Time) (*appraisal.Appraisal, error)
	SaveResponses(ctx context.Context, id, actorID string, answers []appraisal.Answer) (*appraisal.Appraisal, error)
	Submit(ctx context.Context, id, actorID string) (*appraisal.Appraisal, error)
	RecordReview(ctx context.Context, id, actorID string, level int, input appraisal.ReviewInput) (*appraisal.Appraisal, error)
	Finalize(ctx context.Context, id string) (*appraisal.Appraisal, error)
}

type Handler struct {
	Service   Workflow
	Directory org.Directory
	Log       zerolog.Logger
}

func NewHandler(service Workflow, directory org.Directory, log zerolog.Logger) *Handler {
	return &Handler{Service: service, Directory: directory, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/appraisals", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.With(middleware.RequirePermission(auth.PermAppraisalWrite)).Post("/", h.handleCreate)
		r.Get("/{appraisalID}", h.handleGet)
		r.Get("/{appraisalID}/export.pdf", h.handleExport)
		r.With(middleware.RequirePermission(auth.PermAppraisalWrite)).Put("/{appraisalID}/responses", h.handleSaveResponses)
		r.With(middleware.RequirePermission(auth.PermAppraisalWrite)).Post("/{appraisalID}/submit", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermAppraisalReview)).Post("/{appraisalID}/levels/{level}/review", h.handleReview)
		r.With(middleware.RequirePermission(auth.PermAppraisalFinalize)).Post("/{appraisalID}/finalize", h.handleFinalize)
	})
}

type answerPayload struct {
	QuestionID string  `json:"questionId"`
	Rating     float64 `json:"rating"`
	MaxRating  float64 `json:"maxRating"`
	Comment    string  `json:"comment"`
}

func toAnswers(in []answerPayload) []appraisal.Answer {
	out := make([]appraisal.Answer, 0, len(in))
	for _, a := range in {
		out = append(out, appraisal.Answer(a))
	}
	return out
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r)

	var payload struct {
		PeriodStart string `json:"periodStart"`
		PeriodEnd   string `json:"periodEnd"`
	}
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	start, end := v.Period("periodStart", payload.PeriodStart, "periodEnd", payload.PeriodEnd)
	if v.Reject(w, reqID) {
		return
	}

	a, err := h.Service.Create(r.Context(), actor.EmployeeID, start, end)
	if err != nil {
		h.writeError(w, r, a, err)
		return
	}
	api.Created(w, a, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadVisible(w, r)
	if !ok {
		return
	}
	api.Success(w, a, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadVisible(w, r)
	if !ok {
		return
	}

	ids := append([]string{a.EmployeeID}, a.Chain.Approvers()...)
	names := export.Names{}
	if people, err := h.Directory.GetEmployees(r.Context(), ids); err != nil {
		h.Log.Warn().Err(err).Str("appraisal_id", a.ID).Msg("export name lookup failed")
	} else {
		for _, p := range people {
			names[p.ID] = p.Name
		}
	}

	var buf bytes.Buffer
	if err := export.Render(&buf, a, names); err != nil {
		h.Log.Error().Err(err).Str("appraisal_id", a.ID).Msg("appraisal export failed")
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render appraisal", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(a)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleSaveResponses(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r)

	var payload struct {
		Answers []answerPayload `json:"answers"`
	}
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	a, err := h.Service.SaveResponses(r.Context(), chi.URLParam(r, "appraisalID"), actor.EmployeeID, toAnswers(payload.Answers))
	if err != nil {
		h.writeError(w, r, a, h.hideFromOutsiders(r, err))
		return
	}
	api.Success(w, a, reqID)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	a, err := h.Service.Submit(r.Context(), chi.URLParam(r, "appraisalID"), actor.EmployeeID)
	if err != nil {
		h.writeError(w, r, a, h.hideFromOutsiders(r, err))
		return
	}
	api.Success(w, a, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r)

	v := shared.NewValidator()
	level := v.Level("level", chi.URLParam(r, "level"))
	if v.Reject(w, reqID) {
		return
	}

	var payload struct {
		Answers []answerPayload `json:"answers"`
		Comment string          `json:"comment"`
	}
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	a, err := h.Service.RecordReview(r.Context(), chi.URLParam(r, "appraisalID"), actor.EmployeeID, level, appraisal.ReviewInput{
		Answers: toAnswers(payload.Answers),
		Comment: payload.Comment,
	})
	if err != nil {
		h.writeError(w, r, a, h.hideFromOutsiders(r, err))
		return
	}
	api.Success(w, a, reqID)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Finalize(r.Context(), chi.URLParam(r, "appraisalID"))
	if err != nil {
		h.writeError(w, r, a, err)
		return
	}
	api.Success(w, a, middleware.GetRequestID(r.Context()))
}

// loadVisible fetches the appraisal for the employee, a chain member, or a
// role that reads every appraisal. Everyone else gets a not found.
func (h *Handler) loadVisible(w http.ResponseWriter, r *http.Request) (*appraisal.Appraisal, bool) {
	actor, _ := middleware.GetActor(r)
	a, err := h.Service.Get(r.Context(), chi.URLParam(r, "appraisalID"))
	if err != nil {
		h.writeError(w, r, nil, err)
		return nil, false
	}
	if !visibleTo(actor, a) {
		h.writeError(w, r, nil, appraisal.ErrAppraisalNotFound)
		return nil, false
	}
	return a, true
}

func visibleTo(actor auth.Actor, a *appraisal.Appraisal) bool {
	return a.EmployeeID == actor.EmployeeID || a.Chain.Contains(actor.EmployeeID) || actor.Can(auth.PermAppraisalReadAll)
}

// outsiderErrors are the workflow refusals that would confirm an appraisal
// exists to someone who cannot read it.
var outsiderErrors = []error{
	appraisal.ErrNotOwner,
	appraisal.ErrNotApprover,
	appraisal.ErrNotInChain,
	appraisal.ErrNotDraft,
	appraisal.ErrNotSubmitted,
	appraisal.ErrNotYourTurn,
}

// hideFromOutsiders turns a workflow refusal into ErrAppraisalNotFound when
// the actor could not read the appraisal, so mutations answer the same way
// GET does.
func (h *Handler) hideFromOutsiders(r *http.Request, err error) error {
	refusal := false
	for _, target := range outsiderErrors {
		if errors.Is(err, target) {
			refusal = true
			break
		}
	}
	if !refusal {
		return err
	}
	actor, _ := middleware.GetActor(r)
	a, getErr := h.Service.Get(r.Context(), chi.URLParam(r, "appraisalID"))
	if getErr != nil || !visibleTo(actor, a) {
		return appraisal.ErrAppraisalNotFound
	}
	return err
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{appraisal.ErrAppraisalNotFound, http.StatusNotFound, "appraisal_not_found", "appraisal not found"},
	{appraisal.ErrAppraisalExists, http.StatusConflict, "appraisal_exists", "an appraisal already exists for this period"},
	{appraisal.ErrInvalidPeriod, http.StatusBadRequest, "invalid_period", "review period end must not be before its start"},
	{appraisal.ErrInvalidAnswer, http.StatusBadRequest, "invalid_answer", ""},
	{appraisal.ErrNotOwner, http.StatusForbidden, "not_owner", "only the appraised employee can do this"},
	{appraisal.ErrNotApprover, http.StatusForbidden, "not_approver", "you are not the approver for this level"},
	{appraisal.ErrNotInChain, http.StatusUnprocessableEntity, "not_in_chain", "level is not part of the approval chain"},
	{appraisal.ErrNotDraft, http.StatusConflict, "not_draft", "appraisal is no longer a draft"},
	{appraisal.ErrNotSubmitted, http.StatusConflict, "not_submitted", "appraisal has not been submitted"},
	{appraisal.ErrNotYourTurn, http.StatusConflict, "not_your_turn", "an earlier approval level is still pending"},
	{appraisal.ErrReviewsPending, http.StatusConflict, "reviews_pending", "approval levels are still pending"},
	{appraisal.ErrVersionConflict, http.StatusConflict, "version_conflict", "appraisal changed concurrently, retry"},
	{org.ErrEmployeeNotFound, http.StatusUnprocessableEntity, "employee_not_found", "employee is not in the directory"},
}

// writeError maps workflow outcomes onto the envelope. Idempotent no-ops
// and pending scoring still carry the current appraisal.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, current *appraisal.Appraisal, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case appraisal.IsNoop(err) && current != nil:
		api.Noop(w, current, reqID)
		return
	case errors.Is(err, appraisal.ErrScoringFailed) && current != nil:
		api.Pending(w, current, "scoring_pending", "reviews recorded, scoring will be retried", reqID)
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			message := m.message
			if message == "" {
				message = err.Error()
			}
			api.Fail(w, m.status, m.code, message, reqID)
			return
		}
	}
	h.Log.Error().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Msg("appraisal request failed")
	api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", reqID)
}
