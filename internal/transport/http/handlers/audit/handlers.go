package audithandler

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/auth"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/audit"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/middleware"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/shared"
)

type Trail interface {
	Count(ctx context.Context, filter audit.Filter) (int, error)
	List(ctx context.Context, filter audit.Filter, limit, offset int) ([]audit.Event, error)
}

type Handler struct {
	Service Trail
	Log     zerolog.Logger
}

func NewHandler(service Trail, log zerolog.Logger) *Handler {
	return &Handler{Service: service, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAuditRead))
		r.Get("/events", h.handleListEvents)
		r.Get("/events/export", h.handleExportEvents)
	})
}

func filterFrom(r *http.Request) audit.Filter {
	q := r.URL.Query()
	return audit.Filter{
		AppraisalID: strings.TrimSpace(q.Get("appraisalId")),
		EmployeeID:  strings.TrimSpace(q.Get("employeeId")),
		Action:      strings.TrimSpace(q.Get("action")),
	}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 100, 500)
	filter := filterFrom(r)

	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		h.Log.Warn().Err(err).Str("request_id", reqID).Msg("audit count failed")
	}

	events, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		h.Log.Error().Err(err).Str("request_id", reqID).Msg("audit list failed")
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, reqID)
}

var exportHeader = []string{
	"id", "appraisal_id", "employee_id", "action", "from", "to",
	"level", "approver_id", "outcome", "actor_id", "request_id", "occurred_at",
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	events, err := h.Service.List(r.Context(), filterFrom(r), 0, 0)
	if err != nil {
		h.Log.Error().Err(err).Str("request_id", reqID).Msg("audit export failed")
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", reqID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		h.Log.Warn().Err(err).Msg("audit export header failed")
	}
	for _, evt := range events {
		level := ""
		if evt.Level > 0 {
			level = strconv.Itoa(evt.Level)
		}
		row := []string{
			evt.ID, evt.AppraisalID, evt.EmployeeID, evt.Action, evt.From, evt.To,
			level, evt.ApproverID, evt.Outcome, evt.ActorID, evt.RequestID,
			evt.OccurredAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			h.Log.Warn().Err(err).Str("event_id", evt.ID).Msg("audit export row failed")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.Log.Warn().Err(err).Msg("audit export flush failed")
	}
}
