package diagnosticshandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/auth"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/diagnostics"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/middleware"
)

type GapLister interface {
	ListPolicyGaps(ctx context.Context, scope diagnostics.Scope) ([]diagnostics.Report, error)
}

type Handler struct {
	Service GapLister
	Log     zerolog.Logger
}

func NewHandler(service GapLister, log zerolog.Logger) *Handler {
	return &Handler{Service: service, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/diagnostics", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermDiagnosticsRead))
		r.Get("/policy-gaps", h.handlePolicyGaps)
	})
}

func (h *Handler) handlePolicyGaps(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	scope := diagnostics.Scope{DepartmentID: strings.TrimSpace(r.URL.Query().Get("departmentId"))}

	reports, err := h.Service.ListPolicyGaps(r.Context(), scope)
	if err != nil {
		h.Log.Error().Err(err).Str("request_id", reqID).Str("department_id", scope.DepartmentID).Msg("policy gap report failed")
		api.Fail(w, http.StatusInternalServerError, "diagnostics_failed", "failed to build policy gap report", reqID)
		return
	}
	if reports == nil {
		reports = []diagnostics.Report{}
	}
	api.Success(w, reports, reqID)
}
