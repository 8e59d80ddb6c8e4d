package orghandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/auth"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/approval"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/middleware"
)

type ChainPreviewer interface {
	ResolveFor(ctx context.Context, employeeID string) (approval.Resolution, error)
}

type Handler struct {
	Chains    ChainPreviewer
	Directory org.Directory
	Log       zerolog.Logger
}

func NewHandler(chains ChainPreviewer, directory org.Directory, log zerolog.Logger) *Handler {
	return &Handler{Chains: chains, Directory: directory, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees/{employeeID}", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/chain-preview", h.handleChainPreview)
		r.Get("/superiors", h.handleSuperiors)
	})
}

// handleChainPreview resolves the chain the employee would get if they
// submitted now. Nothing is frozen.
func (h *Handler) handleChainPreview(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	res, err := h.Chains.ResolveFor(r.Context(), employeeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, res, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSuperiors(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	hops := org.MaxSuperiorHops
	if raw := r.URL.Query().Get("hops"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > org.MaxSuperiorHops {
			api.Fail(w, http.StatusBadRequest, "invalid_hops", "hops must be between 1 and "+strconv.Itoa(org.MaxSuperiorHops), middleware.GetRequestID(r.Context()))
			return
		}
		hops = n
	}

	ancestors, err := org.WalkSuperiors(r.Context(), h.Directory, employeeID, hops)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if ancestors == nil {
		ancestors = []org.Ancestor{}
	}
	api.Success(w, ancestors, middleware.GetRequestID(r.Context()))
}

// authorize lets employees look at themselves; anything else needs org.read.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor, _ := middleware.GetActor(r)
	employeeID := chi.URLParam(r, "employeeID")
	if employeeID != actor.EmployeeID && !actor.Can(auth.PermOrgRead) {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return employeeID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	if errors.Is(err, org.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", reqID)
		return
	}
	h.Log.Error().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Msg("org request failed")
	api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", reqID)
}
