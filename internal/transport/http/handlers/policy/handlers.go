package policyhandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/auth"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/policy"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/middleware"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/shared"
)

type Handler struct {
	Policies policy.StoreAPI
	Log      zerolog.Logger
}

func NewHandler(policies policy.StoreAPI, log zerolog.Logger) *Handler {
	return &Handler{Policies: policies, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/departments/{departmentID}/approval-policy", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPolicyRead)).Get("/", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermPolicyWrite)).Put("/", h.handlePut)
		r.With(middleware.RequirePermission(auth.PermPolicyWrite)).Post("/overrides", h.handleSaveOverride)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.Policies.GetPolicy(r.Context(), chi.URLParam(r, "departmentID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

// handlePut replaces the level approvers and caps of a department.
// Overrides are managed separately and are left as they are.
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	departmentID := chi.URLParam(r, "departmentID")

	var payload struct {
		Levels       []policy.LevelApprover   `json:"levels"`
		TypeCaps     map[org.EmployeeType]int `json:"typeCaps"`
		ProbationCap int                      `json:"probationCap"`
	}
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.TypeCaps("typeCaps", payload.TypeCaps)
	if v.Reject(w, reqID) {
		return
	}

	p := policy.Policy{
		DepartmentID: departmentID,
		Levels:       payload.Levels,
		TypeCaps:     payload.TypeCaps,
		ProbationCap: payload.ProbationCap,
	}
	if err := h.Policies.SavePolicy(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}
	actor, _ := middleware.GetActor(r)
	h.Log.Info().Str("department_id", departmentID).Str("actor_id", actor.EmployeeID).Int("levels", len(p.Levels)).Msg("approval policy updated")

	saved, err := h.Policies.GetPolicy(r.Context(), departmentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, saved, reqID)
}

func (h *Handler) handleSaveOverride(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	departmentID := chi.URLParam(r, "departmentID")

	var o policy.Override
	if !shared.DecodeJSON(w, r, &o, reqID) {
		return
	}
	o.DepartmentID = departmentID
	o.AdditionalApproverID = strings.TrimSpace(o.AdditionalApproverID)
	v := shared.NewValidator()
	if o.EmployeeType != "" && !o.EmployeeType.Known() {
		v.Add("employeeType", "unknown employee type")
	}
	if v.Reject(w, reqID) {
		return
	}

	id, err := h.Policies.SaveOverride(r.Context(), o)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o.ID = id
	actor, _ := middleware.GetActor(r)
	h.Log.Info().Str("department_id", departmentID).Str("override_id", id).Str("actor_id", actor.EmployeeID).Msg("approval override saved")
	api.Created(w, o, reqID)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	for _, target := range []error{policy.ErrInvalidLevel, policy.ErrDuplicateLevel, policy.ErrInvalidCap, policy.ErrInvalidOverride} {
		if errors.Is(err, target) {
			api.Fail(w, http.StatusBadRequest, "invalid_policy", err.Error(), reqID)
			return
		}
	}
	h.Log.Error().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Msg("policy request failed")
	api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", reqID)
}
