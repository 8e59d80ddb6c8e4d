package noticeshandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/notify"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/middleware"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/shared"
)

// UnreadHeader carries the recipient's unread count alongside a page.
const UnreadHeader = "X-Unread-Count"

type Inbox interface {
	Inbox(ctx context.Context, recipientID string, limit, offset int) ([]notify.Notice, int, error)
	MarkRead(ctx context.Context, recipientID, noticeID string) error
}

type Handler struct {
	Service Inbox
	Log     zerolog.Logger
}

func NewHandler(service Inbox, log zerolog.Logger) *Handler {
	return &Handler{Service: service, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notices", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/{noticeID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r)

	page := shared.ParsePagination(r, 20, 100)
	items, unread, err := h.Service.Inbox(r.Context(), actor.EmployeeID, page.Limit, page.Offset)
	if err != nil {
		h.Log.Error().Err(err).Str("request_id", reqID).Msg("notice list failed")
		api.Fail(w, http.StatusInternalServerError, "notice_list_failed", "failed to list notices", reqID)
		return
	}
	if items == nil {
		items = []notify.Notice{}
	}
	w.Header().Set(UnreadHeader, strconv.Itoa(unread))
	api.Success(w, items, reqID)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r)

	err := h.Service.MarkRead(r.Context(), actor.EmployeeID, chi.URLParam(r, "noticeID"))
	switch {
	case errors.Is(err, notify.ErrNoticeNotFound):
		api.Fail(w, http.StatusNotFound, "notice_not_found", "notice not found", reqID)
		return
	case err != nil:
		h.Log.Error().Err(err).Str("request_id", reqID).Msg("notice update failed")
		api.Fail(w, http.StatusInternalServerError, "notice_update_failed", "failed to update notice", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "read"}, reqID)
}
