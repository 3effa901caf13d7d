package notification

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) (*ListResponse, error)
	ListUnread(ctx context.Context, userID int64) ([]NotificationView, error)
	MarkRead(ctx context.Context, userID, id int64) (*NotificationView, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, baseHandler *transport.BaseHandler) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	limit, offset := transport.Pagination(r, 50)
	filter := ListFilter{UserID: userID, Limit: limit, Offset: offset}
	if t := r.URL.Query().Get("type"); t != "" {
		if !IsValidType(t) {
			h.HandleServiceError(w, internal.NewValidationError("unknown notification type "+t, internal.ErrCodeInvalidQuery))
			return
		}
		filter.Type = &t
	}
	if unread, err := strconv.ParseBool(r.URL.Query().Get("unread_only")); err == nil {
		filter.UnreadOnly = unread
	}

	resp, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListUnread(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	views, err := h.Service.ListUnread(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": views,
		"count":         len(views),
	})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}
	id, err := transport.PathID(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	view, err := h.Service.MarkRead(r.Context(), userID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Notification marked as read",
		"notification": view,
	})
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	count, err := h.Service.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "All notifications marked as read",
		"count":   count,
	})
}
