package forecast

import (
	"context"
	"net/http"

	"github.com/frahmantamala/budget-analytics/internal/transport"
)

type ServiceAPI interface {
	Forecast(ctx context.Context, userID int64, months int) (*Forecast, error)
	SpendingPatterns(ctx context.Context, userID int64) (*Patterns, error)
	BudgetRecommendations(ctx context.Context, userID int64) (*BudgetRecommendations, error)
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

// Below the data gates every endpoint still answers 200 with a message.
func (h *Handler) GetSpendingPatterns(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.SpendingPatterns(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetBudgetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.BudgetRecommendations(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetAdvancedPredictions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	months, err := transport.QueryInt(r, "months", 3)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.Forecast(r.Context(), userID, months)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
