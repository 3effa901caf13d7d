package budget

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/frahmantamala/budget-analytics/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Create(ctx context.Context, userID int64, dto CreateBudgetDTO) (*BudgetView, error)
	Get(ctx context.Context, userID, id int64) (*BudgetView, error)
	List(ctx context.Context, userID int64, activeOnly bool, cat *string) ([]BudgetView, error)
	Update(ctx context.Context, userID, id int64, dto UpdateBudgetDTO) (*BudgetView, error)
	Deactivate(ctx context.Context, userID, id int64) error
	BudgetsNeedingAlerts(ctx context.Context, userID int64) ([]BudgetView, error)
	Performance(ctx context.Context, userID, id int64) (*PerformanceView, error)
	PerformanceHistory(ctx context.Context, userID int64, months int) ([]PerformanceView, error)
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

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	var dto CreateBudgetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateBudget: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.Service.Create(r.Context(), userID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Budget created successfully",
		"budget":  view,
	})
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	var cat *string
	if c := r.URL.Query().Get("category"); c != "" {
		cat = &c
	}

	views, err := h.Service.List(r.Context(), userID, activeOnly, cat)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, BudgetsResponse{Budgets: views, Total: len(views)})
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}
	id, err := transport.PathID(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	view, err := h.Service.Get(r.Context(), userID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"budget": view})
}

func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}
	id, err := transport.PathID(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateBudgetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateBudget: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.Service.Update(r.Context(), userID, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Budget updated successfully",
		"budget":  view,
	})
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}
	id, err := transport.PathID(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Deactivate(r.Context(), userID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Budget deleted successfully"})
}

func (h *Handler) GetBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	views, err := h.Service.BudgetsNeedingAlerts(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts":       views,
		"total_alerts": len(views),
	})
}

func (h *Handler) GetBudgetPerformance(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}
	id, err := transport.PathID(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	perf, err := h.Service.Performance(r.Context(), userID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, perf)
}

func (h *Handler) GetPerformanceHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}
	months, err := transport.QueryInt(r, "months", 6)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if months < 1 || months > 24 {
		months = 6
	}

	history, err := h.Service.PerformanceHistory(r.Context(), userID, months)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"performance": history,
		"months":      months,
	})
}
