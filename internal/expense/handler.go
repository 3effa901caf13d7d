package expense

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/frahmantamala/budget-analytics/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Create(ctx context.Context, userID int64, dto CreateExpenseDTO) (*ExpenseView, error)
	CreateBulk(ctx context.Context, userID int64, dtos []CreateExpenseDTO) ([]ExpenseView, error)
	Get(ctx context.Context, userID, id int64) (*ExpenseView, error)
	Update(ctx context.Context, userID, id int64, dto UpdateExpenseDTO) (*ExpenseView, error)
	Delete(ctx context.Context, userID, id int64) error
	List(ctx context.Context, filter ListFilter) (*ListResponse, error)
	Summary(ctx context.Context, userID int64, start, end *time.Time) (*SummaryResponse, error)
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

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	var dto CreateExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateExpense: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.Service.Create(r.Context(), userID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Expense created successfully",
		"expense": view,
	})
}

func (h *Handler) CreateBulkExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	var dto BulkCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateBulkExpenses: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	views, err := h.Service.CreateBulk(r.Context(), userID, dto.Expenses)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Expenses created successfully",
		"expenses": views,
	})
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	start, err := transport.QueryDate(r, "start_date")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	end, err := transport.QueryDate(r, "end_date")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	limit, offset := transport.Pagination(r, 50)

	filter := ListFilter{UserID: userID, StartDate: start, EndDate: end, Limit: limit, Offset: offset}
	if c := r.URL.Query().Get("category"); c != "" {
		filter.Category = &c
	}

	resp, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetExpenseSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	start, err := transport.QueryDate(r, "start_date")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	end, err := transport.QueryDate(r, "end_date")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.Summary(r.Context(), userID, start, end)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
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

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"expense": view})
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}
	id, err := transport.PathID(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateExpense: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.Service.Update(r.Context(), userID, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Expense updated successfully",
		"expense": view,
	})
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}
	id, err := transport.PathID(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), userID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}
