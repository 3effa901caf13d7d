package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/notification"
	"github.com/frahmantamala/budget-analytics/internal/transport"
)

type EngineAPI interface {
	CheckBudget(ctx context.Context, userID, budgetID int64) (Result, error)
}

type Handler struct {
	*transport.BaseHandler
	Engine EngineAPI
	now    func() time.Time
}

func NewHandler(engine EngineAPI, baseHandler *transport.BaseHandler) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Engine:      engine,
		now:         time.Now,
	}
}

type checkBudgetRequest struct {
	BudgetID int64 `json:"budget_id"`
}

// CheckBudgetAlert evaluates one budget on demand. A suppressed or
// unnecessary alert is not an error.
func (h *Handler) CheckBudgetAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	var req checkBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("CheckBudgetAlert: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BudgetID <= 0 {
		h.HandleServiceError(w, internal.NewValidationFieldError("budget_id", "Budget ID is required", internal.ErrCodeValidationFailed))
		return
	}

	res, err := h.Engine.CheckBudget(r.Context(), userID, req.BudgetID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if !res.Created() {
		message := "Budget alert not needed at this time"
		if res.Suppressed {
			message = "Budget alert already sent recently"
		}
		h.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"message":  message,
			"decision": res.Decision,
		})
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "Budget alert created",
		"notification": notification.NewNotificationView(res.Notification, h.now().UTC()),
	})
}
