package analytics

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/transport"
)

type ServiceAPI interface {
	Today() time.Time
	MonthlyTotals(ctx context.Context, userID int64, months int) (*MonthlyTrendsResponse, error)
	DailyTrends(ctx context.Context, userID int64, days int) (*DailyTrendsResponse, error)
	CategoryInsights(ctx context.Context, userID int64, start, end *time.Time) (*CategoryInsightsResponse, error)
	MonthlyReport(ctx context.Context, userID int64, year int, month time.Month) (*MonthlyReport, error)
	YearOverYear(ctx context.Context, userID int64, year int) (*YearOverYear, error)
	BudgetVsActual(ctx context.Context, userID int64, start, end *time.Time) (*BudgetVsActual, error)
	SpendingWarnings(ctx context.Context, userID int64) (*SpendingWarnings, error)
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

func (h *Handler) GetSpendingTrends(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = TrendMonthly
	}

	var (
		resp interface{}
		err  error
	)
	switch period {
	case TrendMonthly:
		var months int
		if months, err = transport.QueryInt(r, "months", 6); err == nil {
			resp, err = h.Service.MonthlyTotals(r.Context(), userID, months)
		}
	case TrendDaily:
		var days int
		if days, err = transport.QueryInt(r, "days", 30); err == nil {
			resp, err = h.Service.DailyTrends(r.Context(), userID, days)
		}
	default:
		err = internal.NewValidationFieldError("period", "Invalid period. Use daily or monthly", internal.ErrCodeInvalidPeriod)
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetCategoryInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	start, end, err := dateRange(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.CategoryInsights(r.Context(), userID, start, end)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	today := h.Service.Today()
	year, err := transport.QueryInt(r, "year", today.Year())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	month, err := transport.QueryInt(r, "month", int(today.Month()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	report, err := h.Service.MonthlyReport(r.Context(), userID, year, time.Month(month))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) GetYearOverYear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	year, err := transport.QueryInt(r, "current_year", h.Service.Today().Year())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.YearOverYear(r.Context(), userID, year)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetBudgetVsActual(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	start, end, err := dateRange(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.BudgetVsActual(r.Context(), userID, start, end)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetSpendingWarnings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ActingUser(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.SpendingWarnings(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func dateRange(r *http.Request) (start, end *time.Time, err error) {
	if start, err = transport.QueryDate(r, "start_date"); err != nil {
		return nil, nil, err
	}
	if end, err = transport.QueryDate(r, "end_date"); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}
