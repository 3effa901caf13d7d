package analytics_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/analytics"
	"github.com/frahmantamala/budget-analytics/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	var (
		now    time.Time
		f      *fixture
		router chi.Router
	)

	BeforeEach(func() {
		now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
		f = newFixture(&now)
		handler := analytics.NewHandler(f.service, transport.NewBaseHandler(f.lg))

		router = chi.NewRouter()
		router.Get("/analytics/spending-trends", handler.GetSpendingTrends)
		router.Get("/analytics/monthly-reports", handler.GetMonthlyReport)
		router.Get("/analytics/year-over-year", handler.GetYearOverYear)
		router.Get("/analytics/budget-vs-actual", handler.GetBudgetVsActual)
	})

	AfterEach(func() {
		f.close()
	})

	get := func(path string, userID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if userID != 0 {
			req = req.WithContext(internal.ContextWithUserID(context.Background(), userID))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("should require an acting user", func() {
		w := get("/analytics/monthly-reports", 0)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should default the monthly report to the current month", func() {
		f.spend(7, "food", "30", on(2024, 3, 2))
		w := get("/analytics/monthly-reports", 7)
		Expect(w.Code).To(Equal(http.StatusOK))

		var body struct {
			Report map[string]interface{} `json:"report"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Report["year"]).To(Equal(2024.0))
		Expect(body.Report["month"]).To(Equal(3.0))
		Expect(body.Report["total_spent"]).To(Equal(30.0))
		Expect(body.Report["month_over_month_change"]).To(Equal(0.0))
	})

	It("should reject an out of range month", func() {
		w := get("/analytics/monthly-reports?year=2024&month=13", 7)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should switch trend shapes by period", func() {
		f.spend(7, "food", "30", on(2024, 3, 14))

		w := get("/analytics/spending-trends?period=daily&days=7", 7)
		Expect(w.Code).To(Equal(http.StatusOK))
		var daily map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &daily)).To(Succeed())
		Expect(daily["days"]).To(Equal(7.0))
		Expect(daily["trends"]).To(HaveLen(1))

		w = get("/analytics/spending-trends", 7)
		Expect(w.Code).To(Equal(http.StatusOK))
		var monthly map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &monthly)).To(Succeed())
		Expect(monthly["period"]).To(Equal("monthly"))
		Expect(monthly["months"]).To(Equal(6.0))
	})

	It("should reject an unknown trend period", func() {
		w := get("/analytics/spending-trends?period=hourly", 7)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should reject a malformed date", func() {
		w := get("/analytics/budget-vs-actual?start_date=03-01-2024&end_date=2024-03-31", 7)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should render the year over year summary", func() {
		w := get("/analytics/year-over-year?current_year=2024", 7)
		Expect(w.Code).To(Equal(http.StatusOK))
		var body struct {
			Comparison []map[string]interface{} `json:"comparison"`
			Summary    map[string]interface{}   `json:"summary"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Comparison).To(HaveLen(12))
		Expect(body.Summary["previous_year"]).To(Equal(2023.0))
	})
})
