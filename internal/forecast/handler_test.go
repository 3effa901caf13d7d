package forecast_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/expense"
	"github.com/frahmantamala/budget-analytics/internal/forecast"
	"github.com/frahmantamala/budget-analytics/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	var (
		rollups *fakeRollups
		router  chi.Router
	)

	BeforeEach(func() {
		rollups = &fakeRollups{}
		now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := forecast.NewService(&fakeExpenses{}, rollups, &fakeBudgets{}, lg, forecast.WithClock(func() time.Time { return now }))
		handler := forecast.NewHandler(svc, transport.NewBaseHandler(lg))

		router = chi.NewRouter()
		router.Get("/insights/predictions", handler.GetAdvancedPredictions)
		router.Get("/insights/patterns", handler.GetSpendingPatterns)
		router.Get("/insights/budget-recommendations", handler.GetBudgetRecommendations)
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
		Expect(get("/insights/patterns", 0).Code).To(Equal(http.StatusUnauthorized))
	})

	It("should default to three predicted months", func() {
		rollups.monthly = []expense.MonthlyTotal{
			month(2024, time.January, 100, 10),
			month(2024, time.February, 150, 10),
		}

		w := get("/insights/predictions", 3)
		Expect(w.Code).To(Equal(http.StatusOK))

		var body forecast.Forecast
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Predictions).To(HaveLen(3))
		Expect(body.ModelInfo).NotTo(BeNil())
	})

	It("should answer 200 with a message below the data gate", func() {
		w := get("/insights/predictions?months=2", 3)
		Expect(w.Code).To(Equal(http.StatusOK))

		var body map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body["message"]).To(Equal("Insufficient data for advanced predictions"))
		Expect(body["confidence"]).To(Equal("low"))
		Expect(body["predictions"]).To(BeEmpty())
	})

	It("should reject a non numeric horizon", func() {
		Expect(get("/insights/predictions?months=soon", 3).Code).To(Equal(http.StatusBadRequest))
	})

	It("should reject a horizon beyond two years", func() {
		Expect(get("/insights/predictions?months=25", 3).Code).To(Equal(http.StatusBadRequest))
	})

	It("should answer the recommendations gate with empty lists", func() {
		w := get("/insights/budget-recommendations", 3)
		Expect(w.Code).To(Equal(http.StatusOK))

		var body map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body["suggested_budgets"]).To(BeEmpty())
		Expect(body).NotTo(HaveKey("analysis"))
	})
})
