package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/budget-analytics/internal/alert"
	"github.com/frahmantamala/budget-analytics/internal/analytics"
	"github.com/frahmantamala/budget-analytics/internal/auth"
	"github.com/frahmantamala/budget-analytics/internal/budget"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/expense"
	"github.com/frahmantamala/budget-analytics/internal/forecast"
	"github.com/frahmantamala/budget-analytics/internal/notification"
	"github.com/frahmantamala/budget-analytics/internal/transport/middleware"
	"github.com/frahmantamala/budget-analytics/internal/transport/swagger"
	"github.com/frahmantamala/budget-analytics/internal/user"
	"github.com/go-chi/chi"
)

// Handlers groups every HTTP handler mounted under /api/v1. Nil handlers
// are skipped.
type Handlers struct {
	Health       *HealthHandler
	Auth         *auth.Handler
	User         *user.Handler
	Category     *category.Handler
	Expense      *expense.Handler
	Budget       *budget.Handler
	Alert        *alert.Handler
	Notification *notification.Handler
	Analytics    *analytics.Handler
	Forecast     *forecast.Handler
}

type Options struct {
	AllowedOrigins string
	OpenAPISpec    string
	// Validator, when set, checks requests against the OpenAPI contract.
	Validator func(http.Handler) http.Handler
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware)

	if opts.OpenAPISpec != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.OpenAPISpec)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if opts.Validator != nil {
			r.Use(opts.Validator)
		}

		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Category != nil {
			r.Get("/categories", h.Category.GetCategories)
		}

		if h.Auth == nil {
			logger.Warn("no auth handler configured; protected routes are not mounted")
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			mountProtected(pr, h)
		})
	})
}

func mountProtected(r chi.Router, h Handlers) {
	if h.User != nil {
		r.Get("/users/me", h.User.GetCurrentUser)
		r.Get("/users/me/notification-settings", h.User.GetNotificationSettings)
		r.Put("/users/me/notification-settings", h.User.UpdateNotificationSettings)
	}

	if h.Expense != nil {
		r.Route("/expenses", func(er chi.Router) {
			er.Post("/", h.Expense.CreateExpense)
			er.Get("/", h.Expense.ListExpenses)
			er.Post("/bulk", h.Expense.CreateBulkExpenses)
			er.Get("/summary", h.Expense.GetExpenseSummary)
			er.Get("/{id}", h.Expense.GetExpense)
			er.Put("/{id}", h.Expense.UpdateExpense)
			er.Delete("/{id}", h.Expense.DeleteExpense)
		})
	}

	if h.Budget != nil {
		r.Route("/budgets", func(br chi.Router) {
			br.Post("/", h.Budget.CreateBudget)
			br.Get("/", h.Budget.ListBudgets)
			br.Get("/alerts", h.Budget.GetBudgetAlerts)
			br.Get("/performance-history", h.Budget.GetPerformanceHistory)
			br.Get("/{id}", h.Budget.GetBudget)
			br.Put("/{id}", h.Budget.UpdateBudget)
			br.Delete("/{id}", h.Budget.DeleteBudget)
			br.Get("/{id}/performance", h.Budget.GetBudgetPerformance)
		})
	}

	r.Route("/notifications", func(nr chi.Router) {
		if h.Notification != nil {
			nr.Get("/", h.Notification.ListNotifications)
			nr.Get("/unread", h.Notification.ListUnread)
			nr.Post("/{id}/read", h.Notification.MarkRead)
			nr.Post("/mark-all-read", h.Notification.MarkAllRead)
		}
		if h.Alert != nil {
			nr.Post("/budget-alerts", h.Alert.CheckBudgetAlert)
		}
		if h.Analytics != nil {
			nr.Get("/spending-warnings", h.Analytics.GetSpendingWarnings)
		}
	})

	if h.Analytics != nil {
		r.Route("/analytics", func(ar chi.Router) {
			ar.Get("/spending-trends", h.Analytics.GetSpendingTrends)
			ar.Get("/category-insights", h.Analytics.GetCategoryInsights)
			ar.Get("/monthly-reports", h.Analytics.GetMonthlyReport)
			ar.Get("/year-over-year", h.Analytics.GetYearOverYear)
			ar.Get("/budget-vs-actual", h.Analytics.GetBudgetVsActual)
		})
	}

	if h.Forecast != nil {
		r.Route("/insights", func(ir chi.Router) {
			ir.Get("/spending-patterns", h.Forecast.GetSpendingPatterns)
			ir.Get("/budget-recommendations", h.Forecast.GetBudgetRecommendations)
			ir.Get("/forecasting/advanced-predictions", h.Forecast.GetAdvancedPredictions)
		})
	}
}
