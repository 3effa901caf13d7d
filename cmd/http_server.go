package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/budget-analytics/internal/alert"
	"github.com/frahmantamala/budget-analytics/internal/analytics"
	"github.com/frahmantamala/budget-analytics/internal/auth"
	"github.com/frahmantamala/budget-analytics/internal/budget"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/expense"
	"github.com/frahmantamala/budget-analytics/internal/forecast"
	"github.com/frahmantamala/budget-analytics/internal/notification"
	"github.com/frahmantamala/budget-analytics/internal/transport"
	"github.com/frahmantamala/budget-analytics/internal/transport/middleware"
	"github.com/frahmantamala/budget-analytics/internal/transport/rest"
	"github.com/frahmantamala/budget-analytics/internal/user"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

func startHTTPServer() error {
	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}

	deps, err := initializeDependencies(cfg, lg, true)
	if err != nil {
		return err
	}
	defer deps.Close()

	router, err := setupRoutes(deps)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("starting HTTP server", "address", addr, "env", cfg.Server.Env)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			lg.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	lg.Info("server stopped")
	return nil
}

func setupRoutes(deps *Dependencies) (*chi.Mux, error) {
	cfg := deps.Config
	base := transport.NewBaseHandler(deps.Logger)

	checks := map[string]rest.Check{
		"database": deps.DB.PingContext,
	}
	if deps.Broker != nil {
		checks["amqp"] = deps.Broker.Ping
	}

	opts := rest.Options{AllowedOrigins: cfg.Server.AllowedOrigins}
	if _, err := os.Stat(cfg.Server.OpenAPISpec); err == nil {
		opts.OpenAPISpec = cfg.Server.OpenAPISpec
	} else {
		deps.Logger.Warn("openapi document not found, swagger disabled", "path", cfg.Server.OpenAPISpec)
	}
	if cfg.Server.OpenAPIValidation {
		if opts.OpenAPISpec == "" {
			return nil, fmt.Errorf("openapi validation enabled but %s is missing", cfg.Server.OpenAPISpec)
		}
		validator, err := middleware.OpenAPIValidator(opts.OpenAPISpec, deps.Logger)
		if err != nil {
			return nil, err
		}
		opts.Validator = validator
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Health:       rest.NewHealthHandler(checks),
		Auth:         auth.NewHandler(deps.Auth, base),
		User:         user.NewHandler(deps.Users, base),
		Category:     category.NewHandler(base),
		Expense:      expense.NewHandler(deps.ExpenseSvc, base),
		Budget:       budget.NewHandler(deps.Budgets, base),
		Alert:        alert.NewHandler(deps.Alerts, base),
		Notification: notification.NewHandler(deps.Notifications, base),
		Analytics:    analytics.NewHandler(deps.Analytics, base),
		Forecast:     forecast.NewHandler(deps.Forecast, base),
	}, opts, deps.Logger)
	return router, nil
}
