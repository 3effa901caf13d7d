package cmd

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/alert"
	"github.com/frahmantamala/budget-analytics/internal/analytics"
	"github.com/frahmantamala/budget-analytics/internal/auth"
	authPostgres "github.com/frahmantamala/budget-analytics/internal/auth/postgres"
	"github.com/frahmantamala/budget-analytics/internal/budget"
	budgetPostgres "github.com/frahmantamala/budget-analytics/internal/budget/postgres"
	budgetDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/budget"
	expenseDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/expense"
	notificationDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/notification"
	userDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/user"
	"github.com/frahmantamala/budget-analytics/internal/core/events"
	"github.com/frahmantamala/budget-analytics/internal/expense"
	expensePostgres "github.com/frahmantamala/budget-analytics/internal/expense/postgres"
	"github.com/frahmantamala/budget-analytics/internal/forecast"
	"github.com/frahmantamala/budget-analytics/internal/notification"
	"github.com/frahmantamala/budget-analytics/internal/notification/amqp"
	notifPostgres "github.com/frahmantamala/budget-analytics/internal/notification/postgres"
	"github.com/frahmantamala/budget-analytics/internal/user"
	userPostgres "github.com/frahmantamala/budget-analytics/internal/user/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Dependencies is the object graph every command builds from the config.
// Broker is nil unless messaging.amqp_url is set and requested.
type Dependencies struct {
	Config *internal.Config
	Logger *slog.Logger
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Bus    *events.EventBus
	Broker *amqp.Client

	Expenses      expense.RepositoryAPI
	Budgets       *budget.Service
	ExpenseSvc    *expense.Service
	Notifications *notification.Service
	Alerts        *alert.Engine
	Analytics     *analytics.Service
	Forecast      *forecast.Service
	Auth          *auth.Service
	Users         *user.Service
}

func initializeDependencies(cfg *internal.Config, logger *slog.Logger, withBroker bool) (*Dependencies, error) {
	gdb, db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Gorm:   gdb,
		Bus:    events.NewEventBus(logger),
	}

	var notifOpts []notification.Option
	if withBroker && cfg.Messaging.AMQPURL != "" {
		broker, err := amqp.NewClient(cfg.Messaging.AMQPURL, cfg.Messaging.Exchange, cfg.Messaging.Queue, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect to broker: %w", err)
		}
		deps.Broker = broker
		notifOpts = append(notifOpts, notification.WithDispatcher(broker))
	}

	deps.Expenses = expensePostgres.NewExpenseRepository(gdb)
	agg := budget.NewAggregator(deps.Expenses)

	deps.Budgets = budget.NewService(budgetPostgres.NewBudgetRepository(gdb), agg, logger)
	deps.ExpenseSvc = expense.NewService(deps.Expenses, deps.Bus, logger)
	deps.Notifications = notification.NewService(notifPostgres.NewNotificationRepository(gdb), logger, notifOpts...)
	deps.Alerts = alert.NewEngine(deps.Budgets, agg, deps.Notifications, alert.Config{
		Cooldown:      cfg.Alerts.Cooldown,
		DedupExceeded: cfg.Alerts.DedupExceeded,
	}, logger)
	deps.Analytics = analytics.NewService(deps.Expenses, deps.Budgets, agg, logger)
	deps.Forecast = forecast.NewService(deps.Expenses, deps.Analytics, deps.Budgets, logger)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	deps.Auth = auth.NewService(authPostgres.NewRepository(gdb), tokens, logger, auth.WithBCryptCost(cfg.Security.BCryptCost))
	deps.Users = user.NewService(userPostgres.NewUserRepository(gdb), deps.Auth, logger)

	// every writer of expenses feeds the alert engine
	deps.Alerts.RegisterEventHandlers(deps.Bus)

	return deps, nil
}

// Close drains in-flight event handlers before releasing connections.
func (d *Dependencies) Close() {
	d.Bus.Wait()
	if d.Broker != nil {
		if err := d.Broker.Close(); err != nil {
			d.Logger.Error("broker close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

// initDB opens one pool and shares it between sqlx and gorm. The sqlite
// driver creates its schema on open; postgres relies on the migrate command.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	gormCfg := &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Warn)}

	if cfg.Driver == "sqlite" {
		gdb, err := gorm.Open(sqlite.Open(cfg.GetDSN()), gormCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, err
		}
		// each :memory: connection would be its own database
		sqlDB.SetMaxOpenConns(1)
		err = gdb.AutoMigrate(
			&userDatamodel.User{},
			&userDatamodel.RevokedToken{},
			&budgetDatamodel.Budget{},
			&expenseDatamodel.Expense{},
			&notificationDatamodel.Notification{},
		)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to create sqlite schema: %w", err)
		}
		return gdb, sqlx.NewDb(sqlDB, "sqlite3"), nil
	}

	const driver = "pgx"
	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), gormCfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm session: %w", err)
	}
	return gdb, dbConn, nil
}
