package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/expense"
	"github.com/frahmantamala/budget-analytics/internal/notification"
	"github.com/frahmantamala/budget-analytics/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const testConfig = `
http_server:
  env: test
  port: 8081
  read_header_timeout: 5s
  read_timeout: 10s
database:
  driver: sqlite
  source: ":memory:"
security:
  access_token_secret: access-secret-for-tests
  refresh_token_secret: refresh-secret-for-tests
  bcrypt_cost: 4
alerts:
  cooldown: 12h
`

func writeConfig(dir, body string) {
	Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600)).To(Succeed())
}

func setenv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

var _ = Describe("loadConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should read the file and apply defaults", func() {
		writeConfig(dir, testConfig)

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(8081))
		Expect(cfg.Database.Driver).To(Equal("sqlite"))
		Expect(cfg.Alerts.Cooldown).To(Equal(12 * time.Hour))
		Expect(cfg.Alerts.SweepWorkers).To(Equal(4))
		Expect(cfg.Security.AccessTokenDuration).To(Equal(15 * time.Minute))
		Expect(cfg.Messaging.Queue).To(Equal("notifications.delivery"))
	})

	It("should let ENV_ variables override the file", func() {
		writeConfig(dir, testConfig)
		setenv("ENV_HTTP_SERVER_PORT", "9090")

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(9090))
	})

	It("should load a .env file next to the config", func() {
		writeConfig(dir, testConfig+"observability:\n  logging:\n    level: info\n")
		Expect(os.WriteFile(filepath.Join(dir, ".env"), []byte("ENV_OBSERVABILITY_LOGGING_LEVEL=warn\n"), 0o600)).To(Succeed())
		DeferCleanup(os.Unsetenv, "ENV_OBSERVABILITY_LOGGING_LEVEL")

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Observability.Logging.Level).To(Equal("warn"))
	})

	It("should reject a config without token secrets", func() {
		writeConfig(dir, "database:\n  driver: sqlite\n  source: \":memory:\"\n")

		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("AccessTokenSecret")))
	})

	It("should fail when config.yml is missing", func() {
		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("error reading config")))
	})
})

var _ = Describe("getIntFlag", func() {
	It("should prefer a positive flag", func() {
		Expect(getIntFlag(8, 4)).To(Equal(8))
		Expect(getIntFlag(0, 4)).To(Equal(4))
		Expect(getIntFlag(-1, 4)).To(Equal(4))
	})
})

var _ = Describe("demo data", func() {
	It("should produce the same schedule for the same day", func() {
		today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		first := demoExpenses(today)
		Expect(first).To(Equal(demoExpenses(today)))

		for _, e := range first {
			Expect(category.IsValid(e.Category)).To(BeTrue())
			Expect(e.Amount.IsPositive()).To(BeTrue())
			Expect(e.Date.After(today)).To(BeFalse())
		}
	})

	It("should budget only known categories", func() {
		for _, b := range demoBudgets() {
			Expect(category.IsValidForBudget(b.Category)).To(BeTrue())
		}
	})
})

var _ = Describe("seed", func() {
	var (
		ctx  context.Context
		deps *Dependencies
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg := &internal.Config{
			Database: internal.DatabaseConfig{Driver: "sqlite", Source: ":memory:"},
			Security: internal.SecurityConfig{
				AccessTokenSecret:  "access-secret-for-tests",
				RefreshTokenSecret: "refresh-secret-for-tests",
				BCryptCost:         4,
			},
		}
		cfg.ApplyDefaults()
		lg := slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelError}))

		var err error
		deps, err = initializeDependencies(cfg, lg, false)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(deps.Close)

		seedEmail, seedName, seedPassword, clearData = "demo@example.com", "Demo User", "password123", false
	})

	It("should create the demo user, budgets and expenses", func() {
		Expect(seed(ctx, deps)).To(Succeed())
		deps.Bus.Wait()

		u, _, err := deps.Users.Ensure(ctx, userDTO())
		Expect(err).NotTo(HaveOccurred())

		budgets, err := deps.Budgets.List(ctx, u.ID, true, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(budgets).To(HaveLen(len(demoBudgets())))

		count, err := deps.Expenses.Count(ctx, expense.ListFilter{UserID: u.ID})
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeEquivalentTo(len(demoExpenses(deps.Budgets.Today()))))

		welcome := notification.TypeWelcome
		inbox, err := deps.Notifications.List(ctx, notification.ListFilter{UserID: u.ID, Type: &welcome})
		Expect(err).NotTo(HaveOccurred())
		Expect(inbox.Notifications).To(HaveLen(1))
	})

	It("should not duplicate data when run twice", func() {
		Expect(seed(ctx, deps)).To(Succeed())
		Expect(seed(ctx, deps)).To(Succeed())
		deps.Bus.Wait()

		u, _, err := deps.Users.Ensure(ctx, userDTO())
		Expect(err).NotTo(HaveOccurred())
		budgets, err := deps.Budgets.List(ctx, u.ID, true, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(budgets).To(HaveLen(len(demoBudgets())))
	})

	It("should reseed after clearing", func() {
		Expect(seed(ctx, deps)).To(Succeed())
		deps.Bus.Wait()

		clearData = true
		Expect(seed(ctx, deps)).To(Succeed())
		deps.Bus.Wait()

		u, _, err := deps.Users.Ensure(ctx, userDTO())
		Expect(err).NotTo(HaveOccurred())
		count, err := deps.Expenses.Count(ctx, expense.ListFilter{UserID: u.ID})
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeEquivalentTo(len(demoExpenses(deps.Budgets.Today()))))
	})
})

func userDTO() user.CreateUserDTO {
	return user.CreateUserDTO{Email: seedEmail, Name: seedName, Password: seedPassword}
}
