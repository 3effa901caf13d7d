package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/budget-analytics/internal"
	userDatamodel "github.com/frahmantamala/budget-analytics/internal/core/datamodel/user"
	"github.com/frahmantamala/budget-analytics/internal/transport"
	"github.com/frahmantamala/budget-analytics/internal/user"
	userPostgres "github.com/frahmantamala/budget-analytics/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type plainHasher struct{}

func (plainHasher) HashPassword(p string) (string, error) { return "hashed:" + p, nil }

var _ = Describe("Service", func() {
	var (
		ctx context.Context
		db  *gorm.DB
		svc *user.Service
		lg  *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		lg = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())
		svc = user.NewService(userPostgres.NewUserRepository(db), plainHasher{}, lg)
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	Describe("Ensure", func() {
		It("should create a user once", func() {
			dto := user.CreateUserDTO{Email: " Demo@Example.com", Name: "Demo User", Password: "password123"}
			u, created, err := svc.Ensure(ctx, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())
			Expect(u.Email).To(Equal("demo@example.com"))
			Expect(u.PasswordHash).To(Equal("hashed:password123"))
			Expect(u.FirstName()).To(Equal("Demo"))

			again, created, err := svc.Ensure(ctx, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
			Expect(again.ID).To(Equal(u.ID))
		})

		It("should reject a short password", func() {
			_, _, err := svc.Ensure(ctx, user.CreateUserDTO{Email: "a@example.com", Name: "A", Password: "short"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FirstField()).To(Equal("password"))
		})
	})

	Describe("NotificationSettings", func() {
		It("should default to email notifications and allow turning them off", func() {
			u, _, err := svc.Ensure(ctx, user.CreateUserDTO{Email: "b@example.com", Name: "B", Password: "password123"})
			Expect(err).NotTo(HaveOccurred())

			settings, err := svc.NotificationSettings(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(settings.EmailNotifications).To(BeTrue())

			off := false
			_, err = svc.UpdateNotificationSettings(ctx, u.ID, user.UpdateNotificationSettingsDTO{EmailNotifications: &off})
			Expect(err).NotTo(HaveOccurred())

			settings, err = svc.NotificationSettings(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(settings.EmailNotifications).To(BeFalse())
		})

		It("should require the flag", func() {
			_, err := svc.UpdateNotificationSettings(ctx, 1, user.UpdateNotificationSettingsDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should report an unknown user as not found", func() {
			_, err := svc.NotificationSettings(ctx, 404)
			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("Handler", func() {
		var router chi.Router

		BeforeEach(func() {
			h := user.NewHandler(svc, transport.NewBaseHandler(lg))
			router = chi.NewRouter()
			router.Get("/users/me", h.GetCurrentUser)
			router.Put("/users/me/notification-settings", h.UpdateNotificationSettings)
		})

		do := func(method, path string, body []byte, userID int64) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, path, bytes.NewReader(body))
			if userID != 0 {
				req = req.WithContext(internal.ContextWithUserID(req.Context(), userID))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		It("should return the acting user without the password hash", func() {
			u, _, err := svc.Ensure(ctx, user.CreateUserDTO{Email: "c@example.com", Name: "C", Password: "password123"})
			Expect(err).NotTo(HaveOccurred())

			w := do(http.MethodGet, "/users/me", nil, u.ID)
			Expect(w.Code).To(Equal(http.StatusOK))
			var body map[string]interface{}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body["email"]).To(Equal("c@example.com"))
			Expect(body).NotTo(HaveKey("password_hash"))
			Expect(body).NotTo(HaveKey("PasswordHash"))
		})

		It("should require an acting user", func() {
			Expect(do(http.MethodGet, "/users/me", nil, 0).Code).To(Equal(http.StatusUnauthorized))
		})

		It("should reject settings without the flag", func() {
			u, _, err := svc.Ensure(ctx, user.CreateUserDTO{Email: "d@example.com", Name: "D", Password: "password123"})
			Expect(err).NotTo(HaveOccurred())
			w := do(http.MethodPut, "/users/me/notification-settings", []byte(`{}`), u.ID)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
