package notification_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/notification"
	"github.com/frahmantamala/budget-analytics/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	lastFilter notification.ListFilter
	marked     int64
	err        error
}

func (s *stubService) List(_ context.Context, f notification.ListFilter) (*notification.ListResponse, error) {
	s.lastFilter = f
	if s.err != nil {
		return nil, s.err
	}
	return &notification.ListResponse{
		Notifications: []notification.NotificationView{},
		Pagination:    notification.Pagination{Limit: f.Limit, Offset: f.Offset},
	}, nil
}

func (s *stubService) ListUnread(context.Context, int64) ([]notification.NotificationView, error) {
	return []notification.NotificationView{{ID: 1}, {ID: 2}}, s.err
}

func (s *stubService) MarkRead(_ context.Context, _ int64, id int64) (*notification.NotificationView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &notification.NotificationView{ID: id, IsRead: true}, nil
}

func (s *stubService) MarkAllRead(context.Context, int64) (int64, error) {
	return s.marked, s.err
}

var _ = Describe("Handler", func() {
	var (
		svc    *stubService
		router *chi.Mux
	)

	BeforeEach(func() {
		svc = &stubService{}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		h := notification.NewHandler(svc, transport.NewBaseHandler(lg))
		router = chi.NewRouter()
		router.Get("/notifications", h.ListNotifications)
		router.Get("/notifications/unread", h.ListUnread)
		router.Post("/notifications/{id}/read", h.MarkRead)
		router.Post("/notifications/mark-all-read", h.MarkAllRead)
	})

	serve := func(method, target string, userID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		if userID > 0 {
			req = req.WithContext(internal.ContextWithUserID(req.Context(), userID))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	errorCode := func(w *httptest.ResponseRecorder) string {
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		return body.Error.Code
	}

	It("should reject anonymous requests", func() {
		Expect(serve(http.MethodGet, "/notifications", 0).Code).To(Equal(http.StatusUnauthorized))
	})

	It("should pass type, unread and pagination filters through", func() {
		w := serve(http.MethodGet, "/notifications?type=budget_alert&unread_only=true&limit=10&offset=20", 7)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.lastFilter.UserID).To(Equal(int64(7)))
		Expect(*svc.lastFilter.Type).To(Equal(notification.TypeBudgetAlert))
		Expect(svc.lastFilter.UnreadOnly).To(BeTrue())
		Expect(svc.lastFilter.Limit).To(Equal(10))
		Expect(svc.lastFilter.Offset).To(Equal(20))
	})

	It("should reject an unknown notification type", func() {
		w := serve(http.MethodGet, "/notifications?type=mystery", 7)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(w)).To(Equal(string(internal.ErrCodeInvalidQuery)))
	})

	It("should count unread notifications", func() {
		w := serve(http.MethodGet, "/notifications/unread", 7)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"count":2`))
	})

	It("should report a missing notification as not found", func() {
		svc.err = internal.ErrNotificationNotFound
		w := serve(http.MethodPost, "/notifications/9/read", 7)
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(errorCode(w)).To(Equal(string(internal.ErrCodeNotificationNotFound)))
	})

	It("should reject a malformed id", func() {
		Expect(serve(http.MethodPost, "/notifications/abc/read", 7).Code).To(Equal(http.StatusBadRequest))
	})

	It("should return the number marked read", func() {
		svc.marked = 3
		w := serve(http.MethodPost, "/notifications/mark-all-read", 7)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"count":3`))
	})
})
