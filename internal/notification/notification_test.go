package notification_test

import (
	"time"

	"github.com/frahmantamala/budget-analytics/internal/budget"
	"github.com/frahmantamala/budget-analytics/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Notification", func() {
	var (
		b     *budget.Budget
		today time.Time
	)

	BeforeEach(func() {
		today = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		b = &budget.Budget{
			ID:             42,
			UserID:         7,
			Category:       "food",
			Amount:         decimal.NewFromInt(100),
			Period:         budget.PeriodMonthly,
			StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			IsActive:       true,
			AlertThreshold: 80,
		}
	})

	Describe("NewBudgetAlert", func() {
		It("should describe the usage and carry a per-day dedup key", func() {
			u := b.UsageFor(decimal.RequireFromString("85"), today)
			n := notification.NewBudgetAlert(b, u, today.Add(13*time.Hour))

			Expect(n.Type).To(Equal(notification.TypeBudgetAlert))
			Expect(n.Priority).To(Equal(notification.PriorityMedium))
			Expect(n.UserID).To(Equal(int64(7)))
			Expect(n.Title).To(Equal("Budget Alert: 🍕 Food & Dining"))
			Expect(n.Message).To(Equal("You've used 85.0% of your monthly budget for 🍕 Food & Dining. Budget: $100.00, Spent: $85.00"))
			Expect(n.Data).To(HaveKeyWithValue("budget_id", int64(42)))
			Expect(n.Data).To(HaveKeyWithValue("percentage_used", 85.0))
			Expect(n.Data).To(HaveKeyWithValue("amount_spent", 85.0))
			Expect(n.Data).To(HaveKeyWithValue("budget_amount", 100.0))
			Expect(*n.BudgetID).To(Equal(int64(42)))
			Expect(*n.DedupKey).To(Equal("budget_alert:42:2024-03-15"))
		})
	})

	Describe("NewBudgetExceeded", func() {
		It("should report the over amount with high priority and no dedup key", func() {
			u := b.UsageFor(decimal.RequireFromString("120.50"), today)
			n := notification.NewBudgetExceeded(b, u)

			Expect(n.Type).To(Equal(notification.TypeBudgetExceeded))
			Expect(n.Priority).To(Equal(notification.PriorityHigh))
			Expect(n.Title).To(Equal("Budget Exceeded: 🍕 Food & Dining"))
			Expect(n.Message).To(ContainSubstring("by $20.50"))
			Expect(n.Data).To(HaveKeyWithValue("over_amount", 20.5))
			Expect(n.DedupKey).To(BeNil())
		})
	})

	It("should build the welcome notification", func() {
		n := notification.NewWelcome(7, "Ana")
		Expect(n.Title).To(Equal("Welcome to FinanceTracker, Ana!"))
		Expect(n.Priority).To(Equal(notification.PriorityLow))
		Expect(n.Data).To(HaveKeyWithValue("is_welcome", true))
	})

	It("should build the monthly report notification", func() {
		n := notification.NewMonthlyReport(7, 2024, time.February, decimal.RequireFromString("1234.5"), "food")
		Expect(n.Title).To(Equal("Monthly Report: February 2024"))
		Expect(n.Message).To(Equal("Your spending summary for February: Total spent $1234.50. Top category: food"))
	})

	It("should fall back to the raw type for unknown display names", func() {
		Expect(notification.TypeDisplay(notification.TypeUnusualSpending)).To(Equal("Unusual Spending Pattern"))
		Expect(notification.TypeDisplay("mystery")).To(Equal("mystery"))
	})

	DescribeTable("TimeAgo",
		func(age time.Duration, expected string) {
			now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
			Expect(notification.TimeAgo(now.Add(-age), now)).To(Equal(expected))
		},
		Entry("just now", 30*time.Second, "Just now"),
		Entry("one minute", 90*time.Second, "1 minute ago"),
		Entry("minutes", 45*time.Minute, "45 minutes ago"),
		Entry("one hour", time.Hour, "1 hour ago"),
		Entry("hours", 23*time.Hour, "23 hours ago"),
		Entry("one day", 24*time.Hour, "1 day ago"),
		Entry("days", 6*24*time.Hour, "6 days ago"),
		Entry("weeks", 15*24*time.Hour, "2 weeks ago"),
		Entry("months", 95*24*time.Hour, "3 months ago"),
		Entry("one year", 400*24*time.Hour, "1 year ago"),
	)

	It("should report expiry relative to now", func() {
		now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
		past := now.Add(-time.Minute)
		n := &notification.Notification{ExpiresAt: &past}
		Expect(n.IsExpired(now)).To(BeTrue())
		Expect((&notification.Notification{}).IsExpired(now)).To(BeFalse())
	})
})
