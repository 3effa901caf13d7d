package budget_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/budget-analytics/internal"
	"github.com/frahmantamala/budget-analytics/internal/budget"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockBudgetRepository struct {
	budgets   map[int64]*budget.Budget
	nextID    int64
	listError error
	saveError error
}

func newMockBudgetRepository() *mockBudgetRepository {
	return &mockBudgetRepository{budgets: make(map[int64]*budget.Budget), nextID: 1}
}

func (m *mockBudgetRepository) Create(ctx context.Context, b *budget.Budget) error {
	if m.saveError != nil {
		return m.saveError
	}
	b.ID = m.nextID
	m.nextID++
	cp := *b
	m.budgets[b.ID] = &cp
	return nil
}

func (m *mockBudgetRepository) GetByID(ctx context.Context, id int64) (*budget.Budget, error) {
	b, ok := m.budgets[id]
	if !ok {
		return nil, internal.ErrBudgetNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockBudgetRepository) Update(ctx context.Context, b *budget.Budget) error {
	if m.saveError != nil {
		return m.saveError
	}
	cp := *b
	m.budgets[b.ID] = &cp
	return nil
}

func (m *mockBudgetRepository) List(ctx context.Context, f budget.ListFilter) ([]*budget.Budget, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var out []*budget.Budget
	for id := int64(1); id < m.nextID; id++ {
		b, ok := m.budgets[id]
		if !ok {
			continue
		}
		if f.UserID != 0 && b.UserID != f.UserID {
			continue
		}
		if f.ActiveOnly && !b.IsActive {
			continue
		}
		if f.Category != nil && b.Category != *f.Category {
			continue
		}
		if f.Covering != nil && !b.Window().Contains(*f.Covering) {
			continue
		}
		if f.Overlapping != nil && !b.Window().Intersects(*f.Overlapping) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

var _ = Describe("Service", func() {
	var (
		ctx     context.Context
		repo    *mockBudgetRepository
		summer  *fakeSummer
		service *budget.Service
		now     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockBudgetRepository()
		summer = &fakeSummer{}
		now = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = budget.NewService(repo, budget.NewAggregator(summer), lg, budget.WithClock(func() time.Time { return now }))
	})

	createFood := func(amount string) *budget.BudgetView {
		v, err := service.Create(ctx, 7, budget.CreateBudgetDTO{Category: "food", Amount: dec(amount)})
		Expect(err).NotTo(HaveOccurred())
		return v
	}

	It("should create a budget and render its view", func() {
		summer.add(7, "food", day(2024, 3, 2), "85")
		v := createFood("100")

		Expect(v.ID).To(Equal(int64(1)))
		Expect(v.CategoryDisplay).To(Equal("🍕 Food & Dining"))
		Expect(v.Period).To(Equal("monthly"))
		Expect(v.StartDate.String()).To(Equal("2024-03-01"))
		Expect(v.EndDate.String()).To(Equal("2024-03-31"))
		Expect(v.Spent).To(Equal(85.0))
		Expect(v.Remaining).To(Equal(15.0))
		Expect(v.PercentageUsed).To(Equal(85.0))
		Expect(v.DaysRemaining).To(Equal(17))
		Expect(v.ShouldAlert).To(BeTrue())
		Expect(v.IsOverBudget).To(BeFalse())
	})

	It("should hide budgets of other users as not found", func() {
		v := createFood("100")
		_, err := service.Get(ctx, 8, v.ID)
		Expect(errors.Is(err, internal.ErrBudgetNotFound)).To(BeTrue())

		_, err = service.Get(ctx, 7, 999)
		Expect(errors.Is(err, internal.ErrBudgetNotFound)).To(BeTrue())
	})

	It("should not persist a rejected update", func() {
		v := createFood("100")
		_, err := service.Update(ctx, 7, v.ID, budget.UpdateBudgetDTO{Amount: ptr(dec("0"))})
		Expect(err).To(HaveOccurred())

		stored, _ := repo.GetByID(ctx, v.ID)
		Expect(stored.Amount.Equal(dec("100"))).To(BeTrue())
	})

	It("should soft delete by deactivating", func() {
		v := createFood("100")
		Expect(service.Deactivate(ctx, 7, v.ID)).To(Succeed())

		stored, _ := repo.GetByID(ctx, v.ID)
		Expect(stored.IsActive).To(BeFalse())

		active, err := service.List(ctx, 7, true, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(active).To(BeEmpty())
	})

	It("should list only budgets needing alerts", func() {
		createFood("100")
		_, err := service.Create(ctx, 7, budget.CreateBudgetDTO{Category: "bills", Amount: dec("100")})
		Expect(err).NotTo(HaveOccurred())
		summer.add(7, "food", day(2024, 3, 3), "90")
		summer.add(7, "bills", day(2024, 3, 3), "10")

		alerting, err := service.BudgetsNeedingAlerts(ctx, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(alerting).To(HaveLen(1))
		Expect(alerting[0].Category).To(Equal("food"))
	})

	It("should only treat budgets covering today as active", func() {
		createFood("100")
		now = time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
		active, err := service.ActiveBudgets(ctx, 7, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(active).To(BeEmpty())

		march := day(2024, 3, 20)
		active, err = service.ActiveBudgets(ctx, 7, ptr("FOOD"), &march)
		Expect(err).NotTo(HaveOccurred())
		Expect(active).To(HaveLen(1))
	})

	DescribeTable("scores performance",
		func(spent string, status string, score float64) {
			v := createFood("100")
			summer.add(7, "food", day(2024, 3, 1), spent)
			p, err := service.Performance(ctx, 7, v.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Status).To(Equal(status))
			Expect(p.PerformanceScore).To(BeNumerically("~", score, 0.001))
			Expect(p.TotalDays).To(Equal(31))
			Expect(p.DaysElapsed).To(Equal(15))
		},
		Entry("excellent", "20", budget.StatusExcellent, 80.0),
		Entry("good", "60", budget.StatusGood, 40.0),
		Entry("warning", "80", budget.StatusWarning, 20.0),
		Entry("critical", "95", budget.StatusCritical, 5.0),
		Entry("over budget", "101", budget.StatusOverBudget, 0.0),
	)

	It("should wrap store failures as dependency errors", func() {
		repo.listError = errors.New("db down")
		_, err := service.List(ctx, 7, false, nil)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(503))
	})
})
