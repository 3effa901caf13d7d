package budget_test

import (
	"time"

	"github.com/frahmantamala/budget-analytics/internal/budget"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("Period calculator", func() {
	DescribeTable("derives windows from the anchor",
		func(period string, anchor, start, end time.Time) {
			w := budget.PeriodWindow(period, anchor)
			Expect(w.Start).To(Equal(start))
			Expect(w.End).To(Equal(end))
		},
		Entry("monthly mid-month", budget.PeriodMonthly, day(2024, 3, 15), day(2024, 3, 1), day(2024, 3, 31)),
		Entry("monthly in a leap February", budget.PeriodMonthly, day(2024, 2, 10), day(2024, 2, 1), day(2024, 2, 29)),
		Entry("monthly December rolls the year", budget.PeriodMonthly, day(2023, 12, 31), day(2023, 12, 1), day(2023, 12, 31)),
		Entry("yearly", budget.PeriodYearly, day(2024, 7, 4), day(2024, 1, 1), day(2024, 12, 31)),
		Entry("weekly from a Wednesday", budget.PeriodWeekly, day(2024, 3, 13), day(2024, 3, 11), day(2024, 3, 17)),
		Entry("weekly from a Sunday", budget.PeriodWeekly, day(2024, 3, 17), day(2024, 3, 11), day(2024, 3, 17)),
		Entry("weekly from a Monday", budget.PeriodWeekly, day(2024, 3, 11), day(2024, 3, 11), day(2024, 3, 17)),
		Entry("custom falls back to monthly", budget.PeriodCustom, day(2024, 4, 20), day(2024, 4, 1), day(2024, 4, 30)),
		Entry("unknown falls back to monthly", "fortnightly", day(2024, 4, 20), day(2024, 4, 1), day(2024, 4, 30)),
	)

	It("should keep start on or before end for every period across a year of anchors", func() {
		anchor := day(2023, 12, 25)
		for i := 0; i < 400; i++ {
			for _, p := range budget.Periods {
				w := budget.PeriodWindow(p, anchor)
				Expect(w.Start.After(w.End)).To(BeFalse())
				Expect(w.Contains(anchor)).To(BeTrue())
				if p == budget.PeriodMonthly || p == budget.PeriodCustom {
					Expect(w.Start.Day()).To(Equal(1))
					Expect(w.End.AddDate(0, 0, 1).Day()).To(Equal(1))
				}
			}
			anchor = anchor.AddDate(0, 0, 1)
		}
	})

	It("should ignore the time of day and zone of the anchor", func() {
		loc := time.FixedZone("UTC+7", 7*3600)
		w := budget.PeriodWindow(budget.PeriodMonthly, time.Date(2024, 5, 31, 23, 30, 0, 0, loc))
		Expect(w.Start).To(Equal(day(2024, 5, 1)))
		Expect(w.End).To(Equal(day(2024, 5, 31)))
	})

	It("should prefer explicit dates only when both are given", func() {
		start, end := day(2024, 1, 10), day(2024, 2, 9)
		w := budget.ResolveWindow(budget.PeriodWeekly, day(2024, 6, 1), &start, &end)
		Expect(w).To(Equal(budget.Window{Start: start, End: end}))

		w = budget.ResolveWindow(budget.PeriodMonthly, day(2024, 6, 1), &start, nil)
		Expect(w).To(Equal(budget.Window{Start: day(2024, 6, 1), End: day(2024, 6, 30)}))
	})

	It("should compute month windows and intersections", func() {
		feb := budget.MonthWindow(2023, time.February)
		Expect(feb.Days()).To(Equal(28))
		Expect(feb.Intersects(budget.Window{Start: day(2023, 2, 28), End: day(2023, 3, 5)})).To(BeTrue())
		Expect(feb.Intersects(budget.Window{Start: day(2023, 3, 1), End: day(2023, 3, 5)})).To(BeFalse())
	})
})
