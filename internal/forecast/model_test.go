package forecast_test

import (
	"github.com/frahmantamala/budget-analytics/internal/forecast"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Model", func() {
	It("should fit a straight line exactly", func() {
		m := forecast.Fit(forecast.ModelLinear, 1, []float64{10, 20, 30, 40})
		Expect(m.Slope()).To(BeNumerically("~", 10, 1e-9))
		Expect(m.Predict(4)).To(BeNumerically("~", 50, 1e-9))
		Expect(m.Score).To(BeNumerically("~", 1, 1e-9))
		Expect(m.Trend()).To(Equal(forecast.TrendIncreasing))
	})

	It("should keep the linear model when the quadratic is no better", func() {
		m := forecast.SelectModel([]float64{10, 20, 30, 40})
		Expect(m.Name).To(Equal(forecast.ModelLinear))
	})

	It("should pick the quadratic model for curved data", func() {
		ys := []float64{0, 1, 4, 9, 16}
		linear := forecast.Fit(forecast.ModelLinear, 1, ys)
		m := forecast.SelectModel(ys)

		Expect(m.Name).To(Equal(forecast.ModelPolynomial))
		Expect(m.Score).To(BeNumerically("~", 1, 1e-9))
		Expect(linear.Score).To(BeNumerically("<", m.Score))
		Expect(m.Predict(5)).To(BeNumerically("~", 25, 1e-6))
	})

	It("should score a flat series as a perfect stable fit", func() {
		m := forecast.Fit(forecast.ModelLinear, 1, []float64{5, 5, 5})
		Expect(m.Score).To(Equal(1.0))
		Expect(m.Trend()).To(Equal(forecast.TrendStable))
	})

	It("should fall back to a constant for a single month", func() {
		m := forecast.Fit(forecast.ModelPolynomial, 2, []float64{7})
		Expect(m.Coef).To(HaveLen(3))
		Expect(m.Predict(3)).To(BeNumerically("~", 7, 1e-9))
	})

	It("should fit a line through two months with the quadratic candidate", func() {
		m := forecast.Fit(forecast.ModelPolynomial, 2, []float64{100, 50})
		Expect(m.Predict(2)).To(BeNumerically("~", 0, 1e-9))
		Expect(m.Trend()).To(Equal(forecast.TrendDecreasing))
	})

	DescribeTable("confidence buckets",
		func(score float64, want string) {
			Expect(forecast.Confidence(score)).To(Equal(want))
		},
		Entry("above 0.7", 0.71, forecast.ConfidenceHigh),
		Entry("exactly 0.7", 0.7, forecast.ConfidenceMedium),
		Entry("above 0.4", 0.41, forecast.ConfidenceMedium),
		Entry("exactly 0.4", 0.4, forecast.ConfidenceLow),
		Entry("negative", -0.5, forecast.ConfidenceLow),
	)
})
