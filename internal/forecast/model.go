package forecast

import "math"

const (
	ModelLinear     = "linear"
	ModelPolynomial = "polynomial"

	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"

	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// slopes closer to zero than this read as flat
const stableSlope = 1e-9

const scoreEpsilon = 1e-9

// candidates is the closed set of trend models tried against a series.
// A later candidate must beat the incumbent by more than scoreEpsilon.
var candidates = []struct {
	name   string
	degree int
}{
	{ModelLinear, 1},
	{ModelPolynomial, 2},
}

// Model is a least squares polynomial in the month index, lowest power
// first, scored by R² over the series it was fitted to.
type Model struct {
	Name  string
	Coef  []float64
	Score float64
}

func (m Model) Predict(x float64) float64 {
	y, p := 0.0, 1.0
	for _, c := range m.Coef {
		y += c * p
		p *= x
	}
	return y
}

// Slope is the first order coefficient.
func (m Model) Slope() float64 {
	if len(m.Coef) < 2 {
		return 0
	}
	return m.Coef[1]
}

func (m Model) Trend() string {
	return TrendOf(m.Slope())
}

func TrendOf(slope float64) string {
	switch {
	case slope > stableSlope:
		return TrendIncreasing
	case slope < -stableSlope:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// Confidence buckets a fit score.
func Confidence(score float64) string {
	switch {
	case score > 0.7:
		return ConfidenceHigh
	case score > 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// SelectModel fits every candidate against ys (x = 0..len-1) and keeps the
// best scoring one.
func SelectModel(ys []float64) Model {
	var best Model
	for i, c := range candidates {
		m := Fit(c.name, c.degree, ys)
		if i == 0 || m.Score > best.Score+scoreEpsilon {
			best = m
		}
	}
	return best
}

// Fit solves the normal equations for a polynomial of the given degree.
// Short series drop to the highest degree they can determine; the missing
// coefficients stay zero.
func Fit(name string, degree int, ys []float64) Model {
	m := Model{Name: name, Coef: make([]float64, degree+1)}
	if len(ys) == 0 {
		return m
	}

	d := degree
	if d > len(ys)-1 {
		d = len(ys) - 1
	}
	for ; d >= 0; d-- {
		if coef, ok := leastSquares(ys, d); ok {
			copy(m.Coef, coef)
			break
		}
	}
	m.Score = rSquared(ys, m)
	return m
}

func leastSquares(ys []float64, degree int) ([]float64, bool) {
	n := degree + 1
	// powers[k] = sum of x^k over the series
	powers := make([]float64, 2*n-1)
	rhs := make([]float64, n)
	for i, y := range ys {
		x, p := float64(i), 1.0
		for k := range powers {
			powers[k] += p
			if k < n {
				rhs[k] += p * y
			}
			p *= x
		}
	}

	a := make([][]float64, n)
	for r := range a {
		a[r] = make([]float64, n+1)
		for c := 0; c < n; c++ {
			a[r][c] = powers[r+c]
		}
		a[r][n] = rhs[r]
	}
	return solve(a)
}

// solve runs Gaussian elimination with partial pivoting over an augmented
// matrix.
func solve(a [][]float64) ([]float64, bool) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= n; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := a[r][n]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, true
}

// rSquared is 1 - SSres/SStot. A flat series scores 1 when it is
// reproduced exactly and 0 otherwise.
func rSquared(ys []float64, m Model) float64 {
	mean := 0.0
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))

	var ssRes, ssTot float64
	for i, y := range ys {
		e := y - m.Predict(float64(i))
		ssRes += e * e
		ssTot += (y - mean) * (y - mean)
	}
	if ssTot == 0 {
		if ssRes < 1e-9 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
