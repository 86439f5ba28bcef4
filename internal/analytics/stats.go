package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// quantile returns the q-quantile of sorted data, interpolating linearly
// between closest ranks at position (n-1)*q.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func sortedCopy(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}

func median(xs []float64) float64 {
	return quantile(sortedCopy(xs), 0.5)
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Describe holds descriptive statistics of a series.
type Describe struct {
	Mean   float64  `json:"mean"`
	Median float64  `json:"median"`
	Std    *float64 `json:"std"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	N      int      `json:"n"`
}

// describe rounds to two places. Std is nil below two observations.
func describe(xs []float64) Describe {
	if len(xs) == 0 {
		return Describe{}
	}
	d := Describe{
		Mean:   round(stat.Mean(xs, nil), 2),
		Median: round(median(xs), 2),
		Min:    round(floats.Min(xs), 2),
		Max:    round(floats.Max(xs), 2),
		N:      len(xs),
	}
	if len(xs) > 1 {
		std := round(stat.StdDev(xs, nil), 2)
		d.Std = &std
	}
	return d
}

// pearson returns r and its two-sided p-value under the null of no
// correlation. ok is false when either series is constant.
func pearson(x, y []float64) (r, p float64, ok bool) {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0, 0, false
	}
	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, 0, false
	}
	r = math.Max(-1, math.Min(1, r))
	return r, correlationPValue(r, n), true
}

// correlationPValue tests r with a Student t statistic on n-2 degrees of
// freedom.
func correlationPValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	return twoSidedP(t, df)
}

func twoSidedP(t, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return math.Min(1, math.Max(0, p))
}
