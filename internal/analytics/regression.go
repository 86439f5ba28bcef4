package analytics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Fit is a least squares line of return on governance score.
type Fit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R         float64 `json:"r"`
	P         float64 `json:"p"`
	StdErr    float64 `json:"std_err"`
	N         int     `json:"n"`
}

// RegressionReport is the outcome of Regress.
type RegressionReport struct {
	Clip    ClipMode `json:"clip"`
	Fit     Fit      `json:"fit"`
	Returns Describe `json:"returns"`
	Verdict Verdict  `json:"verdict"`
}

// GroupFit is a per company or per sector regression.
type GroupFit struct {
	Group string  `json:"group"`
	R     float64 `json:"r"`
	Slope float64 `json:"slope"`
	P     float64 `json:"p"`
	N     int     `json:"n"`
}

// Clip removes samples whose return falls outside the bounds of mode.
func Clip(samples []Sample, mode ClipMode) []Sample {
	samples = WithReturns(samples)
	var lo, hi float64
	switch mode {
	case ClipHard:
		lo, hi = -100, 100
	case ClipQuantile:
		if len(samples) == 0 {
			return samples
		}
		sorted := sortedCopy(returnsOf(samples))
		lo, hi = quantile(sorted, 0.01), quantile(sorted, 0.99)
	default:
		return samples
	}

	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		pct, _ := s.Return.Pct()
		if pct >= lo && pct <= hi {
			out = append(out, s)
		}
	}
	return out
}

// fitLine regresses y on x. It needs two points and a non-constant x.
func fitLine(x, y []float64) (Fit, error) {
	n := len(x)
	if n < 2 {
		return Fit{}, fmt.Errorf("regression needs at least two points: %w", ErrInsufficientData)
	}
	xMean, xStd := stat.MeanStdDev(x, nil)
	if xStd == 0 {
		return Fit{}, fmt.Errorf("regression needs varying scores: %w", ErrInsufficientData)
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	fit := Fit{Slope: slope, Intercept: intercept, N: n}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		// Constant returns lie exactly on a flat line.
		r = 0
	}
	fit.R = math.Max(-1, math.Min(1, r))

	if n == 2 {
		// Two points fit exactly.
		fit.P = 0
		if y[0] == y[1] {
			fit.P = 1
		}
		return fit, nil
	}

	var ssRes, ssX float64
	for i := range x {
		resid := y[i] - (intercept + slope*x[i])
		ssRes += resid * resid
		dx := x[i] - xMean
		ssX += dx * dx
	}
	df := float64(n - 2)
	fit.StdErr = math.Sqrt(ssRes/df) / math.Sqrt(ssX)
	if fit.StdErr == 0 {
		fit.P = 0
		if slope == 0 {
			fit.P = 1
		}
		return fit, nil
	}
	fit.P = twoSidedP(slope/fit.StdErr, df)
	return fit, nil
}

// Regress fits the global line of annual return on governance score after
// clipping, and classifies it with th.
func Regress(samples []Sample, mode ClipMode, th Thresholds) (*RegressionReport, error) {
	clipped := Clip(samples, mode)
	fit, err := fitLine(scoresOf(clipped), returnsOf(clipped))
	if err != nil {
		return nil, fmt.Errorf("global regression: %w", err)
	}
	return &RegressionReport{
		Clip:    mode,
		Fit:     fit,
		Returns: describe(returnsOf(clipped)),
		Verdict: regressionVerdict(fit, th),
	}, nil
}

// regressionVerdict has no weak class: a significant but small r is none.
func regressionVerdict(fit Fit, th Thresholds) Verdict {
	if v := th.Classify(fit.R, fit.P); v != VerdictWeak {
		return v
	}
	return VerdictNone
}

// GroupRegressions fits one line per company or sector after clipping. Groups
// that cannot be fitted are skipped. Results are ordered by group name.
func GroupRegressions(samples []Sample, by GroupBy, mode ClipMode) []GroupFit {
	groups := make(map[string][]Sample)
	for _, s := range Clip(samples, mode) {
		key := s.Company
		if by == GroupBySector {
			key = s.Sector
		}
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], s)
	}

	out := make([]GroupFit, 0, len(groups))
	for key, group := range groups {
		fit, err := fitLine(scoresOf(group), returnsOf(group))
		if err != nil {
			continue
		}
		out = append(out, GroupFit{
			Group: key,
			R:     round(fit.R, 3),
			Slope: round(fit.Slope, 4),
			P:     fit.P,
			N:     fit.N,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}
