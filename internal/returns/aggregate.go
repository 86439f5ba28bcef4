package returns

import (
	"math"

	"esgcli/pkg/contracts/domain"
)

// isFullYear applies both completeness conditions. A year with every month
// present can still fall short on returns, so neither condition implies the
// other.
func (c Config) isFullYear(g CompanyYearGroup) bool {
	return g.MonthsPresent() >= c.MinMonthsPerYear && len(g.Returns) >= c.fullYearMinReturns()
}

// admitsPartial reports whether a non-full year may still get an estimate.
func (c Config) admitsPartial(g CompanyYearGroup) bool {
	return g.MonthsPresent() >= c.partialMinMonths() && len(g.Returns) >= 1
}

// compound returns the product of (1+r).
func compound(rs []float64) float64 {
	factor := 1.0
	for _, r := range rs {
		factor *= 1 + r
	}
	return factor
}

// monthSpan is the number of months between the first and last month present.
func monthSpan(months []MonthKey) int {
	if len(months) == 0 {
		return 0
	}
	return months[len(months)-1].ordinal() - months[0].ordinal()
}

// annualFraction evaluates one group under the configured policy. The policy
// must already be validated.
func (c Config) annualFraction(g CompanyYearGroup) (float64, bool) {
	if c.isFullYear(g) {
		return compound(g.Returns) - 1, true
	}

	switch c.PartialPolicy {
	case PolicyYTDPartial:
		if !c.admitsPartial(g) {
			return 0, false
		}
		return compound(g.Returns) - 1, true

	case PolicyAnnualizeBySpan:
		if !c.admitsPartial(g) {
			return 0, false
		}
		span := monthSpan(g.Months)
		if span <= 0 {
			return 0, false
		}
		monthly := math.Pow(compound(g.Returns), 1/float64(span))
		return math.Pow(monthly, 12) - 1, true

	default:
		return 0, false
	}
}

// evaluate produces the AnnualResult for one group.
func (c Config) evaluate(g CompanyYearGroup) AnnualResult {
	res := AnnualResult{
		Company:         g.Company,
		Year:            g.Year,
		MonthsPresent:   g.MonthsPresent(),
		ReturnCount:     len(g.Returns),
		Full:            c.isFullYear(g),
		AnnualReturnPct: domain.NoReturn(),
	}
	if frac, ok := c.annualFraction(g); ok {
		res.AnnualReturnPct = domain.SomeReturn(frac * 100)
	}
	return res
}

// Aggregate evaluates a single company-year group and returns its annual
// return in percent.
func Aggregate(g CompanyYearGroup, cfg Config) (domain.AnnualReturn, error) {
	if !cfg.PartialPolicy.IsValid() {
		return domain.NoReturn(), &InvalidPolicyError{Policy: string(cfg.PartialPolicy)}
	}
	return cfg.evaluate(g).AnnualReturnPct, nil
}
