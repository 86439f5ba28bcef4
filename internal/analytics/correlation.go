package analytics

import (
	"sort"
)

// CompanyCorrelation is the Pearson correlation of score and return for one
// company.
type CompanyCorrelation struct {
	Company string  `json:"company"`
	R       float64 `json:"r"`
	P       float64 `json:"p"`
	N       int     `json:"n"`
	Verdict Verdict `json:"verdict"`
}

// CorrelationReport lists the per company correlations, r descending.
type CorrelationReport struct {
	MinObservations int                  `json:"min_observations"`
	Companies       []CompanyCorrelation `json:"companies"`
	Positive        int                  `json:"positive"`
	Negative        int                  `json:"negative"`
	Neutral         int                  `json:"neutral"`
	Trend           Verdict              `json:"trend"`
}

// Correlations computes r and p per company over the samples carrying a
// return. Companies with fewer than minObs samples or a constant series are
// left out. r is rounded to three places and p to four.
func Correlations(samples []Sample, minObs int, th Thresholds) *CorrelationReport {
	if minObs <= 0 {
		minObs = DefaultMinObservations
	}

	byCompany := make(map[string][]Sample)
	for _, s := range WithReturns(samples) {
		byCompany[s.Company] = append(byCompany[s.Company], s)
	}

	report := &CorrelationReport{MinObservations: minObs}
	for company, group := range byCompany {
		if len(group) < minObs {
			continue
		}
		r, p, ok := pearson(scoresOf(group), returnsOf(group))
		if !ok {
			continue
		}
		report.Companies = append(report.Companies, CompanyCorrelation{
			Company: company,
			R:       round(r, 3),
			P:       round(p, 4),
			N:       len(group),
			Verdict: th.Classify(r, p),
		})
	}

	sort.Slice(report.Companies, func(i, j int) bool {
		a, b := report.Companies[i], report.Companies[j]
		if a.R != b.R {
			return a.R > b.R
		}
		return a.Company < b.Company
	})

	for _, c := range report.Companies {
		switch {
		case c.R > th.MinAbsR:
			report.Positive++
		case c.R < -th.MinAbsR:
			report.Negative++
		default:
			report.Neutral++
		}
	}
	report.Trend = majority(report.Positive, report.Negative, report.Neutral)
	return report
}

// majority names the strictly largest bucket, VerdictWeak when none is.
func majority(pos, neg, neutral int) Verdict {
	switch {
	case pos > neg && pos > neutral:
		return VerdictPositive
	case neg > pos && neg > neutral:
		return VerdictNegative
	case neutral > pos && neutral > neg:
		return VerdictNone
	default:
		return VerdictWeak
	}
}

// Top returns the n strongest positive correlations.
func (r *CorrelationReport) Top(n int) []CompanyCorrelation {
	if n > len(r.Companies) {
		n = len(r.Companies)
	}
	if n < 0 {
		n = 0
	}
	return append([]CompanyCorrelation(nil), r.Companies[:n]...)
}

// Bottom returns the n strongest negative correlations, most negative first.
func (r *CorrelationReport) Bottom(n int) []CompanyCorrelation {
	if n > len(r.Companies) {
		n = len(r.Companies)
	}
	if n < 0 {
		n = 0
	}
	out := make([]CompanyCorrelation, 0, n)
	for i := len(r.Companies) - 1; i >= len(r.Companies)-n; i-- {
		out = append(out, r.Companies[i])
	}
	return out
}

// InRange returns the correlations with lo <= r <= hi.
func (r *CorrelationReport) InRange(lo, hi float64) []CompanyCorrelation {
	var out []CompanyCorrelation
	for _, c := range r.Companies {
		if c.R >= lo && c.R <= hi {
			out = append(out, c)
		}
	}
	return out
}
