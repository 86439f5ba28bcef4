package analytics

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// minSeriesObservations is the sample count below which no series
// correlation is reported.
const minSeriesObservations = 3

// SeriesPoint is the mean score and mean return of one year.
type SeriesPoint struct {
	Year      int     `json:"year"`
	Score     float64 `json:"score"`
	ReturnPct float64 `json:"return_pct"`
	N         int     `json:"n"`
}

// SeriesCorrelation relates score and return across a company's samples.
type SeriesCorrelation struct {
	R       float64 `json:"r"`
	P       float64 `json:"p"`
	N       int     `json:"n"`
	Verdict Verdict `json:"verdict"`
}

// CompanySeries is the yearly development of one company.
type CompanySeries struct {
	Company     string             `json:"company"`
	Points      []SeriesPoint      `json:"points"`
	Correlation *SeriesCorrelation `json:"correlation"`
}

// SectorTrend is the yearly development of one sector.
type SectorTrend struct {
	Sector string        `json:"sector"`
	Points []SeriesPoint `json:"points"`
}

// yearly averages score and return per year, ascending.
func yearly(samples []Sample) []SeriesPoint {
	byYear := make(map[int][]Sample)
	for _, s := range samples {
		byYear[s.Year] = append(byYear[s.Year], s)
	}
	points := make([]SeriesPoint, 0, len(byYear))
	for year, group := range byYear {
		points = append(points, SeriesPoint{
			Year:      year,
			Score:     stat.Mean(scoresOf(group), nil),
			ReturnPct: stat.Mean(returnsOf(group), nil),
			N:         len(group),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Year < points[j].Year })
	return points
}

// CompanySeriesFor builds the yearly series of the given companies (all when
// none are given) from the samples carrying a return. Each series gets a
// correlation over its samples once there are at least three; a significant
// r of either sign counts, without a strength threshold.
func CompanySeriesFor(samples []Sample, alpha float64, companies ...string) []CompanySeries {
	samples = WithReturns(FilterCompanies(samples, companies...))
	byCompany := make(map[string][]Sample)
	for _, s := range samples {
		byCompany[s.Company] = append(byCompany[s.Company], s)
	}

	th := Thresholds{Alpha: alpha, MinAbsR: 0}
	out := make([]CompanySeries, 0, len(byCompany))
	for _, company := range Companies(samples) {
		group := byCompany[company]
		series := CompanySeries{Company: company, Points: yearly(group)}
		if len(group) >= minSeriesObservations {
			if r, p, ok := pearson(scoresOf(group), returnsOf(group)); ok {
				verdict := th.Classify(r, p)
				if verdict == VerdictWeak {
					verdict = VerdictNone
				}
				series.Correlation = &SeriesCorrelation{R: r, P: p, N: len(group), Verdict: verdict}
			}
		}
		out = append(out, series)
	}
	return out
}

// SectorTrends averages score and return per sector and year for the given
// sectors (all when none are given).
func SectorTrends(samples []Sample, sectors ...string) []SectorTrend {
	wanted := make(map[string]bool, len(sectors))
	for _, s := range sectors {
		wanted[s] = true
	}

	bySector := make(map[string][]Sample)
	for _, s := range WithReturns(samples) {
		if s.Sector == "" || (len(wanted) > 0 && !wanted[s.Sector]) {
			continue
		}
		bySector[s.Sector] = append(bySector[s.Sector], s)
	}

	names := make([]string, 0, len(bySector))
	for name := range bySector {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]SectorTrend, 0, len(names))
	for _, name := range names {
		out = append(out, SectorTrend{Sector: name, Points: yearly(bySector[name])})
	}
	return out
}
