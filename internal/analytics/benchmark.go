package analytics

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// SectorDistribution describes the governance scores of one sector.
type SectorDistribution struct {
	Sector string  `json:"sector"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	N      int     `json:"n"`
}

// BenchmarkRow is a company's mean score and mean distance from its sector
// median.
type BenchmarkRow struct {
	Company       string  `json:"company"`
	Sector        string  `json:"sector"`
	MeanScore     float64 `json:"mean_score"`
	DeltaToMedian float64 `json:"delta_to_median"`
	Observations  int     `json:"observations"`
}

// BenchmarkReport is the outcome of Benchmark.
type BenchmarkReport struct {
	Year    int                  `json:"year"`
	Sectors []SectorDistribution `json:"sectors"`
	Rows    []BenchmarkRow       `json:"rows"`
}

// Benchmark compares governance scores within each sector for one year. The
// sector median is taken over all samples of the year; every sample's delta to
// it is averaged per company and sector. Samples do not need a return. Rows
// are sorted by delta descending.
func Benchmark(samples []Sample, year int) (*BenchmarkReport, error) {
	bySector := make(map[string][]Sample)
	for _, s := range FilterYears(samples, year) {
		if s.Sector == "" {
			continue
		}
		bySector[s.Sector] = append(bySector[s.Sector], s)
	}
	if len(bySector) == 0 {
		return nil, fmt.Errorf("benchmark %d: no samples with sector: %w", year, ErrInsufficientData)
	}

	report := &BenchmarkReport{Year: year}

	type key struct{ company, sector string }
	deltas := make(map[key][]float64)
	scores := make(map[key][]float64)

	for sector, group := range bySector {
		sorted := sortedCopy(scoresOf(group))
		med := quantile(sorted, 0.5)
		report.Sectors = append(report.Sectors, SectorDistribution{
			Sector: sector,
			Min:    sorted[0],
			Q1:     quantile(sorted, 0.25),
			Median: med,
			Q3:     quantile(sorted, 0.75),
			Max:    sorted[len(sorted)-1],
			N:      len(sorted),
		})
		for _, s := range group {
			k := key{s.Company, sector}
			deltas[k] = append(deltas[k], s.Score-med)
			scores[k] = append(scores[k], s.Score)
		}
	}
	sort.Slice(report.Sectors, func(i, j int) bool { return report.Sectors[i].Sector < report.Sectors[j].Sector })

	for k, ds := range deltas {
		report.Rows = append(report.Rows, BenchmarkRow{
			Company:       k.company,
			Sector:        k.sector,
			MeanScore:     stat.Mean(scores[k], nil),
			DeltaToMedian: stat.Mean(ds, nil),
			Observations:  len(ds),
		})
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if a.DeltaToMedian != b.DeltaToMedian {
			return a.DeltaToMedian > b.DeltaToMedian
		}
		if a.Company != b.Company {
			return a.Company < b.Company
		}
		return a.Sector < b.Sector
	})
	return report, nil
}

// Search keeps the rows whose company or sector contains query, ignoring case.
func (r *BenchmarkReport) Search(query string) []BenchmarkRow {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return r.Rows
	}
	var out []BenchmarkRow
	for _, row := range r.Rows {
		if strings.Contains(strings.ToLower(row.Company), q) || strings.Contains(strings.ToLower(row.Sector), q) {
			out = append(out, row)
		}
	}
	return out
}
