package analytics

import (
	"sort"
	"strings"

	"esgcli/pkg/contracts/domain"
)

// Extract reads the samples from the engine output. Rows whose governance
// score is missing or not numeric are skipped. The sector column falls back
// to "Sektor" when the configured column is absent.
func Extract(table *domain.AnnotatedTable, cols Columns) []Sample {
	if table == nil {
		return nil
	}
	if cols.Score == "" {
		cols.Score = ColumnScore
	}
	if cols.Sector == "" {
		cols.Sector = ColumnSector
	}
	if table.ColumnIndex(cols.Sector) < 0 && table.ColumnIndex(ColumnSectorAlias) >= 0 {
		cols.Sector = ColumnSectorAlias
	}
	if table.ColumnIndex(cols.Score) < 0 {
		return nil
	}

	samples := make([]Sample, 0, len(table.Rows))
	for _, row := range table.Rows {
		score, ok := domain.ParseNumber(table.Value(row, cols.Score))
		if !ok {
			continue
		}
		samples = append(samples, Sample{
			Company: row.Company,
			Sector:  strings.TrimSpace(domain.CellString(table.Value(row, cols.Sector))),
			Year:    row.Year,
			Score:   score,
			Return:  row.AnnualReturn,
		})
	}
	return samples
}

// WithReturns keeps the samples that carry an annual return.
func WithReturns(samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Return.IsSet() {
			out = append(out, s)
		}
	}
	return out
}

// FilterYears keeps the samples of the given years. No years keeps all.
func FilterYears(samples []Sample, years ...int) []Sample {
	if len(years) == 0 {
		return samples
	}
	wanted := make(map[int]bool, len(years))
	for _, y := range years {
		wanted[y] = true
	}
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if wanted[s.Year] {
			out = append(out, s)
		}
	}
	return out
}

// FilterCompanies keeps the samples of the given companies. No companies keeps all.
func FilterCompanies(samples []Sample, companies ...string) []Sample {
	if len(companies) == 0 {
		return samples
	}
	wanted := make(map[string]bool, len(companies))
	for _, c := range companies {
		wanted[c] = true
	}
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if wanted[s.Company] {
			out = append(out, s)
		}
	}
	return out
}

// Years lists the distinct years in ascending order.
func Years(samples []Sample) []int {
	seen := make(map[int]bool)
	var years []int
	for _, s := range samples {
		if !seen[s.Year] {
			seen[s.Year] = true
			years = append(years, s.Year)
		}
	}
	sort.Ints(years)
	return years
}

// Companies lists the distinct companies in ascending order.
func Companies(samples []Sample) []string {
	return distinct(samples, func(s Sample) string { return s.Company })
}

// Sectors lists the distinct non-empty sectors in ascending order.
func Sectors(samples []Sample) []string {
	return distinct(samples, func(s Sample) string { return s.Sector })
}

func distinct(samples []Sample, key func(Sample) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range samples {
		k := key(s)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func returnsOf(samples []Sample) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if pct, ok := s.Return.Pct(); ok {
			out = append(out, pct)
		}
	}
	return out
}

func scoresOf(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Score
	}
	return out
}
