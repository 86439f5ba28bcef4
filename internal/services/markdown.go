package services

import (
	"sort"
	"strings"

	"esgcli/internal/exporter"
)

// Markdown renders every present summary, followed by the skipped
// analyses. topN bounds the correlation lists.
func (s *Summaries) Markdown(topN int) string {
	var parts []string
	if s.Quintiles != nil {
		parts = append(parts, exporter.QuintilesMarkdown(s.Quintiles))
	}
	if s.Correlations != nil {
		parts = append(parts, exporter.CorrelationMarkdown(s.Correlations, topN))
	}
	if s.Regression != nil {
		parts = append(parts, exporter.RegressionMarkdown(s.Regression, s.GroupFits))
	}
	if s.Benchmark != nil {
		parts = append(parts, exporter.BenchmarkMarkdown(s.Benchmark, s.Benchmark.Rows))
	}
	if len(s.CompanySeries) > 0 || len(s.SectorTrends) > 0 {
		parts = append(parts, exporter.TimeseriesMarkdown(s.CompanySeries, s.SectorTrends))
	}
	if len(s.Skipped) > 0 {
		names := make([]string, 0, len(s.Skipped))
		for name := range s.Skipped {
			names = append(names, name)
		}
		sort.Strings(names)

		var b strings.Builder
		b.WriteString("# Skipped analyses\n\n")
		for _, name := range names {
			b.WriteString("- " + name + ": " + s.Skipped[name] + "\n")
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}
