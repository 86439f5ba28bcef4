package exporter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"esgcli/internal/analytics"
	"esgcli/internal/returns"
)

const noValue = "n/a"

// table accumulates a GitHub flavoured markdown table.
type table struct {
	b *strings.Builder
}

func newTable(b *strings.Builder, headers ...string) table {
	t := table{b: b}
	t.row(headers...)
	seps := make([]string, len(headers))
	for i := range seps {
		seps[i] = "---"
	}
	t.row(seps...)
	return t
}

func (t table) row(cells ...string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	t.b.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
}

func fixed(f float64, places int32) string {
	return decimal.NewFromFloat(f).StringFixed(places)
}

func fixedPtr(f *float64, places int32) string {
	if f == nil {
		return noValue
	}
	return fixed(*f, places)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

// AnnualSummaryMarkdown renders the engine statistics and every company-year
// aggregate.
func AnnualSummaryMarkdown(report *returns.Report, precision int) string {
	var b strings.Builder
	b.WriteString("# Annual returns\n\n")

	s := report.Stats
	t := newTable(&b, "Metric", "Value")
	t.row("Input rows", itoa(s.InputRows))
	t.row("Dropped (company)", itoa(s.DroppedCompany))
	t.row("Dropped (date)", itoa(s.DroppedDate))
	t.row("Dropped (price)", itoa(s.DroppedPrice))
	t.row("Duplicates", itoa(s.Duplicates))
	t.row("Output rows", itoa(s.OutputRows))
	t.row("Company years", itoa(s.Groups))
	t.row("Full years", itoa(s.FullYears))
	t.row("Company years with a return", itoa(s.GroupsWithReturn))

	if len(report.Annual) == 0 {
		return b.String()
	}
	b.WriteString("\n## By company and year\n\n")
	t = newTable(&b, "Company", "Year", "Months", "Returns", "Full", "Annual return %")
	for _, r := range report.Annual {
		pct := formatReturn(r.AnnualReturnPct, precision)
		if pct == "" {
			pct = noValue
		}
		full := "no"
		if r.Full {
			full = "yes"
		}
		t.row(r.Company, itoa(r.Year), itoa(r.MonthsPresent), itoa(r.ReturnCount), full, pct)
	}
	return b.String()
}

// QuintilesMarkdown renders the mean return per governance quintile.
func QuintilesMarkdown(r *analytics.QuintileReport) string {
	var b strings.Builder
	b.WriteString("# Returns by governance quintile\n\n")
	if len(r.Years) > 0 {
		years := make([]string, len(r.Years))
		for i, y := range r.Years {
			years[i] = itoa(y)
		}
		fmt.Fprintf(&b, "Years: %s\n\n", strings.Join(years, ", "))
	}
	t := newTable(&b, "Group", "Score range", "Mean return %", "Std %", "Observations", "Companies")
	for _, g := range r.Groups {
		t.row(g.Label,
			fixed(g.Lower, 2)+" to "+fixed(g.Upper, 2),
			fixed(g.MeanPct, 2),
			fixedPtr(g.StdPct, 4),
			itoa(g.Count),
			itoa(g.Companies))
	}
	return b.String()
}

// CorrelationMarkdown renders the trend summary and the topN strongest
// correlations in each direction.
func CorrelationMarkdown(r *analytics.CorrelationReport, topN int) string {
	var b strings.Builder
	b.WriteString("# Governance score and return per company\n\n")
	fmt.Fprintf(&b, "Companies with at least %d observations: %d\n\n", r.MinObservations, len(r.Companies))

	t := newTable(&b, "Direction", "Companies")
	t.row("Positive", itoa(r.Positive))
	t.row("Negative", itoa(r.Negative))
	t.row("Neutral", itoa(r.Neutral))
	fmt.Fprintf(&b, "\nOverall trend: **%s**\n", r.Trend)

	if len(r.Companies) == 0 {
		return b.String()
	}
	section := func(title string, rows []analytics.CompanyCorrelation) {
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		t := newTable(&b, "Company", "r", "p", "n", "Verdict")
		for _, c := range rows {
			t.row(c.Company, fixed(c.R, 3), fixed(c.P, 4), itoa(c.N), string(c.Verdict))
		}
	}
	section("Strongest positive", r.Top(topN))
	section("Strongest negative", r.Bottom(topN))
	return b.String()
}

// RegressionMarkdown renders the global fit and optional per group fits.
func RegressionMarkdown(r *analytics.RegressionReport, groups []analytics.GroupFit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Regression of annual return on governance score\n\nClipping: %s\n\n", r.Clip)

	f := r.Fit
	t := newTable(&b, "Statistic", "Value")
	t.row("Slope", fixed(f.Slope, 4))
	t.row("Intercept", fixed(f.Intercept, 4))
	t.row("r", fixed(f.R, 3))
	t.row("p", fixed(f.P, 4))
	t.row("Std error", fixed(f.StdErr, 4))
	t.row("n", itoa(f.N))
	fmt.Fprintf(&b, "\nVerdict: **%s**\n", r.Verdict)

	d := r.Returns
	b.WriteString("\n## Annual return %\n\n")
	t = newTable(&b, "Mean", "Median", "Std", "Min", "Max", "n")
	t.row(fixed(d.Mean, 2), fixed(d.Median, 2), fixedPtr(d.Std, 2), fixed(d.Min, 2), fixed(d.Max, 2), itoa(d.N))

	if len(groups) == 0 {
		return b.String()
	}
	b.WriteString("\n## By group\n\n")
	t = newTable(&b, "Group", "r", "Slope", "p", "n")
	for _, g := range groups {
		t.row(g.Group, fixed(g.R, 3), fixed(g.Slope, 4), fixed(g.P, 4), itoa(g.N))
	}
	return b.String()
}

// BenchmarkMarkdown renders the sector distributions and the given rows.
func BenchmarkMarkdown(r *analytics.BenchmarkReport, rows []analytics.BenchmarkRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Sector benchmark %d\n\n", r.Year)

	t := newTable(&b, "Sector", "Min", "Q1", "Median", "Q3", "Max", "n")
	for _, s := range r.Sectors {
		t.row(s.Sector, fixed(s.Min, 2), fixed(s.Q1, 2), fixed(s.Median, 2), fixed(s.Q3, 2), fixed(s.Max, 2), itoa(s.N))
	}

	b.WriteString("\n## Companies\n\n")
	t = newTable(&b, "Company", "Sector", "Mean score", "Delta to median", "Observations")
	for _, row := range rows {
		t.row(row.Company, row.Sector, fixed(row.MeanScore, 2), fixed(row.DeltaToMedian, 2), itoa(row.Observations))
	}
	return b.String()
}

// TimeseriesMarkdown renders company series and sector trends.
func TimeseriesMarkdown(series []analytics.CompanySeries, trends []analytics.SectorTrend) string {
	var b strings.Builder
	b.WriteString("# Governance and returns over time\n")

	points := func(ps []analytics.SeriesPoint) {
		t := newTable(&b, "Year", "Mean score", "Mean return %", "n")
		for _, p := range ps {
			t.row(itoa(p.Year), fixed(p.Score, 2), fixed(p.ReturnPct, 2), itoa(p.N))
		}
	}

	for _, s := range series {
		fmt.Fprintf(&b, "\n## %s\n\n", s.Company)
		points(s.Points)
		if c := s.Correlation; c != nil {
			fmt.Fprintf(&b, "\nr = %s, p = %s, n = %d: **%s**\n", fixed(c.R, 3), fixed(c.P, 4), c.N, c.Verdict)
		}
	}
	for _, tr := range trends {
		fmt.Fprintf(&b, "\n## Sector %s\n\n", tr.Sector)
		points(tr.Points)
	}
	return b.String()
}
