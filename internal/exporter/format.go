package exporter

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"esgcli/pkg/contracts/domain"
)

// DefaultPrecision is the number of decimals written for percentages.
const DefaultPrecision = 2

// formatFloat formats a float64 in its shortest exact form, so 13.4 stays
// 13.4 and 123.0 becomes 123.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatPercent renders a percentage with a fixed number of decimals.
func formatPercent(pct float64, precision int) string {
	if precision < 0 {
		precision = DefaultPrecision
	}
	return decimal.NewFromFloat(pct).StringFixed(int32(precision))
}

// formatReturn renders an annual return, or "" for no value.
func formatReturn(r domain.AnnualReturn, precision int) string {
	pct, ok := r.Pct()
	if !ok {
		return ""
	}
	return formatPercent(pct, precision)
}

// formatCell renders a pass-through cell for CSV output.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return domain.CellString(v)
	}
}
