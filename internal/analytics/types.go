package analytics

import (
	"errors"
	"fmt"
	"strings"

	"esgcli/pkg/contracts/domain"
)

// ErrInsufficientData is returned when an analysis has too few usable samples.
var ErrInsufficientData = errors.New("insufficient data")

// Default column names and thresholds
const (
	ColumnCompany     = "Company Name"
	ColumnScore       = "GovernancePillarScore"
	ColumnSector      = "Sector"
	ColumnSectorAlias = "Sektor"

	DefaultMinObservations      = 30
	DefaultSignificanceLevel    = 0.05
	DefaultCorrelationThreshold = 0.2
)

// Columns names the pass-through columns the analyses read.
type Columns struct {
	Company string `json:"company"`
	Score   string `json:"score"`
	Sector  string `json:"sector"`
}

// DefaultColumns returns the standard dataset column names
func DefaultColumns() Columns {
	return Columns{Company: ColumnCompany, Score: ColumnScore, Sector: ColumnSector}
}

// Sample is one annotated row reduced to what the analyses need.
type Sample struct {
	Company string              `json:"company"`
	Sector  string              `json:"sector,omitempty"`
	Year    int                 `json:"year"`
	Score   float64             `json:"score"`
	Return  domain.AnnualReturn `json:"annual_return_pct"`
}

// Verdict classifies the direction of a relationship.
type Verdict string

const (
	VerdictPositive Verdict = "positive"
	VerdictNegative Verdict = "negative"
	// VerdictWeak is significant but below the strength threshold.
	VerdictWeak Verdict = "weak"
	VerdictNone Verdict = "none"
)

// Thresholds decide when a relationship counts as significant and strong.
type Thresholds struct {
	// Alpha is the significance level for p-values.
	Alpha float64 `json:"alpha"`
	// MinAbsR is the strength a correlation must exceed.
	MinAbsR float64 `json:"min_abs_r"`
}

// DefaultThresholds returns p < 0.05 and |r| > 0.2.
func DefaultThresholds() Thresholds {
	return Thresholds{Alpha: DefaultSignificanceLevel, MinAbsR: DefaultCorrelationThreshold}
}

// Classify maps r and p to a verdict.
func (th Thresholds) Classify(r, p float64) Verdict {
	if p >= th.Alpha {
		return VerdictNone
	}
	switch {
	case r > th.MinAbsR:
		return VerdictPositive
	case r < -th.MinAbsR:
		return VerdictNegative
	default:
		return VerdictWeak
	}
}

// ClipMode selects how extreme returns are removed before a regression.
type ClipMode string

const (
	ClipNone ClipMode = "none"
	// ClipHard keeps returns within -100..100 percent.
	ClipHard ClipMode = "hard"
	// ClipQuantile keeps returns within the 1st and 99th percentile.
	ClipQuantile ClipMode = "quantile"
)

// ParseClipMode converts a configuration string into a ClipMode.
func ParseClipMode(s string) (ClipMode, error) {
	switch m := ClipMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ClipNone, ClipHard, ClipQuantile:
		return m, nil
	case "":
		return ClipNone, nil
	default:
		return "", fmt.Errorf("unknown clip mode %q", s)
	}
}

// GroupBy selects the grouping of per-group regressions.
type GroupBy string

const (
	GroupByCompany GroupBy = "company"
	GroupBySector  GroupBy = "sector"
)
