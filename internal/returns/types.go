package returns

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"esgcli/pkg/contracts/domain"
)

// Policy selects how incomplete calendar years are handled.
type Policy string

const (
	// PolicyStrict emits a value only for full years
	PolicyStrict Policy = "strict"
	// PolicyYTDPartial emits the raw compounded return of admissible partial years
	PolicyYTDPartial Policy = "ytd_partial"
	// PolicyAnnualizeBySpan annualises admissible partial years over their month span
	PolicyAnnualizeBySpan Policy = "annualize_by_span"
)

// Policies lists the recognised policies in documentation order.
var Policies = []Policy{PolicyStrict, PolicyYTDPartial, PolicyAnnualizeBySpan}

// String returns the configuration name of the policy
func (p Policy) String() string {
	return string(p)
}

// IsValid reports whether p is one of the recognised policies
func (p Policy) IsValid() bool {
	switch p {
	case PolicyStrict, PolicyYTDPartial, PolicyAnnualizeBySpan:
		return true
	default:
		return false
	}
}

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.TrimSpace(s))
	if !p.IsValid() {
		return "", &InvalidPolicyError{Policy: s}
	}
	return p, nil
}

// Default values
const (
	DefaultMinMonthsPerYear    = 12
	DefaultPartialPolicy       = PolicyStrict
	DefaultMinMonthsForPartial = 6
	DefaultWorkers             = 1

	// minPartialMonthsFloor is the lowest months-present count that can admit a
	// partial-year estimate regardless of configuration.
	minPartialMonthsFloor = 2
)

// Default column names
const (
	ColumnCompany         = "Company Name"
	ColumnDate            = "Date"
	ColumnClosePrice      = "Close Price (USD)"
	ColumnAnnualReturnPct = "AnnualReturnPct"
)

// Columns names the input columns the engine reads and the column it adds.
type Columns struct {
	Company         string `json:"company" validate:"required"`
	Date            string `json:"date" validate:"required"`
	ClosePrice      string `json:"close_price" validate:"required"`
	AnnualReturnPct string `json:"annual_return_pct" validate:"required"`
}

// DefaultColumns returns the standard column names
func DefaultColumns() Columns {
	return Columns{
		Company:         ColumnCompany,
		Date:            ColumnDate,
		ClosePrice:      ColumnClosePrice,
		AnnualReturnPct: ColumnAnnualReturnPct,
	}
}

// Required returns the input columns that must be present, in reporting order.
func (c Columns) Required() []string {
	return []string{c.Company, c.Date, c.ClosePrice}
}

// Config is the explicit policy configuration of one engine.
type Config struct {
	MinMonthsPerYear    int     `json:"min_months_per_year" validate:"gte=0"`
	PartialPolicy       Policy  `json:"partial_policy"`
	MinMonthsForPartial int     `json:"min_months_for_partial" validate:"gte=0"`
	Workers             int     `json:"workers" validate:"gte=0"`
	Columns             Columns `json:"columns"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		MinMonthsPerYear:    DefaultMinMonthsPerYear,
		PartialPolicy:       DefaultPartialPolicy,
		MinMonthsForPartial: DefaultMinMonthsForPartial,
		Workers:             DefaultWorkers,
		Columns:             DefaultColumns(),
	}
}

var configValidator = validator.New()

// Validate checks the policy first so an unknown policy always surfaces as
// InvalidPolicyError, then the numeric bounds and column names.
func (c Config) Validate() error {
	if !c.PartialPolicy.IsValid() {
		return &InvalidPolicyError{Policy: string(c.PartialPolicy)}
	}
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	return nil
}

// fullYearMinReturns is the return count a year needs to be full.
func (c Config) fullYearMinReturns() int {
	return max(1, c.MinMonthsPerYear-1)
}

// partialMinMonths is the months-present count a partial year needs.
func (c Config) partialMinMonths() int {
	return max(minPartialMonthsFloor, c.MinMonthsForPartial)
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthKeyOf returns the calendar month of t
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ordinal counts months since year zero
func (k MonthKey) ordinal() int {
	return k.Year*12 + int(k.Month) - 1
}

// String formats the key as YYYY-MM
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// CompanyYearGroup holds the deduplicated observations of one company in one
// calendar year, reduced to what the aggregator needs.
type CompanyYearGroup struct {
	Company string
	Year    int
	// Months are the distinct months present, ascending.
	Months []MonthKey
	// Returns are the defined monthly returns, in date order.
	Returns []float64
}

// MonthsPresent is the number of distinct months in the group
func (g CompanyYearGroup) MonthsPresent() int {
	return len(g.Months)
}

// AnnualResult is the outcome for one company-year.
type AnnualResult struct {
	Company         string              `json:"company"`
	Year            int                 `json:"year"`
	MonthsPresent   int                 `json:"months_present"`
	ReturnCount     int                 `json:"return_count"`
	Full            bool                `json:"full"`
	AnnualReturnPct domain.AnnualReturn `json:"annual_return_pct"`
}

// Stats counts what each stage did to the input.
type Stats struct {
	InputRows        int `json:"input_rows"`
	DroppedCompany   int `json:"dropped_company"`
	DroppedDate      int `json:"dropped_date"`
	DroppedPrice     int `json:"dropped_price"`
	Duplicates       int `json:"duplicates"`
	OutputRows       int `json:"output_rows"`
	Groups           int `json:"groups"`
	FullYears        int `json:"full_years"`
	GroupsWithReturn int `json:"groups_with_return"`
}
