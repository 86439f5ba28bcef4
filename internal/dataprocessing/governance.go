package dataprocessing

import (
	"strings"

	"esgcli/internal/returns"
	"esgcli/pkg/contracts/domain"
)

// Default governance dataset columns
const (
	ColumnGovernanceScore = "GovernancePillarScore"
	ColumnSector          = "Sector"
	// ColumnSectorAlias is accepted when ColumnSector is absent.
	ColumnSectorAlias = "Sektor"
)

// GovernanceOptions names the columns of a governance dataset.
type GovernanceOptions struct {
	CompanyColumn string
	ScoreColumn   string
	PriceColumn   string
	DateColumn    string
	SectorColumn  string
}

// DefaultGovernanceOptions returns the standard dataset column names
func DefaultGovernanceOptions() GovernanceOptions {
	return GovernanceOptions{
		CompanyColumn: returns.ColumnCompany,
		ScoreColumn:   ColumnGovernanceScore,
		PriceColumn:   returns.ColumnClosePrice,
		DateColumn:    returns.ColumnDate,
		SectorColumn:  ColumnSector,
	}
}

// PrepareStats counts the rows removed by PrepareGovernance.
type PrepareStats struct {
	InputRows      int `json:"input_rows"`
	DroppedCompany int `json:"dropped_company"`
	DroppedDate    int `json:"dropped_date"`
	DroppedScore   int `json:"dropped_score"`
	DroppedPrice   int `json:"dropped_price"`
	OutputRows     int `json:"output_rows"`
}

// PrepareGovernance filters a governance dataset before it reaches the
// engine. All four core columns must be present; rows missing any of them
// are removed. Scores and prices are coerced to float64, dates to time
// values and the sector is trimmed. Column names are cleaned and a "Sektor"
// column is renamed to the sector column.
func PrepareGovernance(table domain.Table, opts GovernanceOptions) (*domain.Table, PrepareStats, error) {
	def := DefaultGovernanceOptions()
	if opts.CompanyColumn == "" {
		opts.CompanyColumn = def.CompanyColumn
	}
	if opts.ScoreColumn == "" {
		opts.ScoreColumn = def.ScoreColumn
	}
	if opts.PriceColumn == "" {
		opts.PriceColumn = def.PriceColumn
	}
	if opts.DateColumn == "" {
		opts.DateColumn = def.DateColumn
	}
	if opts.SectorColumn == "" {
		opts.SectorColumn = def.SectorColumn
	}

	stats := PrepareStats{InputRows: len(table.Rows)}

	columns := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		columns[i] = domain.CleanColumnName(c)
	}
	if indexOfColumn(columns, opts.SectorColumn) < 0 {
		if alias := indexOfColumn(columns, ColumnSectorAlias); alias >= 0 {
			columns[alias] = opts.SectorColumn
		}
	}

	if err := returns.CheckColumns(columns, opts.CompanyColumn, opts.ScoreColumn, opts.PriceColumn, opts.DateColumn); err != nil {
		return nil, stats, err
	}

	companyIdx := indexOfColumn(columns, opts.CompanyColumn)
	scoreIdx := indexOfColumn(columns, opts.ScoreColumn)
	priceIdx := indexOfColumn(columns, opts.PriceColumn)
	dateIdx := indexOfColumn(columns, opts.DateColumn)
	sectorIdx := indexOfColumn(columns, opts.SectorColumn)

	out := &domain.Table{Columns: columns, Rows: make([][]any, 0, len(table.Rows))}
	for _, src := range table.Rows {
		row := padRow(append([]any(nil), src...), len(columns))

		if strings.TrimSpace(domain.CellString(row[companyIdx])) == "" {
			stats.DroppedCompany++
			continue
		}
		date, ok := domain.ParseTime(row[dateIdx])
		if !ok {
			stats.DroppedDate++
			continue
		}
		score, ok := domain.ParseNumber(row[scoreIdx])
		if !ok {
			stats.DroppedScore++
			continue
		}
		price, ok := domain.ParseNumber(row[priceIdx])
		if !ok {
			stats.DroppedPrice++
			continue
		}

		row[dateIdx] = date
		row[scoreIdx] = score
		row[priceIdx] = price
		if sectorIdx >= 0 {
			row[sectorIdx] = strings.TrimSpace(domain.CellString(row[sectorIdx]))
		}
		out.Rows = append(out.Rows, row)
	}
	stats.OutputRows = len(out.Rows)

	return out, stats, nil
}

func indexOfColumn(columns []string, name string) int {
	want := domain.CleanColumnName(name)
	for i, c := range columns {
		if c == want {
			return i
		}
	}
	return -1
}
