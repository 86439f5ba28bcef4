package returns

import (
	"strings"
	"time"

	"esgcli/pkg/contracts/domain"
)

// observation is one usable input row.
type observation struct {
	index   int
	company string
	date    time.Time
	price   float64
	values  []any
}

// normalized is the output of the normalizer stage.
type normalized struct {
	columns      []string
	observations []observation
}

func cleanColumn(name string) string {
	return domain.CleanColumnName(name)
}

// normalize cleans the column names, checks the required columns and keeps the
// rows whose company, date and price are usable. The input table is not
// modified.
func normalize(table domain.Table, cols Columns, stats *Stats) (*normalized, error) {
	cleaned := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cleaned[i] = cleanColumn(c)
	}

	if err := CheckColumns(cleaned, cols.Required()...); err != nil {
		return nil, err
	}

	companyIdx := indexOf(cleaned, cols.Company)
	dateIdx := indexOf(cleaned, cols.Date)
	priceIdx := indexOf(cleaned, cols.ClosePrice)
	returnIdx := indexOf(cleaned, cols.AnnualReturnPct)

	// A previous annual return column is replaced rather than duplicated.
	passIdx := make([]int, 0, len(cleaned))
	passCols := make([]string, 0, len(cleaned))
	for i, c := range cleaned {
		if i == returnIdx {
			continue
		}
		passIdx = append(passIdx, i)
		passCols = append(passCols, c)
	}

	stats.InputRows = len(table.Rows)
	out := &normalized{
		columns:      passCols,
		observations: make([]observation, 0, len(table.Rows)),
	}

	for i, row := range table.Rows {
		company := strings.TrimSpace(domain.CellString(cellAt(row, companyIdx)))
		if company == "" {
			stats.DroppedCompany++
			continue
		}
		date, ok := domain.ParseTime(cellAt(row, dateIdx))
		if !ok {
			stats.DroppedDate++
			continue
		}
		price, ok := domain.ParseNumber(cellAt(row, priceIdx))
		if !ok || price <= 0 {
			stats.DroppedPrice++
			continue
		}

		values := make([]any, len(passIdx))
		for j, idx := range passIdx {
			values[j] = cellAt(row, idx)
		}

		out.observations = append(out.observations, observation{
			index:   i,
			company: company,
			date:    date,
			price:   price,
			values:  values,
		})
	}

	return out, nil
}

func indexOf(columns []string, name string) int {
	want := cleanColumn(name)
	for i, c := range columns {
		if c == want {
			return i
		}
	}
	return -1
}

func cellAt(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}
