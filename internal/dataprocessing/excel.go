package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"esgcli/pkg/contracts/domain"
)

// ReadExcel reads the first worksheet holding a header row with both the
// company and date columns, or opts.Sheet when set. Cells are read raw so
// numbers keep full precision and date serials can be converted.
func ReadExcel(r io.Reader, opts ReadOptions) (*domain.Table, error) {
	opts = opts.withDefaults()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if opts.Sheet != "" {
		sheets = []string{opts.Sheet}
	}

	for _, name := range sheets {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			if opts.Sheet != "" {
				return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
			}
			continue
		}

		headerRow := findHeaderRow(rows, opts)
		if headerRow < 0 {
			continue
		}

		slog.Debug("Found data sheet",
			slog.String("sheet_name", name),
			slog.Int("header_row", headerRow),
			slog.Int("total_rows", len(rows)),
		)
		return buildExcelTable(rows, headerRow, opts), nil
	}

	if opts.Sheet != "" {
		return nil, fmt.Errorf("sheet %q has no header row with %q and %q", opts.Sheet, opts.CompanyColumn, opts.DateColumn)
	}
	return nil, fmt.Errorf("could not find a sheet with %q and %q columns", opts.CompanyColumn, opts.DateColumn)
}

// findHeaderRow returns the index of the first row among the leading rows
// that names both the company and the date column, or -1.
func findHeaderRow(rows [][]string, opts ReadOptions) int {
	company := strings.ToLower(domain.CleanColumnName(opts.CompanyColumn))
	date := strings.ToLower(domain.CleanColumnName(opts.DateColumn))

	for i := 0; i < len(rows) && i < opts.HeaderScanRows; i++ {
		var hasCompany, hasDate bool
		for _, cell := range rows[i] {
			switch strings.ToLower(domain.CleanColumnName(cell)) {
			case company:
				hasCompany = true
			case date:
				hasDate = true
			}
		}
		if hasCompany && hasDate {
			return i
		}
	}
	return -1
}

func buildExcelTable(rows [][]string, headerRow int, opts ReadOptions) *domain.Table {
	header := rows[headerRow]
	table := &domain.Table{
		Columns: make([]string, len(header)),
		Rows:    make([][]any, 0, len(rows)-headerRow-1),
	}
	copy(table.Columns, header)

	companyIdx := table.ColumnIndex(opts.CompanyColumn)
	dateIdx := table.ColumnIndex(opts.DateColumn)

	for _, raw := range rows[headerRow+1:] {
		if isBlankRow(raw) {
			continue
		}
		row := make([]any, 0, len(header))
		for j, cell := range raw {
			switch j {
			case companyIdx:
				row = append(row, textCell(cell))
			case dateIdx:
				row = append(row, excelDateCell(cell))
			default:
				row = append(row, excelValueCell(cell))
			}
		}
		table.Rows = append(table.Rows, padRow(row, len(header)))
	}
	return table
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func textCell(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// excelValueCell turns numeric text into float64 and keeps everything else as
// text.
func excelValueCell(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return s
}

// excelDateCell converts date serials into time values. Textual dates are left
// for the engine's date parser.
func excelDateCell(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	serial, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return s
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return s
	}
	return t
}
