package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "esgcli/internal/errors"
	"esgcli/internal/returns"
	"esgcli/pkg/contracts/domain"
)

// Format identifies a supported input file format.
type Format string

const (
	FormatExcel Format = "xlsx"
	FormatCSV   Format = "csv"
)

// ReadOptions controls how an input file is turned into a table.
type ReadOptions struct {
	// Sheet forces the worksheet to read. Empty means auto-detect.
	Sheet string
	// CompanyColumn and DateColumn locate the header row in workbooks and
	// mark the date column for serial date conversion.
	CompanyColumn string
	DateColumn    string
	// Delimiter is the CSV field separator. Zero means comma.
	Delimiter rune
	// HeaderScanRows is how many leading rows of a sheet are searched for the
	// header row. Zero means DefaultHeaderScanRows.
	HeaderScanRows int
}

// DefaultHeaderScanRows bounds the header search in workbooks.
const DefaultHeaderScanRows = 10

// DefaultReadOptions uses the engine's default column names.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		CompanyColumn:  returns.ColumnCompany,
		DateColumn:     returns.ColumnDate,
		Delimiter:      ',',
		HeaderScanRows: DefaultHeaderScanRows,
	}
}

func (o ReadOptions) withDefaults() ReadOptions {
	def := DefaultReadOptions()
	if o.CompanyColumn == "" {
		o.CompanyColumn = def.CompanyColumn
	}
	if o.DateColumn == "" {
		o.DateColumn = def.DateColumn
	}
	if o.Delimiter == 0 {
		o.Delimiter = def.Delimiter
	}
	if o.HeaderScanRows <= 0 {
		o.HeaderScanRows = def.HeaderScanRows
	}
	return o
}

// DetectFormat maps a file name to its input format.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatExcel, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	default:
		return "", apperrors.NewParsingError("unsupported input format", nil).
			WithContext("file", filepath.Base(name))
	}
}

// ReadTable loads the table stored at path. The format follows the extension.
func ReadTable(ctx context.Context, path string, opts ReadOptions) (*domain.Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("input file").WithContext("path", path)
		}
		return nil, apperrors.NewStorageError("failed to open input file", err).WithContext("path", path)
	}
	defer f.Close()

	return ReadFrom(ctx, f, format, opts)
}

// ReadFrom parses a table of the given format from r.
func ReadFrom(ctx context.Context, r io.Reader, format Format, opts ReadOptions) (*domain.Table, error) {
	opts = opts.withDefaults()

	var (
		table *domain.Table
		err   error
	)
	switch format {
	case FormatExcel:
		table, err = ReadExcel(r, opts)
	case FormatCSV:
		table, err = ReadCSV(r, opts)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported input format %q", format), nil)
	}
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read input table", err).
			WithContext("format", string(format))
	}

	slog.DebugContext(ctx, "input table loaded",
		slog.String("format", string(format)),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", len(table.Rows)),
	)
	return table, nil
}

// padRow extends row with nil cells up to width.
func padRow(row []any, width int) []any {
	for len(row) < width {
		row = append(row, nil)
	}
	return row
}
