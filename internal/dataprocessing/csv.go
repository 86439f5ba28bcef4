package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"esgcli/pkg/contracts/domain"
)

// ReadCSV reads a delimited table whose first record is the header. Cells are
// kept as text; empty cells become nil.
func ReadCSV(r io.Reader, opts ReadOptions) (*domain.Table, error) {
	opts = opts.withDefaults()

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv input")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := &domain.Table{Columns: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record %d: %w", len(table.Rows)+1, err)
		}
		if isBlankRow(record) {
			continue
		}

		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = textCell(cell)
		}
		table.Rows = append(table.Rows, padRow(row, len(header)))
	}
	return table, nil
}
