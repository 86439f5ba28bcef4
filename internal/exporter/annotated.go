package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"esgcli/pkg/contracts/domain"
)

// AnnotatedRecords renders the engine output as a header and CSV records:
// the pass-through columns followed by the annual return with precision
// decimals, empty when there is no value.
func AnnotatedRecords(table *domain.AnnotatedTable, precision int) ([]string, [][]string) {
	records := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, annotatedRecord(table, row, precision))
	}
	return table.Header(), records
}

func annotatedRecord(table *domain.AnnotatedTable, row domain.AnnotatedRow, precision int) []string {
	record := make([]string, 0, len(table.Columns)+1)
	for i := range table.Columns {
		var v any
		if i < len(row.Values) {
			v = row.Values[i]
		}
		record = append(record, formatCell(v))
	}
	return append(record, formatReturn(row.AnnualReturn, precision))
}

// WriteAnnotated streams the annotated table to filePath with a UTF-8 BOM,
// one record per row.
func (w *CSVWriter) WriteAnnotated(filePath string, table *domain.AnnotatedTable, precision int) error {
	if table == nil {
		return fmt.Errorf("write annotated %s: nil table", filePath)
	}
	stream, err := w.CreateStreamWriter(filePath, table.Header())
	if err != nil {
		return fmt.Errorf("write annotated %s: %w", filePath, err)
	}
	for i, row := range table.Rows {
		if err := stream.WriteRecord(annotatedRecord(table, row, precision)); err != nil {
			stream.Close()
			return fmt.Errorf("write annotated %s: record %d: %w", filePath, i, err)
		}
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("write annotated %s: %w", filePath, err)
	}
	slog.Debug("Annotated table written",
		slog.String("file_path", filePath),
		slog.Int("rows", len(table.Rows)))
	return nil
}

// EncodeAnnotated streams the annotated table as CSV to out.
func EncodeAnnotated(out io.Writer, table *domain.AnnotatedTable, precision int, bom bool) error {
	if bom {
		if _, err := io.WriteString(out, utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	header, records := AnnotatedRecords(table, precision)
	return writeRecords(out, header, records)
}
