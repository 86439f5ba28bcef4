package domain

import (
	"strings"
	"time"
)

// Table is a raw tabular input as handed over by an ingestion source.
// Cells hold string, float64, float32, int, int64, json.Number, time.Time or nil.
type Table struct {
	Columns []string `json:"columns" validate:"required,min=1"`
	Rows    [][]any  `json:"rows"`
}

// ColumnIndex returns the index of the named column or -1. Names are compared
// after trimming whitespace and a leading byte-order mark.
func (t *Table) ColumnIndex(name string) int {
	return columnIndex(t.Columns, name)
}

// Cell returns the value at row i for the named column, or nil when the column
// is absent or the row is short.
func (t *Table) Cell(i int, name string) any {
	idx := t.ColumnIndex(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) || idx >= len(t.Rows[i]) {
		return nil
	}
	return t.Rows[i][idx]
}

// Clone returns a deep copy of the column list and row slices. Cell values are
// shared since they are immutable scalars.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}

// CleanColumnName strips surrounding whitespace and the UTF-8 byte-order mark.
func CleanColumnName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "\ufeff", ""))
}

func columnIndex(columns []string, name string) int {
	want := CleanColumnName(name)
	for i, c := range columns {
		if CleanColumnName(c) == want {
			return i
		}
	}
	return -1
}

// AnnotatedRow is one surviving monthly observation with its company-year
// annual return attached.
type AnnotatedRow struct {
	// Index is the position of the row in the input table.
	Index        int          `json:"index"`
	Company      string       `json:"company"`
	Date         time.Time    `json:"date"`
	Price        float64      `json:"price"`
	Year         int          `json:"year"`
	Values       []any        `json:"values"`
	AnnualReturn AnnualReturn `json:"annual_return_pct"`
}

// AnnotatedTable is the engine output: the cleaned and deduplicated rows in
// (company, date) order plus the annual return column.
type AnnotatedTable struct {
	// Columns are the pass-through input columns, cleaned.
	Columns      []string       `json:"columns"`
	ReturnColumn string         `json:"return_column"`
	Rows         []AnnotatedRow `json:"rows"`
}

// Header returns the pass-through columns followed by the return column.
func (t *AnnotatedTable) Header() []string {
	return append(append([]string(nil), t.Columns...), t.ReturnColumn)
}

// ColumnIndex returns the index of a pass-through column or -1.
func (t *AnnotatedTable) ColumnIndex(name string) int {
	return columnIndex(t.Columns, name)
}

// Value returns the pass-through value of the named column for a row.
func (t *AnnotatedTable) Value(row AnnotatedRow, name string) any {
	idx := t.ColumnIndex(name)
	if idx < 0 || idx >= len(row.Values) {
		return nil
	}
	return row.Values[idx]
}

// ToTable converts the annotated output back into a raw table, with the return
// column holding float64 percentages or nil.
func (t *AnnotatedTable) ToTable() *Table {
	out := &Table{
		Columns: t.Header(),
		Rows:    make([][]any, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		cells := make([]any, 0, len(row.Values)+1)
		cells = append(cells, row.Values...)
		if pct, ok := row.AnnualReturn.Pct(); ok {
			cells = append(cells, pct)
		} else {
			cells = append(cells, nil)
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}
