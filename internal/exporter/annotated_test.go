package exporter

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/pkg/contracts/domain"
)

func annotatedFixture() *domain.AnnotatedTable {
	jan := time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2021, 2, 28, 0, 0, 0, 0, time.UTC)
	return &domain.AnnotatedTable{
		Columns:      []string{"Company Name", "Date", "Close Price (USD)"},
		ReturnColumn: "AnnualReturnPct",
		Rows: []domain.AnnotatedRow{
			{Company: "Acme", Date: jan, Year: 2021, Values: []any{"Acme", jan, 100.0}, AnnualReturn: domain.SomeReturn(213.842838)},
			{Company: "Acme", Date: feb, Year: 2021, Values: []any{"Acme", feb, 110.0}, AnnualReturn: domain.SomeReturn(213.842838)},
			{Company: "Beta", Date: jan, Year: 2021, Values: []any{"Beta", "2021-01-31"}, AnnualReturn: domain.NoReturn()},
		},
	}
}

func TestAnnotatedRecords(t *testing.T) {
	header, records := AnnotatedRecords(annotatedFixture(), 2)

	assert.Equal(t, []string{"Company Name", "Date", "Close Price (USD)", "AnnualReturnPct"}, header)
	assert.Equal(t, [][]string{
		{"Acme", "2021-01-31", "100", "213.84"},
		{"Acme", "2021-02-28", "110", "213.84"},
		{"Beta", "2021-01-31", "", ""},
	}, records)
}

func TestCSVWriter_WriteAnnotated(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	require.NoError(t, writer.WriteAnnotated("annotated.csv", annotatedFixture(), 3))

	hasBOM, records := readCSV(t, filepath.Join(tempDir, "reports", "annotated.csv"))
	assert.True(t, hasBOM)
	require.Len(t, records, 4)
	assert.Equal(t, "213.843", records[1][3])

	assert.Error(t, writer.WriteAnnotated("nil.csv", nil, 2))
}

func TestEncodeAnnotated(t *testing.T) {
	tests := []struct {
		name string
		bom  bool
	}{
		{"with BOM", true},
		{"without BOM", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeAnnotated(&buf, annotatedFixture(), 2, tt.bom))

			out := buf.String()
			assert.Equal(t, tt.bom, strings.HasPrefix(out, utf8BOM))
			lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(out, utf8BOM)), "\n")
			require.Len(t, lines, 4)
			assert.Equal(t, "Company Name,Date,Close Price (USD),AnnualReturnPct", lines[0])
			assert.Equal(t, "Beta,2021-01-31,,", lines[3])
		})
	}
}
