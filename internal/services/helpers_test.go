package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"esgcli/internal/config"
	"esgcli/internal/infrastructure"
	"esgcli/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var governanceColumns = []string{"Company Name", "Date", "Close Price (USD)", "GovernancePillarScore", "Sector"}

// governanceRows builds one row per month of year starting in January with
// the price rising by one each month.
func governanceRows(company, sector string, year int, months int, score float64) [][]any {
	rows := make([][]any, 0, months)
	for m := 0; m < months; m++ {
		date := time.Date(year, time.Month(m+1), 28, 0, 0, 0, 0, time.UTC)
		rows = append(rows, []any{company, date.Format("2006-01-02"), 100.0 + float64(m), score, sector})
	}
	return rows
}

func governanceTable(groups ...[][]any) domain.Table {
	table := domain.Table{Columns: governanceColumns}
	for _, g := range groups {
		table.Rows = append(table.Rows, g...)
	}
	return table
}

// annotatedFixture has one 2021 row per company with scores 1..n and
// returns of ten times the score.
func annotatedFixture(n int, sameScore bool) *domain.AnnotatedTable {
	table := &domain.AnnotatedTable{
		Columns:      governanceColumns,
		ReturnColumn: "AnnualReturnPct",
	}
	date := time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		company := fmt.Sprintf("C%02d", i)
		sector := "Fin"
		if i%2 == 0 {
			sector = "Tech"
		}
		score := float64(i)
		if sameScore {
			score = 50
		}
		table.Rows = append(table.Rows, domain.AnnotatedRow{
			Index:        i - 1,
			Company:      company,
			Date:         date,
			Price:        100,
			Year:         2021,
			Values:       []any{company, date, 100.0, score, sector},
			AnnualReturn: domain.SomeReturn(float64(i) * 10),
		})
	}
	return table
}

func testMetrics(t *testing.T) (*infrastructure.EngineMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := infrastructure.NewEngineMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func testConfig() *config.Config {
	return config.Default()
}

func ptr[T any](v T) *T {
	return &v
}
