package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "esgcli/internal/errors"
	"esgcli/internal/returns"
	"esgcli/pkg/contracts/domain"
)

func annualFor(t *testing.T, report *returns.Report, company string, year int) domain.AnnualReturn {
	t.Helper()
	for _, r := range report.Annual {
		if r.Company == company && r.Year == year {
			return r.AnnualReturnPct
		}
	}
	t.Fatalf("no annual result for %s/%d", company, year)
	return domain.NoReturn()
}

func TestReturnsServiceEngineConfig(t *testing.T) {
	svc := NewReturnsService(testConfig(), discardLogger(), nil, nil)

	cfg := svc.EngineConfig(Overrides{})
	assert.Equal(t, returns.DefaultConfig(), cfg)

	cfg = svc.EngineConfig(Overrides{
		PartialPolicy:       ptr("ytd_partial"),
		MinMonthsPerYear:    ptr(10),
		MinMonthsForPartial: ptr(3),
		Workers:             ptr(4),
	})
	assert.Equal(t, returns.PolicyYTDPartial, cfg.PartialPolicy)
	assert.Equal(t, 10, cfg.MinMonthsPerYear)
	assert.Equal(t, 3, cfg.MinMonthsForPartial)
	assert.Equal(t, 4, cfg.Workers)
}

func TestReturnsServiceReadOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Input.Delimiter = ";"
	cfg.Input.Sheet = "Data"
	svc := NewReturnsService(cfg, discardLogger(), nil, nil)

	opts := svc.ReadOptions()
	assert.Equal(t, ';', opts.Delimiter)
	assert.Equal(t, "Data", opts.Sheet)
	assert.Equal(t, "Company Name", opts.CompanyColumn)
	assert.Equal(t, "Date", opts.DateColumn)
}

func TestReturnsServiceCompute(t *testing.T) {
	table := governanceTable(
		governanceRows("Acme", "Tech", 2020, 12, 60),
		governanceRows("Beta", "Fin", 2020, 6, 40),
	)

	tests := []struct {
		name      string
		overrides Overrides
		wantBeta  bool
		betaPct   float64
	}{
		{name: "strict leaves partial year empty", wantBeta: false},
		{name: "ytd partial admits six months", overrides: Overrides{PartialPolicy: ptr("ytd_partial")}, wantBeta: true, betaPct: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewReturnsService(testConfig(), discardLogger(), nil, nil)
			report, err := svc.Compute(context.Background(), table, tt.overrides)
			require.NoError(t, err)

			acme, ok := annualFor(t, report, "Acme", 2020).Pct()
			require.True(t, ok)
			assert.InDelta(t, 11.0, acme, 1e-9)

			beta, ok := annualFor(t, report, "Beta", 2020).Pct()
			assert.Equal(t, tt.wantBeta, ok)
			if tt.wantBeta {
				assert.InDelta(t, tt.betaPct, beta, 1e-9)
			}
			assert.Equal(t, 18, report.Stats.OutputRows)
			assert.Equal(t, 2, report.Stats.Groups)
		})
	}
}

func TestReturnsServiceComputeErrors(t *testing.T) {
	svc := NewReturnsService(testConfig(), discardLogger(), nil, nil)
	ctx := context.Background()

	t.Run("invalid policy", func(t *testing.T) {
		_, err := svc.Compute(ctx, governanceTable(governanceRows("Acme", "Tech", 2020, 12, 60)), Overrides{PartialPolicy: ptr("weekly")})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		assert.ErrorIs(t, err, returns.ErrInvalidPolicy)
	})

	t.Run("missing columns", func(t *testing.T) {
		table := domain.Table{Columns: []string{"Company Name"}, Rows: [][]any{{"Acme"}}}
		_, err := svc.Compute(ctx, table, Overrides{})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingColumns))

		var missing *returns.MissingColumnError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"Date", "Close Price (USD)"}, missing.Columns)
	})

	t.Run("governance requires score column", func(t *testing.T) {
		table := domain.Table{
			Columns: []string{"Company Name", "Date", "Close Price (USD)"},
			Rows:    [][]any{{"Acme", "2020-01-28", 100.0}},
		}
		_, err := svc.Compute(ctx, table, Overrides{Governance: ptr(true)})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingColumns))

		var missing *returns.MissingColumnError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"GovernancePillarScore"}, missing.Columns)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		table := governanceTable(governanceRows("Acme", "Tech", 2020, 12, 60))
		_, err := svc.Compute(cctx, table, Overrides{})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReturnsServiceGovernanceFilter(t *testing.T) {
	rows := governanceRows("Acme", "Tech", 2020, 12, 60)
	rows[3][3] = nil
	table := governanceTable(rows)

	cfg := testConfig()
	cfg.Input.RequireGovernance = true
	svc := NewReturnsService(cfg, discardLogger(), nil, nil)

	report, err := svc.Compute(context.Background(), table, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, 11, report.Stats.InputRows)
	assert.Equal(t, 11, report.Stats.OutputRows)

	report, err = svc.Compute(context.Background(), table, Overrides{Governance: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 12, report.Stats.InputRows)
}

func TestReturnsServiceComputeFile(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString(strings.Join(governanceColumns, ",") + "\n")
	for _, row := range governanceRows("Acme", "Tech", 2021, 12, 60) {
		b.WriteString(strings.Join([]string{
			row[0].(string), row[1].(string), domain.CellString(row[2]), domain.CellString(row[3]), row[4].(string),
		}, ",") + "\n")
	}
	path := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	metrics, reader := testMetrics(t)
	svc := NewReturnsService(testConfig(), discardLogger(), nil, metrics)

	report, err := svc.ComputeFile(context.Background(), path, Overrides{})
	require.NoError(t, err)
	pct, ok := annualFor(t, report, "Acme", 2021).Pct()
	require.True(t, ok)
	assert.InDelta(t, 11.0, pct, 1e-9)

	_, err = svc.ComputeFile(context.Background(), filepath.Join(dir, "missing.csv"), Overrides{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	assert.Equal(t, int64(2), counterTotal(t, reader, "engine_runs_total"))
	assert.Equal(t, int64(1), counterTotal(t, reader, "engine_errors_total"))
	assert.Equal(t, int64(12), counterTotal(t, reader, "engine_input_rows_total"))
}

func TestReturnsServiceComputeReader(t *testing.T) {
	svc := NewReturnsService(testConfig(), discardLogger(), nil, nil)
	ctx := context.Background()

	csv := "Company Name,Date,Close Price (USD)\nAcme,2021-01-31,100\nAcme,2021-02-28,110\n"
	report, err := svc.ComputeReader(ctx, strings.NewReader(csv), "upload.csv", Overrides{
		PartialPolicy:       ptr("ytd_partial"),
		MinMonthsForPartial: ptr(2),
	})
	require.NoError(t, err)
	pct, ok := annualFor(t, report, "Acme", 2021).Pct()
	require.True(t, ok)
	assert.InDelta(t, 10.0, pct, 1e-9)

	_, err = svc.ComputeReader(ctx, strings.NewReader(csv), "upload.pdf", Overrides{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}
