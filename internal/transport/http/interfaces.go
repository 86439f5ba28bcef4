package http

import (
	"context"
	"io"

	"esgcli/internal/returns"
	"esgcli/internal/services"
	"esgcli/pkg/contracts/domain"
)

// ReturnsServiceInterface runs the annual return engine
type ReturnsServiceInterface interface {
	Compute(ctx context.Context, table domain.Table, o services.Overrides) (*returns.Report, error)
	ComputeReader(ctx context.Context, r io.Reader, name string, o services.Overrides) (*returns.Report, error)
}

// AnalyticsServiceInterface runs the governance analyses
type AnalyticsServiceInterface interface {
	Summaries(ctx context.Context, table *domain.AnnotatedTable, req services.AnalyticsRequest) (*services.Summaries, error)
}
