// Package services implements the application layer between the transport
// and the computation packages.
//
// ReturnsService turns configuration and per-request overrides into an
// engine run: it reads input files, optionally pre-filters governance
// datasets, runs the annual return engine and maps its failures onto
// AppError types the HTTP layer understands. Every run is traced and
// recorded in the engine metrics.
//
// AnalyticsService runs the governance analyses over an annotated table.
// Independent analyses of one request execute concurrently.
//
// HealthService reports liveness, readiness and version information.
package services
