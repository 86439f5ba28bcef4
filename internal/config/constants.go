package config

import "time"

// Application constants
const (
	// Application Info
	AppName     = "ESG Annual Returns"
	ServiceName = "esg-returns"

	// Environment
	EnvPrefix     = "ESG"
	EnvConfigFile = "ESG_CONFIG_FILE"

	// Engine defaults
	DefaultMinMonthsPerYear    = 12
	DefaultPartialPolicy       = "strict"
	DefaultMinMonthsForPartial = 6
	DefaultWorkers             = 1

	// Dataset columns
	DefaultCompanyColumn = "Company Name"
	DefaultDateColumn    = "Date"
	DefaultPriceColumn   = "Close Price (USD)"
	DefaultReturnColumn  = "AnnualReturnPct"
	DefaultScoreColumn   = "GovernancePillarScore"
	DefaultSectorColumn  = "Sector"

	// Ingestion
	DefaultHeaderScanRows = 10

	// Analytics
	DefaultMinObservations      = 30
	DefaultClipMode             = "quantile"
	DefaultSignificanceLevel    = 0.05
	DefaultCorrelationThreshold = 0.2
	DefaultTopN                 = 5

	// Export
	DefaultExportPrecision = 2

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// HTTP
	DefaultRequestTimeout = 60 * time.Second
	DefaultMaxUploadBytes = 32 << 20 // 32MB

	// File Paths
	DefaultDataDir    = "data"
	DefaultReportsDir = "data/reports"
	DefaultUploadsDir = "data/uploads"
	DefaultLogsDir    = "logs"
	DefaultLogFile    = "logs/app.log"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// API Endpoints
	APIBasePath     = "/api"
	ReturnsEndpoint = "/api/returns"
	UploadEndpoint  = "/api/returns/upload"
	AnalyticsPath   = "/api/analytics"
	HealthEndpoint  = "/api/health"
	ReportsEndpoint = "/api/reports"
	MetricsEndpoint = "/metrics"
)
