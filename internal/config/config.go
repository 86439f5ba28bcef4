package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Returns   ReturnsConfig   `yaml:"returns" envconfig:"RETURNS"`
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
}

// ReturnsConfig holds the annual return engine policy
type ReturnsConfig struct {
	MinMonthsPerYear    int    `yaml:"min_months_per_year" envconfig:"MIN_MONTHS_PER_YEAR" validate:"gte=0"`
	PartialPolicy       string `yaml:"partial_policy" envconfig:"PARTIAL_POLICY" validate:"oneof=strict ytd_partial annualize_by_span"`
	MinMonthsForPartial int    `yaml:"min_months_for_partial" envconfig:"MIN_MONTHS_FOR_PARTIAL" validate:"gte=0"`
	Workers             int    `yaml:"workers" envconfig:"WORKERS" validate:"gte=0,lte=256"`
	CompanyColumn       string `yaml:"company_column" envconfig:"COMPANY_COLUMN" validate:"required"`
	DateColumn          string `yaml:"date_column" envconfig:"DATE_COLUMN" validate:"required"`
	PriceColumn         string `yaml:"price_column" envconfig:"PRICE_COLUMN" validate:"required"`
	ReturnColumn        string `yaml:"return_column" envconfig:"RETURN_COLUMN" validate:"required"`
}

// InputConfig controls how input files are read
type InputConfig struct {
	Sheet             string `yaml:"sheet" envconfig:"SHEET"`
	Delimiter         string `yaml:"delimiter" envconfig:"DELIMITER" validate:"max=1"`
	HeaderScanRows    int    `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS" validate:"gte=0"`
	RequireGovernance bool   `yaml:"require_governance" envconfig:"REQUIRE_GOVERNANCE"`
	ScoreColumn       string `yaml:"score_column" envconfig:"SCORE_COLUMN" validate:"required"`
	SectorColumn      string `yaml:"sector_column" envconfig:"SECTOR_COLUMN" validate:"required"`
}

// AnalyticsConfig holds the thresholds of the governance analyses
type AnalyticsConfig struct {
	MinObservations      int     `yaml:"min_observations" envconfig:"MIN_OBSERVATIONS" validate:"gte=3"`
	ClipMode             string  `yaml:"clip_mode" envconfig:"CLIP_MODE" validate:"oneof=none hard quantile"`
	SignificanceLevel    float64 `yaml:"significance_level" envconfig:"SIGNIFICANCE_LEVEL" validate:"gt=0,lt=1"`
	CorrelationThreshold float64 `yaml:"correlation_threshold" envconfig:"CORRELATION_THRESHOLD" validate:"gte=0,lte=1"`
	TopN                 int     `yaml:"top_n" envconfig:"TOP_N" validate:"gte=1"`
}

// ExportConfig controls written reports
type ExportConfig struct {
	Precision int    `yaml:"precision" envconfig:"PRECISION" validate:"gte=0,lte=10"`
	BOMPrefix bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
	Format    string `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv json"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// TelemetryConfig controls tracing and metrics
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingEnabled bool    `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	SampleRate     float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE" validate:"gte=0,lte=1"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	UploadsDir string `yaml:"uploads_dir" envconfig:"UPLOADS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

var configValidator = validator.New()

// Load builds the configuration from defaults, the config file when one is
// found, and ESG_* environment variables, in that order.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Only variables that are set override the file and defaults.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Returns: ReturnsConfig{
			MinMonthsPerYear:    DefaultMinMonthsPerYear,
			PartialPolicy:       DefaultPartialPolicy,
			MinMonthsForPartial: DefaultMinMonthsForPartial,
			Workers:             DefaultWorkers,
			CompanyColumn:       DefaultCompanyColumn,
			DateColumn:          DefaultDateColumn,
			PriceColumn:         DefaultPriceColumn,
			ReturnColumn:        DefaultReturnColumn,
		},
		Input: InputConfig{
			Delimiter:      ",",
			HeaderScanRows: DefaultHeaderScanRows,
			ScoreColumn:    DefaultScoreColumn,
			SectorColumn:   DefaultSectorColumn,
		},
		Analytics: AnalyticsConfig{
			MinObservations:      DefaultMinObservations,
			ClipMode:             DefaultClipMode,
			SignificanceLevel:    DefaultSignificanceLevel,
			CorrelationThreshold: DefaultCorrelationThreshold,
			TopN:                 DefaultTopN,
		},
		Export: ExportConfig{
			Precision: DefaultExportPrecision,
			BOMPrefix: true,
			Format:    "csv",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
			MaxUploadBytes:  DefaultMaxUploadBytes,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			Enabled:        true,
			ServiceName:    ServiceName,
			Environment:    "development",
			TracingEnabled: false,
			MetricsEnabled: true,
			SampleRate:     1.0,
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			ReportsDir: DefaultReportsDir,
			UploadsDir: DefaultUploadsDir,
			LogsDir:    DefaultLogsDir,
		},
	}
}
