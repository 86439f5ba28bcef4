package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths contains the resolved application paths
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	UploadsDir string
	LogsDir    string
}

// ResolvePaths resolves the configured directories. Relative entries are
// joined to BaseDir, which itself defaults to the working directory.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(dir, fallback string) string {
		if dir == "" {
			dir = fallback
		}
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(base, dir)
	}

	return &Paths{
		BaseDir:    base,
		DataDir:    resolve(cfg.DataDir, DefaultDataDir),
		ReportsDir: resolve(cfg.ReportsDir, DefaultReportsDir),
		UploadsDir: resolve(cfg.UploadsDir, DefaultUploadsDir),
		LogsDir:    resolve(cfg.LogsDir, DefaultLogsDir),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ReportsDir,
		p.UploadsDir,
		p.LogsDir,
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetUploadPath returns the path for an uploaded input file
func (p *Paths) GetUploadPath(filename string) string {
	return filepath.Join(p.UploadsDir, filepath.Base(filename))
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetAnnotatedReportPath names the annotated output for an input file, e.g.
// esg_dataset_annual_returns_20240115.csv.
func (p *Paths) GetAnnotatedReportPath(input string, now time.Time) string {
	name := filepath.Base(input)
	name = name[:len(name)-len(filepath.Ext(name))]
	return p.GetReportPath(fmt.Sprintf("%s_annual_returns_%s.csv", name, now.Format("20060102")))
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution() {
	slog.Default().Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("uploads", p.UploadsDir),
			slog.String("logs", p.LogsDir),
		))
}
