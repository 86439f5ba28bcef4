package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		env         map[string]string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 12, cfg.Returns.MinMonthsPerYear)
				assert.Equal(t, "strict", cfg.Returns.PartialPolicy)
				assert.Equal(t, 6, cfg.Returns.MinMonthsForPartial)
				assert.Equal(t, "Company Name", cfg.Returns.CompanyColumn)
				assert.Equal(t, "AnnualReturnPct", cfg.Returns.ReturnColumn)
				assert.Equal(t, 30, cfg.Analytics.MinObservations)
				assert.Equal(t, "quantile", cfg.Analytics.ClipMode)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, 2, cfg.Export.Precision)
			},
		},
		{
			name: "file overlays defaults",
			file: `
returns:
  partial_policy: annualize_by_span
  min_months_for_partial: 3
server:
  port: 9000
  read_timeout: 5s
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "annualize_by_span", cfg.Returns.PartialPolicy)
				assert.Equal(t, 3, cfg.Returns.MinMonthsForPartial)
				assert.Equal(t, 12, cfg.Returns.MinMonthsPerYear, "unset keys keep defaults")
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
			},
		},
		{
			name: "env overrides file",
			file: `
returns:
  partial_policy: ytd_partial
  workers: 2
`,
			env: map[string]string{
				"ESG_RETURNS_PARTIAL_POLICY":    "annualize_by_span",
				"ESG_SERVER_PORT":               "7070",
				"ESG_SECURITY_ALLOWED_ORIGINS":  "http://a.test,http://b.test",
				"ESG_ANALYTICS_MIN_OBSERVATIONS": "10",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "annualize_by_span", cfg.Returns.PartialPolicy)
				assert.Equal(t, 2, cfg.Returns.Workers)
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, 10, cfg.Analytics.MinObservations)
			},
		},
		{
			name:    "unknown policy in file",
			file:    "returns:\n  partial_policy: monthly\n",
			wantErr: true,
		},
		{
			name:    "invalid port from env",
			env:     map[string]string{"ESG_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"ESG_RETURNS_WORKERS": "many"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "returns: [",
			wantErr: true,
		},
		{
			name:    "cors without origins",
			file:    "security:\n  enable_cors: true\n  allowed_origins: []\n",
			wantErr: true,
		},
		{
			name: "file output gets default path",
			file: "logging:\n  output: both\n  file_path: \"\"\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadUsesConfigFileEnv(t *testing.T) {
	path := writeConfigFile(t, "returns:\n  min_months_per_year: 10\n")
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Returns.MinMonthsPerYear)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
}
