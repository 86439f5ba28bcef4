package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/internal/config"
	handlers "esgcli/internal/transport/http"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Telemetry.Enabled = false
	cfg.Security.RateLimit.Enabled = false
	cfg.Logging.Level = "error"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := NewApplication(cfg)
	require.NoError(t, err)
	return app
}

func TestNewApplication(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp(t, cfg)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	require.NotNil(t, app.Services)
	assert.NotNil(t, app.Services.Returns)
	assert.NotNil(t, app.Services.Analytics)
	assert.NotNil(t, app.Services.Health)
	assert.NotNil(t, app.Services.Batch)
	assert.DirExists(t, app.Paths.ReportsDir)
	assert.Equal(t, "127.0.0.1:8080", app.Server.Addr)
}

func TestApplicationRoutes(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, target: "/api/health", wantStatus: http.StatusOK},
		{name: "ready", method: http.MethodGet, target: "/api/health/ready", wantStatus: http.StatusOK},
		{name: "live", method: http.MethodGet, target: "/api/health/live", wantStatus: http.StatusOK},
		{name: "version", method: http.MethodGet, target: "/api/version", wantStatus: http.StatusOK},
		{name: "reports", method: http.MethodGet, target: "/api/reports", wantStatus: http.StatusOK},
		{name: "metrics disabled", method: http.MethodGet, target: "/metrics", wantStatus: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, target: "/api/unknown", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodGet, target: "/api/returns/", wantStatus: http.StatusMethodNotAllowed},
		{name: "empty table", method: http.MethodPost, target: "/api/returns/", body: `{"columns":[]}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestApplicationBodyLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.MaxUploadBytes = 64
	app := newTestApp(t, cfg)

	body := `{"columns":["Company Name","Date","Close Price (USD)"],"rows":[` +
		strings.Repeat(`["Acme","2021-01-31",100],`, 10) + `["Acme","2021-02-28",110]]}`
	req := httptest.NewRequest(http.MethodPost, "/api/returns/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
}

func TestApplicationCORS(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/returns/", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplicationServeAndStop(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Serve(ctx, listener, cancel))

	base := "http://" + listener.Addr().String()
	payload, err := json.Marshal(handlers.TableRequest{
		Columns: []string{"Company Name", "Date", "Close Price (USD)"},
		Rows:    [][]any{{"Acme", "2021-01-31", 100}, {"Acme", "2021-02-28", 110}},
	})
	require.NoError(t, err)

	resp, err := http.Post(base+"/api/returns/?format=json", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out handlers.ReturnsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 2, out.Stats.OutputRows)

	require.NoError(t, app.Stop(context.Background()))
	_, err = http.Get(base + "/api/health")
	assert.Error(t, err)
	assert.NoError(t, ctx.Err())
}
