package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "esgcli/internal/errors"
	"esgcli/internal/infrastructure"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Equal(t, apperrors.ContentTypeProblem, rec.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "header is propagated", incoming: "req-123"},
		{name: "missing header is generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenReqID, seenTraceID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenReqID = GetRequestID(r.Context())
				seenTraceID = infrastructure.GetTraceID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.NotEmpty(t, seenReqID)
			assert.Equal(t, seenReqID, seenTraceID)
			assert.Equal(t, seenReqID, rec.Header().Get(RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seenReqID)
			} else {
				assert.Len(t, seenReqID, 36)
			}
		})
	}
}

func TestStructuredLogger(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{name: "success logs info", status: http.StatusOK, level: "INFO"},
		{name: "client error logs warn", status: http.StatusBadRequest, level: "WARN"},
		{name: "server error logs error", status: http.StatusInternalServerError, level: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := RequestID(StructuredLogger(testLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/returns", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			var record map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, tt.level, record["level"])
			assert.Equal(t, "request completed", record["msg"])
			assert.Equal(t, "/api/v1/returns", record["path"])
			assert.Equal(t, float64(tt.status), record["status"])
		})
	}
}

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestID(Recoverer(apperrors.NewErrorHandler(testLogger(&buf), false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, apperrors.TypeInternal, body["type"])
	assert.NotEmpty(t, body["trace_id"])
	assert.NotContains(t, body, "panic")
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRecovererAbortHandler(t *testing.T) {
	handler := Recoverer(apperrors.NewErrorHandler(nil, false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRateLimiter(t *testing.T) {
	var buf bytes.Buffer
	limiter := NewRateLimiter(0.001, 2, testLogger(&buf))
	handler := limiter.Handler(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/returns", nil))
		codes = append(codes, rec.Code)
		last = rec
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "1", last.Header().Get("Retry-After"))
	body := decodeProblem(t, last)
	assert.Equal(t, apperrors.TypeRateLimit, body["type"])
	assert.Contains(t, buf.String(), "rate limit exceeded")
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		name        string
		timeout     time.Duration
		hasDeadline bool
	}{
		{name: "positive timeout sets deadline", timeout: time.Second, hasDeadline: true},
		{name: "zero timeout leaves context", timeout: 0, hasDeadline: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ok bool
			handler := Timeout(tt.timeout)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, ok = r.Context().Deadline()
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.hasDeadline, ok)
		})
	}
}

func TestTimeoutExpiredContextMapsTo504(t *testing.T) {
	errHandler := apperrors.NewErrorHandler(nil, false)
	handler := Timeout(time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		errHandler.HandleError(w, r, r.Context().Err())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	errHandler := apperrors.NewErrorHandler(nil, false)
	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			errHandler.HandleError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "within limit", body: "12345678", want: http.StatusOK},
		{name: "over limit", body: "123456789", want: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed bool
	}{
		{name: "no origins allows all", method: http.MethodGet, origin: "http://a.test", wantStatus: http.StatusOK, wantAllowed: true},
		{name: "listed origin allowed", origins: []string{"http://a.test"}, method: http.MethodGet, origin: "http://a.test", wantStatus: http.StatusOK, wantAllowed: true},
		{name: "unlisted origin gets no headers", origins: []string{"http://a.test"}, method: http.MethodGet, origin: "http://b.test", wantStatus: http.StatusOK},
		{name: "allowed preflight", origins: []string{"http://a.test"}, method: http.MethodOptions, origin: "http://a.test", preflight: true, wantStatus: http.StatusNoContent, wantAllowed: true},
		{name: "rejected preflight", origins: []string{"http://a.test"}, method: http.MethodOptions, origin: "http://b.test", preflight: true, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(CORSConfig{AllowedOrigins: tt.origins})(http.HandlerFunc(okHandler))
			req := httptest.NewRequest(tt.method, "/api/v1/returns", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantAllowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, RequestIDHeader, rec.Header().Get("Access-Control-Expose-Headers"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestOTelMiddleware(t *testing.T) {
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName: "esgcli-test",
	}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	mw, err := NewOTelMiddleware(providers)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(mw.Handler)
	r.Get("/api/v1/health", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRoutePattern(t *testing.T) {
	var pattern string
	r := chi.NewRouter()
	r.Get("/api/v1/analytics/{kind}", func(w http.ResponseWriter, req *http.Request) {
		pattern = routePattern(req)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/analytics/quintiles", nil))
	assert.Equal(t, "/api/v1/analytics/{kind}", pattern)

	req := httptest.NewRequest(http.MethodGet, "/plain", nil)
	assert.Equal(t, "/plain", routePattern(req))
}

type returnsRequest struct {
	MinMonths int    `json:"min_months" validate:"min=1,max=12"`
	Policy    string `json:"policy" validate:"required,oneof=full partial"`
}

func TestValidatorValidateStruct(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.ValidateStruct(returnsRequest{MinMonths: 12, Policy: "full"}))

	err := v.ValidateStruct(returnsRequest{MinMonths: 13, Policy: "weekly"})
	require.Error(t, err)

	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	details, ok := apiErr.Details.(apperrors.ValidationErrors)
	require.True(t, ok)
	fields := make([]string, 0, len(details.Errors))
	for _, e := range details.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"min_months", "policy"}, fields)
}

func TestContentTypeValidator(t *testing.T) {
	handler := ContentTypeValidator(apperrors.NewErrorHandler(nil, false), "application/json", "multipart/form-data")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{name: "json accepted", method: http.MethodPost, contentType: "application/json; charset=utf-8", want: http.StatusOK},
		{name: "multipart accepted", method: http.MethodPost, contentType: "multipart/form-data; boundary=x", want: http.StatusOK},
		{name: "text rejected", method: http.MethodPost, contentType: "text/plain", want: http.StatusUnsupportedMediaType},
		{name: "missing rejected", method: http.MethodPost, want: http.StatusUnsupportedMediaType},
		{name: "get skips check", method: http.MethodGet, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestQueryParamValidator(t *testing.T) {
	v := NewQueryParamValidator(nil, apperrors.NewErrorHandler(nil, false))

	t.Run("int default", func(t *testing.T) {
		rec := httptest.NewRecorder()
		n, ok := v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/", nil), "top", 1, 100, 10)
		assert.True(t, ok)
		assert.Equal(t, 10, n)
	})

	t.Run("int out of range", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?top=500", nil), "top", 1, 100, 10)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("int not a number", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?top=abc", nil), "top", 1, 100, 10)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("enum allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s, ok := v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?clip=hard", nil), "clip", []string{"none", "hard", "quantile"}, "none")
		assert.True(t, ok)
		assert.Equal(t, "hard", s)
	})

	t.Run("enum rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/?clip=soft", nil), "clip", []string{"none", "hard", "quantile"}, "none")
		assert.False(t, ok)
		body := decodeProblem(t, rec)
		assert.Equal(t, apperrors.TypeValidation, body["type"])
	})
}

func TestRealIP(t *testing.T) {
	var remote string
	handler := RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remote = r.RemoteAddr
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "203.0.113.7")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.7", remote)
}
