package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", "detail")
	assert.Equal(t, "Invalid request format", err.Error())
	assert.Equal(t, "detail", err.Details)

	nf := NotFoundError("report")
	assert.Equal(t, http.StatusNotFound, nf.StatusCode)
	assert.Equal(t, "report not found", nf.Message)

	v := ErrValidation("policy", "must be one of: strict")
	details, ok := v.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Equal(t, []ValidationError{{Field: "policy", Message: "must be one of: strict"}}, details.Errors)
}

func TestFromValidator(t *testing.T) {
	type request struct {
		Policy    string `validate:"required,oneof=strict ytd_partial"`
		MinMonths int    `validate:"gte=0,lte=12"`
	}

	tests := []struct {
		name string
		req  request
		want []ValidationError
	}{
		{
			name: "required and bound",
			req:  request{MinMonths: 13},
			want: []ValidationError{
				{Field: "Policy", Message: "is required"},
				{Field: "MinMonths", Message: "must be at most 12"},
			},
		},
		{
			name: "oneof",
			req:  request{Policy: "weekly"},
			want: []ValidationError{{Field: "Policy", Message: "must be one of: strict ytd_partial"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.New().Struct(tt.req)
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)

			apiErr := FromValidator(verrs)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Details.(ValidationErrors).Errors)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrRateLimitExceeded)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["error"].(map[string]any)["error_code"])
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusUnprocessableEntity, TypeMissingColumns, "Unprocessable Entity", "missing", "/api/returns").
		WithExtension("columns", []string{"Date"}).
		WithExtension("status", 999)

	data, err := json.Marshal(pd)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "/errors/missing-columns",
		"title": "Unprocessable Entity",
		"status": 422,
		"detail": "missing",
		"instance": "/api/returns",
		"columns": ["Date"]
	}`, string(data))

	bare, err := json.Marshal(&ProblemDetails{Type: TypeInternal, Title: "x", Status: 500})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "/errors/internal", "title": "x", "status": 500}`, string(bare))
}
