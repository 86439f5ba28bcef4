package middleware

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "esgcli/internal/errors"
	"esgcli/internal/infrastructure"
)

// Validator checks request structs against their validate tags and reports
// fields by their JSON names.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new request validator
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateStruct returns a 400 APIError listing every invalid field.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		return apperrors.FromValidator(verrs)
	}
	return apperrors.InvalidRequestWithError(err)
}

// ContentTypeValidator rejects requests with a body whose media type is not
// one of contentTypes.
func ContentTypeValidator(handler *apperrors.ErrorHandler, contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err == nil {
				for _, ct := range contentTypes {
					if strings.EqualFold(mediaType, ct) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			handler.HandleError(w, r, apperrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				"UNSUPPORTED_MEDIA_TYPE",
				"Unsupported content type",
				map[string]interface{}{"allowed": contentTypes},
			))
		})
	}
}

// QueryParamValidator validates query parameters and answers invalid ones
// with a problem response.
type QueryParamValidator struct {
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{
		logger:       infrastructure.WithComponent(logger, "query_validator"),
		errorHandler: errorHandler,
	}
}

// ValidateInt reads an integer parameter within [min, max]. ok is false when
// a response has been written.
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max, defaultValue int) (int, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		v.errorHandler.HandleError(w, r, apperrors.ErrValidation(param, "must be a valid integer"))
		return 0, false
	}
	if n < min || n > max {
		v.errorHandler.HandleError(w, r, apperrors.ErrValidation(param, fmt.Sprintf("must be between %d and %d", min, max)))
		return 0, false
	}
	return n, true
}

// ValidateEnum reads a parameter restricted to allowed values.
func (v *QueryParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, defaultValue string) (string, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}
	for _, a := range allowed {
		if value == a {
			return value, true
		}
	}
	v.logger.DebugContext(r.Context(), "invalid query parameter", "param", param, "value", value)
	v.errorHandler.HandleError(w, r, apperrors.ErrValidation(param, "must be one of: "+strings.Join(allowed, ", ")))
	return "", false
}
