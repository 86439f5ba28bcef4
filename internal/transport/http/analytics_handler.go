package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "esgcli/internal/errors"
	"esgcli/internal/middleware"
	"esgcli/internal/returns"
	"esgcli/internal/services"
)

// FormatMarkdown renders analytics as markdown
const FormatMarkdown = "markdown"

// AnalyticsHTTPRequest is an input table plus the analyses to run on its
// engine output.
type AnalyticsHTTPRequest struct {
	Columns  []string                  `json:"columns" validate:"required,min=1,dive,required"`
	Rows     [][]any                   `json:"rows"`
	Config   services.Overrides        `json:"config"`
	Analysis services.AnalyticsRequest `json:"analysis"`
}

// AnalyticsResponse carries the engine statistics and the summaries.
type AnalyticsResponse struct {
	Stats     returns.Stats       `json:"stats"`
	Summaries *services.Summaries `json:"summaries"`
}

// AnalyticsHandler serves the governance analytics endpoint
type AnalyticsHandler struct {
	returns      ReturnsServiceInterface
	analytics    AnalyticsServiceInterface
	topN         int
	validator    *middleware.Validator
	queryParams  *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewAnalyticsHandler creates a new analytics handler. topN bounds the
// correlation lists of markdown responses.
func NewAnalyticsHandler(returnsSvc ReturnsServiceInterface, analyticsSvc AnalyticsServiceInterface, topN int, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *AnalyticsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsHandler{
		returns:      returnsSvc,
		analytics:    analyticsSvc,
		topN:         topN,
		validator:    middleware.NewValidator(),
		queryParams:  middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "analytics_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analytics routes
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(middleware.ContentTypeValidator(h.errorHandler, "application/json")).Post("/", h.Analyze)
	return r
}

// Analyze handles POST /api/analytics
func (h *AnalyticsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	format, ok := h.queryParams.ValidateEnum(w, r, "format", []string{FormatJSON, FormatMarkdown}, FormatJSON)
	if !ok {
		return
	}
	topN, ok := h.queryParams.ValidateInt(w, r, "top", 1, 100, h.topN)
	if !ok {
		return
	}

	var req AnalyticsHTTPRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	table := TableRequest{Columns: req.Columns, Rows: req.Rows, Config: req.Config}.Table()
	report, err := h.returns.Compute(r.Context(), table, req.Config)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summaries, err := h.analytics.Summaries(r.Context(), report.Table, req.Analysis)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "analytics computed",
		slog.Int("samples", summaries.Samples),
		slog.Int("skipped", len(summaries.Skipped)))

	if format == FormatMarkdown {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(summaries.Markdown(topN)))
		return
	}
	render.JSON(w, r, AnalyticsResponse{Stats: report.Stats, Summaries: summaries})
}
