package http

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"esgcli/internal/config"
	apperrors "esgcli/internal/errors"
	"esgcli/internal/exporter"
	"esgcli/internal/middleware"
	"esgcli/internal/returns"
	"esgcli/internal/services"
	"esgcli/pkg/contracts/domain"
)

// Response formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// UploadIDHeader carries the ID assigned to an upload.
const UploadIDHeader = "X-Upload-ID"

// uploadMemory is the part of a multipart body kept in memory.
const uploadMemory = 8 << 20

// TableRequest is an input table with optional engine overrides.
type TableRequest struct {
	Columns []string          `json:"columns" validate:"required,min=1,dive,required"`
	Rows    [][]any           `json:"rows"`
	Config  services.Overrides `json:"config"`
}

// Table returns the request as an engine input table.
func (req TableRequest) Table() domain.Table {
	return domain.Table{Columns: req.Columns, Rows: req.Rows}
}

// ReturnsResponse is the JSON form of an engine run.
type ReturnsResponse struct {
	UploadID   string                 `json:"upload_id,omitempty"`
	ReportFile string                 `json:"report_file,omitempty"`
	Columns    []string               `json:"columns"`
	Rows       [][]any                `json:"rows"`
	Annual     []returns.AnnualResult `json:"annual"`
	Stats      returns.Stats          `json:"stats"`
}

// ReturnsHandler serves the annual return endpoints
type ReturnsHandler struct {
	service      ReturnsServiceInterface
	writer       *exporter.CSVWriter
	export       config.ExportConfig
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewReturnsHandler creates a new returns handler. writer may be nil, in
// which case uploads cannot be saved as reports.
func NewReturnsHandler(service ReturnsServiceInterface, writer *exporter.CSVWriter, export config.ExportConfig, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *ReturnsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReturnsHandler{
		service:      service,
		writer:       writer,
		export:       export,
		validator:    middleware.NewValidator(),
		logger:       logger.With(slog.String("component", "returns_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the returns routes
func (h *ReturnsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(middleware.ContentTypeValidator(h.errorHandler, "application/json")).Post("/", h.Compute)
	r.With(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data")).Post("/upload", h.Upload)
	return r
}

// Compute handles POST /api/returns
func (h *ReturnsHandler) Compute(w http.ResponseWriter, r *http.Request) {
	format, ok := h.format(w, r, r.URL.Query().Get("format"))
	if !ok {
		return
	}

	var req TableRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Compute(r.Context(), req.Table(), req.Config)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "annual returns computed",
		slog.Int("input_rows", report.Stats.InputRows),
		slog.Int("output_rows", report.Stats.OutputRows),
		slog.String("format", format))
	h.respond(w, r, format, "annual_returns.csv", report, ReturnsResponse{})
}

// Upload handles POST /api/returns/upload. The multipart form carries the
// file in "file" and optional policy, min_months_per_year,
// min_months_for_partial, workers, governance, format and save fields.
func (h *ReturnsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	format, ok := h.format(w, r, r.FormValue("format"))
	if !ok {
		return
	}
	overrides, err := formOverrides(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(overrides); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	save, err := formBool(r, "save")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.ErrValidation("file", "is required"))
		return
	}
	defer file.Close()

	uploadID := uuid.New().String()
	w.Header().Set(UploadIDHeader, uploadID)
	h.logger.InfoContext(r.Context(), "processing upload",
		slog.String("upload_id", uploadID),
		slog.String("file", filepath.Base(header.Filename)),
		slog.Int64("size", header.Size))

	report, err := h.service.ComputeReader(r.Context(), file, header.Filename, overrides)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := ReturnsResponse{UploadID: uploadID}
	path := reportFileName(header.Filename, time.Now())
	if save {
		if h.writer == nil {
			h.errorHandler.HandleError(w, r, apperrors.ErrValidation("save", "report storage is not configured"))
			return
		}
		if err := h.writer.WriteAnnotated(path, report.Table, h.export.Precision); err != nil {
			h.errorHandler.HandleError(w, r, apperrors.NewStorageError("failed to save report", err))
			return
		}
		resp.ReportFile = path
		h.logger.InfoContext(r.Context(), "report saved",
			slog.String("upload_id", uploadID),
			slog.String("report", path))
	}

	h.respond(w, r, format, path, report, resp)
}

// respond writes report as JSON or as the annotated CSV.
func (h *ReturnsHandler) respond(w http.ResponseWriter, r *http.Request, format, filename string, report *returns.Report, resp ReturnsResponse) {
	if format == FormatCSV {
		var buf bytes.Buffer
		if err := exporter.EncodeAnnotated(&buf, report.Table, h.export.Precision, h.export.BOMPrefix); err != nil {
			h.errorHandler.HandleError(w, r, apperrors.NewComputationError("failed to encode annotated table", err))
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	resp.Columns = report.Table.Header()
	resp.Rows = jsonRows(report.Table)
	resp.Annual = report.Annual
	resp.Stats = report.Stats
	render.JSON(w, r, resp)
}

func (h *ReturnsHandler) format(w http.ResponseWriter, r *http.Request, value string) (string, bool) {
	if value == "" {
		value = h.export.Format
	}
	switch value {
	case "", FormatJSON:
		return FormatJSON, true
	case FormatCSV:
		return FormatCSV, true
	}
	h.errorHandler.HandleError(w, r, apperrors.ErrValidation("format", "must be one of: csv, json"))
	return "", false
}

// jsonRows renders the annotated rows with dates as YYYY-MM-DD and the
// annual return as a number or null.
func jsonRows(table *domain.AnnotatedTable) [][]any {
	rows := make([][]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		cells := make([]any, 0, len(row.Values)+1)
		for _, v := range row.Values {
			if t, ok := v.(time.Time); ok {
				v = t.Format("2006-01-02")
			}
			cells = append(cells, v)
		}
		cells = append(cells, row.AnnualReturn)
		rows = append(rows, cells)
	}
	return rows
}

// reportFileName names the annotated report of an input file.
func reportFileName(input string, now time.Time) string {
	name := filepath.Base(input)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." {
		name = "upload"
	}
	return fmt.Sprintf("%s_annual_returns_%s.csv", name, now.Format("20060102"))
}

// decodeJSON decodes the body into v. Oversized bodies keep their
// *http.MaxBytesError so they map to 413.
func decodeJSON(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return err
		}
		return apperrors.InvalidRequestWithError(err)
	}
	return nil
}

func formOverrides(r *http.Request) (services.Overrides, error) {
	var o services.Overrides
	if v := strings.TrimSpace(r.FormValue("policy")); v != "" {
		o.PartialPolicy = &v
	}
	ints := []struct {
		field string
		dst   **int
	}{
		{"min_months_per_year", &o.MinMonthsPerYear},
		{"min_months_for_partial", &o.MinMonthsForPartial},
		{"workers", &o.Workers},
	}
	for _, f := range ints {
		v := strings.TrimSpace(r.FormValue(f.field))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return o, apperrors.ErrValidation(f.field, "must be a valid integer")
		}
		if n < 0 {
			return o, apperrors.ErrValidation(f.field, "must be at least 0")
		}
		*f.dst = &n
	}
	if v := strings.TrimSpace(r.FormValue("governance")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return o, apperrors.ErrValidation("governance", "must be a boolean")
		}
		o.Governance = &b
	}
	return o, nil
}

func formBool(r *http.Request, field string) (bool, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.ErrValidation(field, "must be a boolean")
	}
	return b, nil
}
