package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apperrors "esgcli/internal/errors"
	"esgcli/internal/files"
)

// ReportsLister lists the saved reports
type ReportsLister interface {
	Reports() ([]files.FileInfo, error)
}

// ReportsResponse lists the saved reports, newest listed by Latest.
type ReportsResponse struct {
	Reports []files.FileInfo `json:"reports"`
	Latest  string           `json:"latest,omitempty"`
}

// ReportsHandler serves the saved report listing
type ReportsHandler struct {
	lister       ReportsLister
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(lister ReportsLister, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *ReportsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportsHandler{
		lister:       lister,
		logger:       logger.With(slog.String("component", "reports_handler")),
		errorHandler: errorHandler,
	}
}

// List handles GET /api/reports
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.lister.Reports()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if reports == nil {
		reports = []files.FileInfo{}
	}

	resp := ReportsResponse{Reports: reports}
	if latest, ok := files.GetLatestFile(reports); ok {
		resp.Latest = latest.Name
	}
	h.logger.DebugContext(r.Context(), "reports listed", slog.Int("count", len(reports)))
	render.JSON(w, r, resp)
}
