package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"projectpulse/internal/dataprocessing"
	apperrors "projectpulse/internal/errors"
	"projectpulse/internal/exporter"
	"projectpulse/internal/middleware"
)

// ExportHandler streams the filtered dashboard as a downloadable file.
type ExportHandler struct {
	service      DashboardService
	exporter     *exporter.Exporter
	validator    *middleware.QueryValidator
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
}

// NewExportHandler creates an export handler.
func NewExportHandler(service DashboardService, exp *exporter.Exporter, validator *middleware.QueryValidator, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{
		service:      service,
		exporter:     exp,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "export_handler")),
	}
}

// Routes returns the export routes.
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ExportQuery)
	r.Get("/{format}", h.Export)
	return r
}

// ExportQuery handles GET /api/export?format=csv; xlsx is the default.
func (h *ExportHandler) ExportQuery(w http.ResponseWriter, r *http.Request) {
	name, ok := h.validator.ValidateEnum(w, r, "format",
		[]string{string(exporter.FormatXLSX), string(exporter.FormatCSV), string(exporter.FormatJSON)},
		string(exporter.FormatXLSX))
	if !ok {
		return
	}
	h.export(w, r, exporter.Format(name))
}

// Export handles GET /api/export/{format}
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.ErrValidation("format", err.Error()))
		return
	}
	h.export(w, r, format)
}

func (h *ExportHandler) export(w http.ResponseWriter, r *http.Request, format exporter.Format) {
	f, ok := h.validator.ProjectFilter(w, r)
	if !ok {
		return
	}
	projects, err := h.service.Projects(f)
	if err != nil {
		serviceErrorTo(h.errorHandler, w, r, err)
		return
	}
	summary, err := h.service.Summary(f)
	if err != nil {
		serviceErrorTo(h.errorHandler, w, r, err)
		return
	}

	// buffered so a failed export still gets a problem response
	var buf bytes.Buffer
	if err := h.exporter.Write(r.Context(), &buf, format, dataprocessing.SortByDeadline(projects), summary); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	at, ok := h.service.ReferenceTime()
	if !ok {
		at = time.Now()
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(at)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export download interrupted",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
	}
}
