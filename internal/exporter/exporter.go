package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"projectpulse/internal/config"
	apperrors "projectpulse/internal/errors"
	"projectpulse/internal/infrastructure"
	"projectpulse/pkg/contracts/domain"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "xlsx", "csv" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType is the HTTP media type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// Filename returns a timestamped file name such as proyectos-20260310-1200.xlsx.
func (f Format) Filename(at time.Time) string {
	return fmt.Sprintf("proyectos-%s.%s", at.Format("20060102-1504"), f)
}

// JSONExport is the document written by FormatJSON.
type JSONExport struct {
	Projects []domain.Project        `json:"projects"`
	Summary  domain.DashboardSummary `json:"summary"`
}

// Exporter writes dashboard data in any supported format.
type Exporter struct {
	paths    *config.Paths
	workbook *WorkbookExporter
	csv      *CSVWriter
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// New creates an exporter writing files under paths.ReportsDir.
func New(paths *config.Paths, formatter *Formatter, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		paths:    paths,
		workbook: NewWorkbookExporter(formatter, logger),
		csv:      NewCSVWriter(logger),
		logger:   logger.With(slog.String("component", "exporter")),
	}
}

// SetMetrics enables export counters.
func (e *Exporter) SetMetrics(m *infrastructure.BusinessMetrics) {
	e.metrics = m
}

// Write renders the export to w.
func (e *Exporter) Write(ctx context.Context, w io.Writer, format Format, projects []domain.Project, summary domain.DashboardSummary) error {
	var err error
	switch format {
	case FormatXLSX:
		err = e.workbook.Write(w, projects, summary)
	case FormatCSV:
		err = e.csv.WriteProjects(w, projects)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(JSONExport{Projects: projects, Summary: summary})
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return apperrors.NewExportError(fmt.Sprintf("%s export failed", format), err)
	}

	if e.metrics != nil {
		e.metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", string(format))))
	}
	return nil
}

// WriteFile writes the export into the reports directory and returns its path.
func (e *Exporter) WriteFile(ctx context.Context, format Format, projects []domain.Project, summary domain.DashboardSummary) (string, error) {
	if err := os.MkdirAll(e.paths.ReportsDir, 0755); err != nil {
		return "", apperrors.NewExportError("failed to create reports directory", err)
	}

	path := e.paths.ReportPath(format.Filename(summary.GeneratedAt))
	file, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewExportError(fmt.Sprintf("failed to create %s", filepath.Base(path)), err)
	}

	if err := e.Write(ctx, file, format, projects, summary); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", apperrors.NewExportError("failed to close export file", err)
	}

	e.logger.InfoContext(ctx, "export written",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("projects", len(projects)))
	return path, nil
}
