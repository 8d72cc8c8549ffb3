package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"projectpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ProjectHeaders are the CSV and workbook columns of the project list.
var ProjectHeaders = []string{
	"ID", "Cliente", "Marca", "Punto de venta", "Responsable", "Estado", "Tipo",
	"Previos", "Diseño", "Producción", "Ejecución", "Fin",
	"Facturación", "Costes", "Estructura", "Coste total", "Margen", "Margen %",
	"Progreso %", "Crítico", "Observaciones", "Presentación",
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// Write writes headers and records to w.
func (c *CSVWriter) Write(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes a CSV file, creating its directory.
func (c *CSVWriter) WriteFile(path string, options WriteOptions) error {
	c.logger.Info("writing CSV file",
		slog.String("path", path),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := c.Write(file, options); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteProjects writes the project list with a BOM. Amounts use a dot
// decimal separator so spreadsheets parse them as numbers.
func (c *CSVWriter) WriteProjects(w io.Writer, projects []domain.Project) error {
	records := make([][]string, 0, len(projects))
	for _, p := range projects {
		records = append(records, projectRecord(p))
	}
	return c.Write(w, WriteOptions{
		Headers:   ProjectHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}

func projectRecord(p domain.Project) []string {
	return []string{
		p.ID, p.Client, p.Brand, p.PointOfSale, p.Person, p.Status, p.Type,
		Date(p.Previos), Date(p.Diseno), Date(p.Produccion), Date(p.Ejecucion), Date(p.Fin),
		formatFloat(p.Facturacion), formatFloat(p.Costes), formatFloat(p.Estructura),
		formatFloat(p.TotalCost), formatFloat(p.Margin), formatFloat(p.MarginPercent),
		strconv.FormatFloat(p.Progress, 'f', 0, 64), formatBool(p.IsCritical),
		p.Notes, p.PresentationContent,
	}
}
