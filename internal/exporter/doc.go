// Package exporter writes dashboard data to files and streams.
//
// WorkbookExporter builds an .xlsx workbook with one sheet per dashboard
// view. CSVWriter writes the project list as CSV with a UTF-8 BOM so Excel
// opens accents correctly. Formatter renders amounts, percentages and month
// labels for the configured locale.
//
// Example usage:
//
//	f, _ := exporter.NewFormatter("es-ES", "EUR")
//	exp := exporter.New(paths, f, logger)
//	path, err := exp.WriteFile(ctx, exporter.FormatXLSX, projects, summary)
package exporter
