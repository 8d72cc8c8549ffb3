package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"projectpulse/internal/config"
	apperrors "projectpulse/internal/errors"
	"projectpulse/internal/sheet"
)

// WorkbookSource reads the project sheet from a local .xlsx export.
type WorkbookSource struct {
	path      string
	sheetName string
	logger    *slog.Logger
}

// NewWorkbookSource creates a source for path. When sheetName is missing
// from the workbook the first sheet is used.
func NewWorkbookSource(path, sheetName string, logger *slog.Logger) *WorkbookSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookSource{
		path:      path,
		sheetName: sheetName,
		logger:    logger.With(slog.String("component", "workbook_source")),
	}
}

// Name identifies the source in refresh records.
func (w *WorkbookSource) Name() string {
	return config.SourceWorkbook
}

// Fetch opens the workbook on every call so edits are picked up.
func (w *WorkbookSource) Fetch(ctx context.Context) (*sheet.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, apperrors.NewFetchError(fmt.Sprintf("failed to open workbook %s", w.path), err)
	}
	defer f.Close()

	name := w.resolveSheet(f)
	if name == "" {
		return nil, apperrors.NewFetchError("workbook has no sheets", sheet.ErrNoData)
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, apperrors.NewFetchError(fmt.Sprintf("failed to read sheet %s", name), err)
	}

	table, err := sheet.NewTable(rows)
	if err != nil {
		return nil, apperrors.NewFetchError(fmt.Sprintf("sheet %s is empty", name), err)
	}

	w.logger.DebugContext(ctx, "workbook read",
		slog.String("sheet", name),
		slog.Int("rows", table.Len()))
	return table, nil
}

func (w *WorkbookSource) resolveSheet(f *excelize.File) string {
	list := f.GetSheetList()
	for _, name := range list {
		if name == w.sheetName {
			return name
		}
	}
	if len(list) == 0 {
		return ""
	}
	if w.sheetName != "" {
		w.logger.Warn("configured sheet not found, using first sheet",
			slog.String("wanted", w.sheetName),
			slog.String("using", list[0]))
	}
	return list[0]
}
