package source

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"projectpulse/internal/config"
	apperrors "projectpulse/internal/errors"
	"projectpulse/internal/shared/testutil"
)

func writeWorkbook(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheetName != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheetName))
	}
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		require.NoError(t, f.SetSheetRow(sheetName, fmt.Sprintf("A%d", i+1), &cells))
	}

	path := filepath.Join(t.TempDir(), "proyectos.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestWorkbookSource_Fetch(t *testing.T) {
	path := writeWorkbook(t, "Hoja 1", testutil.ProjectSheetRows())
	logger, _ := testutil.NewTestLogger(t)

	src := NewWorkbookSource(path, "Hoja 1", logger)
	table, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, config.SourceWorkbook, src.Name())
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, "Beta Foods", table.Rows[1].ByHeader("Cliente"))
	assert.Equal(t, "12.000,00 €", table.Rows[0].ByHeader("Previsión facturación"))
}

func TestWorkbookSource_FallsBackToFirstSheet(t *testing.T) {
	path := writeWorkbook(t, "Export", testutil.ProjectSheetRows())
	logger, handler := testutil.NewTestLogger(t)

	src := NewWorkbookSource(path, "Hoja 1", logger)
	table, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.True(t, handler.ContainsMessage("configured sheet not found, using first sheet"))
}

func TestWorkbookSource_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		src := NewWorkbookSource(filepath.Join(t.TempDir(), "nope.xlsx"), "Hoja 1", nil)
		_, err := src.Fetch(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFetch))
	})

	t.Run("empty sheet", func(t *testing.T) {
		path := writeWorkbook(t, "Hoja 1", nil)
		src := NewWorkbookSource(path, "Hoja 1", nil)
		_, err := src.Fetch(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFetch))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		src := NewWorkbookSource("unused.xlsx", "Hoja 1", nil)
		_, err := src.Fetch(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNew(t *testing.T) {
	path := writeWorkbook(t, "Hoja 1", testutil.ProjectSheetRows())

	src, err := New(context.Background(), config.SheetsConfig{Source: config.SourceWorkbook, WorkbookPath: path}, nil)
	require.NoError(t, err)
	assert.IsType(t, &WorkbookSource{}, src)

	_, err = New(context.Background(), config.SheetsConfig{Source: config.SourceWorkbook, WorkbookPath: filepath.Join(t.TempDir(), "x.xlsx")}, nil)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeConfig, appErr.Type)

	_, err = New(context.Background(), config.SheetsConfig{Source: config.SourceSheets, CredentialsFile: filepath.Join(t.TempDir(), "sa.json")}, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), config.SheetsConfig{Source: "ftp"}, nil)
	assert.Error(t, err)
}
