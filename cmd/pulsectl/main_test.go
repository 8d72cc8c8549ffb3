package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"projectpulse/internal/shared/testutil"
	"projectpulse/pkg/contracts"
	"projectpulse/pkg/contracts/domain"
)

// writeConfig stores the fixture sheet as a workbook and returns a config
// file pointing at it.
func writeConfig(t *testing.T) (configPath, baseDir string) {
	t.Helper()
	baseDir = t.TempDir()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Hoja 1"))
	for i, row := range testutil.ProjectSheetRows() {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		require.NoError(t, f.SetSheetRow("Hoja 1", fmt.Sprintf("A%d", i+1), &cells))
	}
	workbook := filepath.Join(baseDir, "proyectos.xlsx")
	require.NoError(t, f.SaveAs(workbook))

	configPath = filepath.Join(baseDir, "config.yaml")
	yaml := fmt.Sprintf(`paths:
  base_dir: %q
sheets:
  source: workbook
  workbook_path: %q
  sheet_name: "Hoja 1"
logging:
  level: error
`, baseDir, workbook)
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0644))
	return configPath, baseDir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, contracts.Version)
}

func TestSummaryCmd(t *testing.T) {
	cfg, _ := writeConfig(t)

	out, err := run(t, "summary", "--config", cfg)
	require.NoError(t, err)

	var summary domain.DashboardSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 3, summary.ProjectCount)
	assert.Len(t, summary.Clients, 2)
}

func TestProjectsCmd(t *testing.T) {
	cfg, _ := writeConfig(t)

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "all projects",
			args:     nil,
			contains: []string{"CLIENTE", "Acme Home", "Beta", "Acme Pro"},
		},
		{
			name:     "client filter",
			args:     []string{"--client", "beta"},
			contains: []string{"Beta Foods"},
			excludes: []string{"Acme Home"},
		},
		{
			name:     "person filter",
			args:     []string{"--person", "ANA"},
			contains: []string{"Ana García"},
			excludes: []string{"Luis Pérez"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"projects", "--config", cfg}, tt.args...)
			out, err := run(t, args...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestExportCmd(t *testing.T) {
	cfg, baseDir := writeConfig(t)

	out, err := run(t, "export", "--config", cfg, "--format", "csv")
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(path, baseDir), "export should land under the base dir: %s", path)
	assert.Equal(t, ".csv", filepath.Ext(path))
	assert.FileExists(t, path)
}

func TestExportCmd_UnknownFormat(t *testing.T) {
	cfg, _ := writeConfig(t)

	_, err := run(t, "export", "--config", cfg, "--format", "pdf")
	assert.Error(t, err)
}

func TestSummaryCmd_MissingWorkbook(t *testing.T) {
	cfg, baseDir := writeConfig(t)
	require.NoError(t, os.Remove(filepath.Join(baseDir, "proyectos.xlsx")))

	_, err := run(t, "summary", "--config", cfg)
	assert.Error(t, err)
}
