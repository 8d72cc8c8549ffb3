package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved file system locations used by the service.
type Paths struct {
	BaseDir      string
	DataDir      string
	LogsDir      string
	ReportsDir   string
	SnapshotFile string
	LogFile      string
}

// ResolvePaths turns the configured, possibly relative, paths into absolute
// ones. Relative paths are resolved against Paths.BaseDir, or the working
// directory when no base is configured.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p, fallback string) string {
		if p == "" {
			p = fallback
		}
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:      base,
		DataDir:      resolve(c.Paths.DataDir, DefaultDataDir),
		LogsDir:      resolve(c.Paths.LogsDir, DefaultLogsDir),
		ReportsDir:   resolve(c.Paths.ReportsDir, DefaultReportsDir),
		SnapshotFile: resolve(c.Snapshot.FilePath, DefaultSnapshotFile),
		LogFile:      resolve(c.Logging.FilePath, "logs/app.log"),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.LogsDir,
		p.ReportsDir,
		filepath.Dir(p.SnapshotFile),
		filepath.Dir(p.LogFile),
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// ReportPath returns the path of a file in the reports directory
func (p *Paths) ReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
