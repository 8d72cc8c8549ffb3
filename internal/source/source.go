package source

import (
	"context"
	"fmt"
	"log/slog"

	"projectpulse/internal/config"
	apperrors "projectpulse/internal/errors"
	"projectpulse/internal/sheet"
	"projectpulse/internal/validation"
)

// Source returns the current project sheet.
type Source interface {
	Fetch(ctx context.Context) (*sheet.Table, error)
	Name() string
}

// New builds the source selected by cfg.Source. Local files named in cfg
// must exist when New is called.
func New(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger) (Source, error) {
	files := validation.NewFileValidator(logger)

	switch cfg.Source {
	case config.SourceSheets:
		if cfg.CredentialsFile != "" {
			if err := files.ValidateCredentials(cfg.CredentialsFile); err != nil {
				return nil, apperrors.NewConfigError("invalid sheets credentials", err)
			}
		}
		return NewSheetsSource(ctx, cfg, logger)
	case config.SourceWorkbook:
		if err := files.ValidateWorkbook(cfg.WorkbookPath); err != nil {
			return nil, apperrors.NewConfigError("invalid workbook", err)
		}
		return NewWorkbookSource(cfg.WorkbookPath, cfg.SheetName, logger), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}
