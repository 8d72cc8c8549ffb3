package dataprocessing

import (
	"strconv"
	"strings"
	"time"

	"projectpulse/internal/sheet"
	"projectpulse/pkg/contracts/domain"
)

// Sheet column names read by the normalizer.
const (
	ColumnStatus       = "Status"
	ColumnType         = "Tipo"
	ColumnTypeLong     = "Tipo de proyecto"
	ColumnClient       = "Cliente"
	ColumnBrand        = "Marca"
	ColumnPointOfSale  = "PUNTO VENTA"
	ColumnNotes        = "Observaciones"
	ColumnPrevios      = "Previos"
	ColumnDiseno       = "Diseño"
	ColumnProduccion   = "Produccion"
	ColumnProduccionAc = "Producción"
	ColumnEjecucion    = "Ejecución"
	ColumnFin          = "Fin"
	ColumnBilling      = "Previsión facturación"
	ColumnCosts        = "Costes asociados a proyecto"
	ColumnStructure    = "Coste estructura"

	// DefaultPersonColumn holds the assigned person.
	DefaultPersonColumn = "PROJECT"
)

// Positional columns. The project type and the presentation link are read by
// index because their header cells are not stable in the sheet.
const (
	typePosition              = 5
	presentationPosition      = 16
	presentationScanLastIndex = 25
)

// DefaultCriticalDays is the deadline window for in-progress projects.
const DefaultCriticalDays = 7

var criticalKeywords = []string{"urgente", "crítico", "problema", "incidencia"}

// NormalizerConfig configures a Normalizer.
type NormalizerConfig struct {
	// CriticalDays is the inclusive window, in days until Fin, in which an
	// in-progress project is flagged as critical.
	CriticalDays int
	// PersonColumn is the header holding the assigned person.
	PersonColumn string
}

// Normalizer turns raw rows into projects. It holds no mutable state and is
// safe for concurrent use.
type Normalizer struct {
	criticalDays int
	personColumn string
}

// NewNormalizer creates a normalizer, filling unset config with defaults.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	if cfg.CriticalDays <= 0 {
		cfg.CriticalDays = DefaultCriticalDays
	}
	if cfg.PersonColumn == "" {
		cfg.PersonColumn = DefaultPersonColumn
	}
	return &Normalizer{
		criticalDays: cfg.CriticalDays,
		personColumn: cfg.PersonColumn,
	}
}

// CriticalDays returns the configured deadline window.
func (n *Normalizer) CriticalDays() int {
	return n.criticalDays
}

// NormalizeAll normalizes every data row of the table using one reference
// time for the whole pass. Ids are the 0-based row positions.
func (n *Normalizer) NormalizeAll(table *sheet.Table, now time.Time) []domain.Project {
	if table == nil {
		return []domain.Project{}
	}
	projects := make([]domain.Project, 0, len(table.Rows))
	for i, row := range table.Rows {
		projects = append(projects, n.Normalize(row, i, now))
	}
	return projects
}

// Normalize converts a single row. Unreadable fields fall back to their
// defaults; it never fails.
func (n *Normalizer) Normalize(row sheet.RawRow, index int, now time.Time) domain.Project {
	p := domain.Project{
		ID:          strconv.Itoa(index),
		Status:      CanonicalStatus(row.ByHeader(ColumnStatus)),
		Type:        projectType(row),
		Client:      row.ByHeader(ColumnClient),
		Brand:       row.ByHeader(ColumnBrand),
		PointOfSale: row.ByHeader(ColumnPointOfSale),
		Person:      row.ByHeader(n.personColumn),
		Notes:       row.ByHeader(ColumnNotes),
		PreviosRaw:  row.ByHeader(ColumnPrevios),
		FinRaw:      row.ByHeader(ColumnFin),
	}

	p.Previos = ParseSpanishDate(p.PreviosRaw, now)
	p.Diseno = ParseSpanishDate(row.ByHeader(ColumnDiseno), now)
	p.Produccion = ParseSpanishDate(row.FirstHeader(ColumnProduccion, ColumnProduccionAc), now)
	p.Ejecucion = ParseSpanishDate(row.ByHeader(ColumnEjecucion), now)
	p.Fin = ParseSpanishDate(p.FinRaw, now)

	p.Facturacion = ParseAmount(row.ByHeader(ColumnBilling))
	p.Costes = ParseAmount(row.ByHeader(ColumnCosts))
	p.Estructura = ParseAmount(row.ByHeader(ColumnStructure))
	p.TotalCost = p.Costes + p.Estructura
	p.Margin = p.Facturacion - p.TotalCost
	if p.Facturacion > 0 {
		p.MarginPercent = p.Margin / p.Facturacion * 100
	}

	p.Progress = Progress(p, now)
	p.IsCritical = n.IsCritical(p, now)
	p.PresentationContent = presentationContent(row)

	return p
}

// Progress is the share of lifecycle dates already reached, from 0 to 100.
func Progress(p domain.Project, now time.Time) float64 {
	dates := p.LifecycleDates()
	reached := 0
	for _, d := range dates {
		if d != nil && !d.After(now) {
			reached++
		}
	}
	return float64(reached) / float64(len(dates)) * 100
}

// IsCritical reports whether an in-progress project ends within the
// configured window, or whether its notes mention an incident keyword.
func (n *Normalizer) IsCritical(p domain.Project, now time.Time) bool {
	if p.Status == domain.StatusInProgress {
		if days, ok := p.DaysUntilEnd(now); ok && days >= 0 && days <= n.criticalDays {
			return true
		}
	}
	return HasCriticalKeyword(p.Notes)
}

// HasCriticalKeyword reports whether notes mention an incident keyword.
func HasCriticalKeyword(notes string) bool {
	lower := strings.ToLower(notes)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func projectType(row sheet.RawRow) string {
	if v, ok := row.ByPosition(typePosition); ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	if v := strings.TrimSpace(row.FirstHeader(ColumnType, ColumnTypeLong)); v != "" {
		return v
	}
	return domain.DefaultProjectType
}

func presentationContent(row sheet.RawRow) string {
	if v, ok := row.ByPosition(presentationPosition); ok && v != "" {
		return v
	}
	for i := presentationPosition; i <= presentationScanLastIndex; i++ {
		v, ok := row.ByPosition(i)
		if !ok {
			break
		}
		if strings.Contains(v, "http") || strings.Contains(v, "<iframe") {
			return v
		}
	}
	return ""
}
