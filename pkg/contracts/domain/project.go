package domain

import (
	"math"
	"time"
)

// Canonical project statuses produced by the normalizer.
const (
	StatusInProgress = "En curso"
	StatusCompleted  = "Completado"
	StatusPending    = "Pendiente"
	StatusProduction = "Producción"
	StatusDesign     = "Diseño"
	StatusUnknown    = "N/A"
)

// DefaultProjectType is used when a row carries no project type.
const DefaultProjectType = "OTROS"

// Project is one normalized spreadsheet row.
type Project struct {
	ID     string `json:"id" validate:"required"`
	Status string `json:"status"`
	Type   string `json:"type"`

	Previos    *time.Time `json:"previos,omitempty"`
	Diseno     *time.Time `json:"diseno,omitempty"`
	Produccion *time.Time `json:"produccion,omitempty"`
	Ejecucion  *time.Time `json:"ejecucion,omitempty"`
	Fin        *time.Time `json:"fin,omitempty"`

	// Raw date cells, kept for display.
	PreviosRaw string `json:"previos_raw,omitempty"`
	FinRaw     string `json:"fin_raw,omitempty"`

	Facturacion   float64 `json:"facturacion"`
	Costes        float64 `json:"costes"`
	Estructura    float64 `json:"estructura"`
	TotalCost     float64 `json:"total_cost"`
	Margin        float64 `json:"margin"`
	MarginPercent float64 `json:"margin_percent"`

	Progress   float64 `json:"progress"`
	IsCritical bool    `json:"is_critical"`

	PresentationContent string `json:"presentation_content,omitempty"`

	Client      string `json:"client"`
	Brand       string `json:"brand"`
	PointOfSale string `json:"point_of_sale"`
	Person      string `json:"person"`
	Notes       string `json:"notes"`
}

// LifecycleDates returns the five milestone dates in lifecycle order.
func (p Project) LifecycleDates() []*time.Time {
	return []*time.Time{p.Previos, p.Diseno, p.Produccion, p.Ejecucion, p.Fin}
}

// DaysUntilEnd returns ceil((Fin - now) / 24h). The second value is false when
// the project has no end date.
func (p Project) DaysUntilEnd(now time.Time) (int, bool) {
	if p.Fin == nil {
		return 0, false
	}
	return DaysUntil(*p.Fin, now), true
}

// DaysUntil returns the number of whole days, rounded up, from now to t.
func DaysUntil(t, now time.Time) int {
	days := math.Ceil(t.Sub(now).Hours() / 24)
	return int(days)
}

// ProjectFilter holds the user-facing filter criteria. Empty fields match all.
type ProjectFilter struct {
	Person string `json:"person,omitempty" validate:"max=200"`
	Client string `json:"client,omitempty" validate:"max=200"`
	Status string `json:"status,omitempty" validate:"max=100"`
}

// IsZero reports whether the filter has no criteria.
func (f ProjectFilter) IsZero() bool {
	return f.Person == "" && f.Client == "" && f.Status == ""
}

// StatusClass groups canonical statuses into three display classes.
type StatusClass string

const (
	StatusClassActive    StatusClass = "active"
	StatusClassPending   StatusClass = "pending"
	StatusClassCompleted StatusClass = "completed"
)

// DeadlineWindowDays bounds the "days left" badge shown next to a project.
const DeadlineWindowDays = 15
