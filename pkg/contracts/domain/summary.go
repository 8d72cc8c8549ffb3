package domain

import "time"

// Fixed labels used by the aggregates when a grouping key is empty.
const (
	UnassignedPerson = "Sin Asignar"
	UnknownClient    = "Otros"
)

// HealthyMarginPercent is the margin threshold above which a month or client
// is considered healthy.
const HealthyMarginPercent = 20.0

// MarginBand classifies a margin percentage.
type MarginBand string

const (
	MarginBandHealthy  MarginBand = "healthy"
	MarginBandLow      MarginBand = "low"
	MarginBandNegative MarginBand = "negative"
)

// BandFor returns the band for a margin percentage.
func BandFor(marginPercent float64) MarginBand {
	switch {
	case marginPercent >= HealthyMarginPercent:
		return MarginBandHealthy
	case marginPercent > 0:
		return MarginBandLow
	default:
		return MarginBandNegative
	}
}

// TeamWorkload is the per-person workload row.
type TeamWorkload struct {
	Label           string  `json:"label"`
	ProjectCount    int     `json:"project_count"`
	Billing         float64 `json:"billing"`
	ProgressSum     float64 `json:"progress_sum"`
	WorkloadPercent float64 `json:"workload_percent"`
	AverageProgress float64 `json:"average_progress"`
}

// TypeBreakdown is the per-type billing row.
type TypeBreakdown struct {
	Label         string  `json:"label"`
	ProjectCount  int     `json:"project_count"`
	Billing       float64 `json:"billing"`
	WeightPercent float64 `json:"weight_percent"`
}

// StatusShare is the per-status count row.
type StatusShare struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// MonthlyForecast is the per-month financial row, keyed YYYY-MM.
type MonthlyForecast struct {
	Month         string  `json:"month"`
	ProjectCount  int     `json:"project_count"`
	Billing       float64 `json:"billing"`
	TotalCost     float64 `json:"total_cost"`
	Margin        float64 `json:"margin"`
	MarginPercent float64 `json:"margin_percent"`
	Healthy       bool    `json:"healthy"`
}

// ClientProfitability is the per-client financial row.
type ClientProfitability struct {
	Label         string     `json:"label"`
	ProjectCount  int        `json:"project_count"`
	Billing       float64    `json:"billing"`
	Margin        float64    `json:"margin"`
	MarginPercent float64    `json:"margin_percent"`
	Band          MarginBand `json:"band"`
}

// DashboardKPIs are the headline numbers.
type DashboardKPIs struct {
	ActiveProjects   int     `json:"active_projects"`
	TotalBilling     float64 `json:"total_billing"`
	CriticalProjects int     `json:"critical_projects"`
}

// DashboardSummary bundles every aggregate computed over one filtered set.
type DashboardSummary struct {
	GeneratedAt  time.Time             `json:"generated_at"`
	ProjectCount int                   `json:"project_count"`
	KPIs         DashboardKPIs         `json:"kpis"`
	Team         []TeamWorkload        `json:"team"`
	Types        []TypeBreakdown       `json:"types"`
	Statuses     []StatusShare         `json:"statuses"`
	Monthly      []MonthlyForecast     `json:"monthly"`
	Clients      []ClientProfitability `json:"clients"`
	Critical     []Project             `json:"critical"`
}

// PersonDigest lists the projects of one assigned person.
type PersonDigest struct {
	Person   string    `json:"person"`
	Projects []Project `json:"projects"`
}

// RefreshInfo describes the refresh that produced the current data.
type RefreshInfo struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	RowCount    int       `json:"row_count"`
	Restored    bool      `json:"restored,omitempty"`
}
