package dataprocessing

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"projectpulse/pkg/contracts/domain"
)

// Inactive statuses, compared lower-cased, excluded from the active KPI.
var inactiveStatuses = map[string]bool{
	"completado": true,
	"cancelado":  true,
}

// TeamWorkloads groups projects by the first word of the assigned person,
// upper-cased. Workload is the person's share of total billing.
func TeamWorkloads(projects []domain.Project) []domain.TeamWorkload {
	total := totalBilling(projects)
	index := make(map[string]int)
	rows := make([]domain.TeamWorkload, 0)

	for _, p := range projects {
		key := teamKey(p.Person)
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, domain.TeamWorkload{Label: key})
		}
		rows[i].ProjectCount++
		rows[i].Billing += p.Facturacion
		rows[i].ProgressSum += p.Progress
	}

	for i := range rows {
		if total > 0 {
			rows[i].WorkloadPercent = rows[i].Billing / total * 100
		}
		rows[i].AverageProgress = rows[i].ProgressSum / float64(rows[i].ProjectCount)
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].Label < rows[b].Label })
	return rows
}

func teamKey(person string) string {
	fields := strings.Fields(person)
	if len(fields) == 0 {
		return domain.UnassignedPerson
	}
	return strings.ToUpper(fields[0])
}

// TypeBreakdowns groups billing by upper-cased project type, largest first.
func TypeBreakdowns(projects []domain.Project) []domain.TypeBreakdown {
	total := totalBilling(projects)
	index := make(map[string]int)
	rows := make([]domain.TypeBreakdown, 0)

	for _, p := range projects {
		key := strings.ToUpper(strings.TrimSpace(p.Type))
		if key == "" {
			key = domain.DefaultProjectType
		}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, domain.TypeBreakdown{Label: key})
		}
		rows[i].ProjectCount++
		rows[i].Billing += p.Facturacion
	}

	for i := range rows {
		if total > 0 {
			rows[i].WeightPercent = rows[i].Billing / total * 100
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Billing != rows[b].Billing {
			return rows[a].Billing > rows[b].Billing
		}
		return rows[a].Label < rows[b].Label
	})
	return rows
}

// StatusDistribution counts projects per status, most frequent first. Labels
// are lower-cased with the first letter upper-cased ("En curso", "N/a").
func StatusDistribution(projects []domain.Project) []domain.StatusShare {
	index := make(map[string]int)
	rows := make([]domain.StatusShare, 0)

	for _, p := range projects {
		key := statusLabel(p.Status)
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, domain.StatusShare{Label: key})
		}
		rows[i].Count++
	}

	for i := range rows {
		rows[i].Percent = float64(rows[i].Count) / float64(len(projects)) * 100
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Count != rows[b].Count {
			return rows[a].Count > rows[b].Count
		}
		return rows[a].Label < rows[b].Label
	})
	return rows
}

func statusLabel(status string) string {
	s := strings.ToLower(status)
	if s == "" {
		s = strings.ToLower(domain.StatusUnknown)
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// MonthlyForecasts groups projects by the month of their end date, oldest
// month first. Projects without an end date are skipped.
func MonthlyForecasts(projects []domain.Project) []domain.MonthlyForecast {
	index := make(map[string]int)
	rows := make([]domain.MonthlyForecast, 0)

	for _, p := range projects {
		if p.Fin == nil {
			continue
		}
		key := p.Fin.Format("2006-01")
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, domain.MonthlyForecast{Month: key})
		}
		rows[i].ProjectCount++
		rows[i].Billing += p.Facturacion
		rows[i].TotalCost += p.TotalCost
	}

	for i := range rows {
		rows[i].Margin = rows[i].Billing - rows[i].TotalCost
		if rows[i].Billing > 0 {
			rows[i].MarginPercent = rows[i].Margin / rows[i].Billing * 100
		}
		rows[i].Healthy = rows[i].MarginPercent >= domain.HealthyMarginPercent
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].Month < rows[b].Month })
	return rows
}

// ClientProfitabilities groups billing and margin by trimmed client name,
// largest billing first.
func ClientProfitabilities(projects []domain.Project) []domain.ClientProfitability {
	index := make(map[string]int)
	rows := make([]domain.ClientProfitability, 0)

	for _, p := range projects {
		key := strings.TrimSpace(p.Client)
		if key == "" {
			key = domain.UnknownClient
		}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, domain.ClientProfitability{Label: key})
		}
		rows[i].ProjectCount++
		rows[i].Billing += p.Facturacion
		rows[i].Margin += p.Margin
	}

	for i := range rows {
		if rows[i].Billing > 0 {
			rows[i].MarginPercent = rows[i].Margin / rows[i].Billing * 100
		}
		rows[i].Band = domain.BandFor(rows[i].MarginPercent)
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Billing != rows[b].Billing {
			return rows[a].Billing > rows[b].Billing
		}
		return rows[a].Label < rows[b].Label
	})
	return rows
}

// CriticalProjects returns the critical projects ordered by end date, with
// undated projects last.
func CriticalProjects(projects []domain.Project) []domain.Project {
	out := make([]domain.Project, 0)
	for _, p := range projects {
		if p.IsCritical {
			out = append(out, p)
		}
	}
	return SortByDeadline(out)
}

// SortByDeadline returns a copy of projects ordered by end date ascending.
// Projects without an end date keep their relative order at the end.
func SortByDeadline(projects []domain.Project) []domain.Project {
	out := make([]domain.Project, len(projects))
	copy(out, projects)
	sort.SliceStable(out, func(a, b int) bool {
		fa, fb := out[a].Fin, out[b].Fin
		switch {
		case fa == nil:
			return false
		case fb == nil:
			return true
		default:
			return fa.Before(*fb)
		}
	})
	return out
}

// KPIs computes the headline numbers.
func KPIs(projects []domain.Project) domain.DashboardKPIs {
	var k domain.DashboardKPIs
	for _, p := range projects {
		if !inactiveStatuses[strings.ToLower(p.Status)] {
			k.ActiveProjects++
		}
		if p.IsCritical {
			k.CriticalProjects++
		}
		k.TotalBilling += p.Facturacion
	}
	return k
}

// PersonDigests groups projects by full assigned person name. People are
// sorted by name and each person's projects by end date.
func PersonDigests(projects []domain.Project) []domain.PersonDigest {
	index := make(map[string]int)
	digests := make([]domain.PersonDigest, 0)
	for _, p := range projects {
		key := strings.TrimSpace(p.Person)
		if key == "" {
			key = domain.UnassignedPerson
		}
		i, ok := index[key]
		if !ok {
			i = len(digests)
			index[key] = i
			digests = append(digests, domain.PersonDigest{Person: key})
		}
		digests[i].Projects = append(digests[i].Projects, p)
	}
	for i := range digests {
		digests[i].Projects = SortByDeadline(digests[i].Projects)
	}
	sort.Slice(digests, func(a, b int) bool { return digests[a].Person < digests[b].Person })
	return digests
}

// StatusClassOf maps a canonical status to its display class.
func StatusClassOf(status string) domain.StatusClass {
	lower := strings.ToLower(status)
	switch {
	case strings.Contains(lower, "curso"):
		return domain.StatusClassActive
	case strings.Contains(lower, "pendiente"):
		return domain.StatusClassPending
	default:
		return domain.StatusClassCompleted
	}
}

// DeadlineBadge returns the days left until the project ends when that falls
// inside the badge window.
func DeadlineBadge(p domain.Project, now time.Time) (int, bool) {
	days, ok := p.DaysUntilEnd(now)
	if !ok || days < 0 || days > domain.DeadlineWindowDays {
		return 0, false
	}
	return days, true
}

// Summarize computes every aggregate over the given projects.
func Summarize(projects []domain.Project, now time.Time) domain.DashboardSummary {
	return domain.DashboardSummary{
		GeneratedAt:  now,
		ProjectCount: len(projects),
		KPIs:         KPIs(projects),
		Team:         TeamWorkloads(projects),
		Types:        TypeBreakdowns(projects),
		Statuses:     StatusDistribution(projects),
		Monthly:      MonthlyForecasts(projects),
		Clients:      ClientProfitabilities(projects),
		Critical:     CriticalProjects(projects),
	}
}

func totalBilling(projects []domain.Project) float64 {
	var total float64
	for _, p := range projects {
		total += p.Facturacion
	}
	return total
}
