package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"projectpulse/pkg/contracts/domain"
)

// Workbook sheet names, in order.
const (
	SheetProjects = "Proyectos"
	SheetTeam     = "Equipo"
	SheetTypes    = "Tipos"
	SheetStatuses = "Estados"
	SheetMonthly  = "Mensual"
	SheetClients  = "Clientes"
	SheetCritical = "Criticos"
)

// WorkbookExporter renders projects and their summary as an .xlsx workbook.
type WorkbookExporter struct {
	formatter *Formatter
	logger    *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter. formatter supplies the
// currency symbol of the money columns.
func NewWorkbookExporter(formatter *Formatter, logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{
		formatter: formatter,
		logger:    logger.With(slog.String("component", "workbook_exporter")),
	}
}

// Build creates the workbook in memory. The caller closes it.
func (e *WorkbookExporter) Build(projects []domain.Project, summary domain.DashboardSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	b := &workbookBuilder{f: f, formatter: e.formatter}

	if err := b.init(e.formatter); err != nil {
		f.Close()
		return nil, err
	}

	b.projects(projects)
	b.team(summary.Team)
	b.types(summary.Types)
	b.statuses(summary.Statuses)
	b.monthly(summary.Monthly)
	b.clients(summary.Clients)
	b.critical(summary.Critical)

	if b.err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to build workbook: %w", b.err)
	}
	return f, nil
}

// Write streams the workbook to w.
func (e *WorkbookExporter) Write(w io.Writer, projects []domain.Project, summary domain.DashboardSummary) error {
	f, err := e.Build(projects, summary)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	e.logger.Debug("workbook written", slog.Int("projects", len(projects)))
	return nil
}

// workbookBuilder keeps the first error so sheet writers stay linear.
type workbookBuilder struct {
	f         *excelize.File
	formatter *Formatter
	header    int
	money   int
	percent int
	err     error
}

func (b *workbookBuilder) init(formatter *Formatter) error {
	var err error
	if b.header, err = b.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
	}); err != nil {
		return err
	}

	symbol := "€"
	if formatter != nil {
		symbol = formatter.symbol
	}
	moneyFmt := fmt.Sprintf(`#,##0.00 "%s"`, symbol)
	if b.money, err = b.f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt}); err != nil {
		return err
	}
	percentFmt := `0.0 "%"`
	if b.percent, err = b.f.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt}); err != nil {
		return err
	}

	// the default sheet becomes the project list
	return b.f.SetSheetName("Sheet1", SheetProjects)
}

// colStyle applies a style to a column range such as "M:Q".
type colStyle struct {
	cols  string
	style int
}

func (b *workbookBuilder) sheet(name string, headers []string, rows [][]interface{}, styles ...colStyle) {
	if b.err != nil {
		return
	}
	if name != SheetProjects {
		if _, b.err = b.f.NewSheet(name); b.err != nil {
			return
		}
	}

	b.row(name, 1, toInterfaces(headers))
	for i, row := range rows {
		b.row(name, i+2, row)
	}
	for _, cs := range styles {
		if b.err != nil {
			return
		}
		b.err = b.f.SetColStyle(name, cs.cols, cs.style)
	}
	if b.err != nil {
		return
	}

	// header style last so column styles do not override it
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	b.err = b.f.SetCellStyle(name, "A1", last, b.header)
	if b.err == nil {
		b.err = b.f.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
}

func (b *workbookBuilder) row(name string, n int, values []interface{}) {
	if b.err != nil {
		return
	}
	cell, _ := excelize.CoordinatesToCellName(1, n)
	b.err = b.f.SetSheetRow(name, cell, &values)
}

func (b *workbookBuilder) projects(projects []domain.Project) {
	rows := make([][]interface{}, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, projectRow(p))
	}
	b.sheet(SheetProjects, ProjectHeaders, rows,
		colStyle{"M:Q", b.money}, colStyle{"R:S", b.percent})
}

func (b *workbookBuilder) team(rows []domain.TeamWorkload) {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, []interface{}{r.Label, r.ProjectCount, r.Billing, r.WorkloadPercent, r.AverageProgress})
	}
	b.sheet(SheetTeam, []string{"Responsable", "Proyectos", "Facturación", "Carga %", "Progreso medio %"}, out,
		colStyle{"C", b.money}, colStyle{"D:E", b.percent})
}

func (b *workbookBuilder) types(rows []domain.TypeBreakdown) {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, []interface{}{r.Label, r.ProjectCount, r.Billing, r.WeightPercent})
	}
	b.sheet(SheetTypes, []string{"Tipo", "Proyectos", "Facturación", "Peso %"}, out,
		colStyle{"C", b.money}, colStyle{"D", b.percent})
}

func (b *workbookBuilder) statuses(rows []domain.StatusShare) {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, []interface{}{r.Label, r.Count, r.Percent})
	}
	b.sheet(SheetStatuses, []string{"Estado", "Proyectos", "%"}, out,
		colStyle{"C", b.percent})
}

func (b *workbookBuilder) monthly(rows []domain.MonthlyForecast) {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, []interface{}{
			b.formatter.MonthLabel(r.Month), r.ProjectCount, r.Billing, r.TotalCost, r.Margin, r.MarginPercent, formatBool(r.Healthy),
		})
	}
	b.sheet(SheetMonthly, []string{"Mes", "Proyectos", "Facturación", "Coste total", "Margen", "Margen %", "Saludable"}, out,
		colStyle{"C:E", b.money}, colStyle{"F", b.percent})
}

func (b *workbookBuilder) clients(rows []domain.ClientProfitability) {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, []interface{}{r.Label, r.ProjectCount, r.Billing, r.Margin, r.MarginPercent, string(r.Band)})
	}
	b.sheet(SheetClients, []string{"Cliente", "Proyectos", "Facturación", "Margen", "Margen %", "Banda"}, out,
		colStyle{"C:D", b.money}, colStyle{"E", b.percent})
}

func (b *workbookBuilder) critical(projects []domain.Project) {
	rows := make([][]interface{}, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, projectRow(p))
	}
	b.sheet(SheetCritical, ProjectHeaders, rows,
		colStyle{"M:Q", b.money}, colStyle{"R:S", b.percent})
}

func projectRow(p domain.Project) []interface{} {
	return []interface{}{
		p.ID, p.Client, p.Brand, p.PointOfSale, p.Person, p.Status, p.Type,
		Date(p.Previos), Date(p.Diseno), Date(p.Produccion), Date(p.Ejecucion), Date(p.Fin),
		p.Facturacion, p.Costes, p.Estructura, p.TotalCost, p.Margin, p.MarginPercent,
		p.Progress, formatBool(p.IsCritical), p.Notes, p.PresentationContent,
	}
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
