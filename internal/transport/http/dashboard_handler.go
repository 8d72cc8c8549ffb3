package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"projectpulse/internal/dataprocessing"
	apperrors "projectpulse/internal/errors"
	"projectpulse/internal/middleware"
	"projectpulse/internal/services"
	"projectpulse/pkg/contracts/domain"
)

// DashboardService is what the handlers read from. *services.DashboardService
// implements it.
type DashboardService interface {
	Projects(f domain.ProjectFilter) ([]domain.Project, error)
	Project(id string) (domain.Project, error)
	Summary(f domain.ProjectFilter) (domain.DashboardSummary, error)
	Digests(f domain.ProjectFilter) ([]domain.PersonDigest, error)
	ReferenceTime() (time.Time, bool)
	LastRefresh() (domain.RefreshInfo, bool)
	Status() services.RefreshStatus
	RefreshNow(ctx context.Context) (domain.RefreshInfo, error)
}

// Aggregate views served under /aggregates/{view}.
const (
	ViewTeam     = "team"
	ViewTypes    = "types"
	ViewStatuses = "statuses"
	ViewMonthly  = "monthly"
	ViewClients  = "clients"
	ViewCritical = "critical"
	ViewPeople   = "people"
)

var aggregateViews = []string{ViewTeam, ViewTypes, ViewStatuses, ViewMonthly, ViewClients, ViewCritical, ViewPeople}

// DashboardHandler serves projects, aggregates and refresh control.
type DashboardHandler struct {
	service      DashboardService
	validator    *middleware.QueryValidator
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(service DashboardService, validator *middleware.QueryValidator, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/projects", h.ListProjects)
	r.Get("/projects/{id}", h.GetProject)
	r.Get("/summary", h.GetSummary)
	r.Get("/kpis", h.GetKPIs)
	r.Get("/aggregates/{view}", h.GetAggregate)

	r.Post("/refresh", h.Refresh)
	r.Get("/refresh/last", h.LastRefresh)
	return r
}

// ListProjects handles GET /api/projects
func (h *DashboardHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	f, ok := h.validator.ProjectFilter(w, r)
	if !ok {
		return
	}
	projects, err := h.service.Projects(f)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	projects = dataprocessing.SortByDeadline(projects)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   projects,
		"count":  len(projects),
	})
}

// GetProject handles GET /api/projects/{id}
func (h *DashboardHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Project(chi.URLParam(r, "id"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   p,
	})
}

// GetSummary handles GET /api/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	f, ok := h.validator.ProjectFilter(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(f)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	body := map[string]interface{}{
		"status": "success",
		"data":   summary,
		"filter": f,
	}
	if info, ok := h.service.LastRefresh(); ok {
		body["refresh"] = info
	}
	render.JSON(w, r, body)
}

// GetKPIs handles GET /api/kpis
func (h *DashboardHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	f, ok := h.validator.ProjectFilter(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(f)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary.KPIs,
	})
}

// GetAggregate handles GET /api/aggregates/{view}
func (h *DashboardHandler) GetAggregate(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	if !isAggregateView(view) {
		h.errorHandler.HandleError(w, r, apperrors.ErrValidation("view",
			"view must be one of: team, types, statuses, monthly, clients, critical, people"))
		return
	}
	f, ok := h.validator.ProjectFilter(w, r)
	if !ok {
		return
	}

	var (
		data  interface{}
		count int
	)
	if view == ViewPeople {
		digests, err := h.service.Digests(f)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		data, count = digests, len(digests)
	} else {
		summary, err := h.service.Summary(f)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		data, count = pickView(summary, view)
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"view":   view,
		"data":   data,
		"count":  count,
	})
}

func isAggregateView(view string) bool {
	for _, v := range aggregateViews {
		if v == view {
			return true
		}
	}
	return false
}

func pickView(s domain.DashboardSummary, view string) (interface{}, int) {
	switch view {
	case ViewTeam:
		return s.Team, len(s.Team)
	case ViewTypes:
		return s.Types, len(s.Types)
	case ViewStatuses:
		return s.Statuses, len(s.Statuses)
	case ViewMonthly:
		return s.Monthly, len(s.Monthly)
	case ViewClients:
		return s.Clients, len(s.Clients)
	default:
		return s.Critical, len(s.Critical)
	}
}

// Refresh handles POST /api/refresh. Concurrent calls share one fetch.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.RefreshNow(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apperrors.RefreshError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "manual refresh completed",
		slog.String("refresh_id", info.ID),
		slog.Int("rows", info.RowCount))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// LastRefresh handles GET /api/refresh/last
func (h *DashboardHandler) LastRefresh(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Status(),
	})
}

func (h *DashboardHandler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErrorTo(h.errorHandler, w, r, err)
}

// serviceErrorTo maps service sentinels to API errors.
func serviceErrorTo(eh *apperrors.ErrorHandler, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotReady):
		eh.HandleError(w, r, apperrors.ErrDataNotReady)
	case errors.Is(err, services.ErrProjectNotFound):
		eh.HandleError(w, r, apperrors.ErrProjectNotFound)
	default:
		eh.HandleError(w, r, err)
	}
}
