package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"

	"projectpulse/internal/config"
	"projectpulse/internal/dataprocessing"
	apperrors "projectpulse/internal/errors"
	"projectpulse/internal/exporter"
	"projectpulse/internal/infrastructure"
	customMiddleware "projectpulse/internal/middleware"
	"projectpulse/internal/services"
	"projectpulse/internal/source"
	"projectpulse/internal/store"
	handlers "projectpulse/internal/transport/http"
	ws "projectpulse/internal/websocket"
	"projectpulse/pkg/contracts"
)

const AppName = "Project Pulse"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	Source    source.Source
	Snapshots store.SnapshotStore
	Dashboard *services.DashboardService
	Health    *services.HealthService
	Hub       *ws.Hub
	Exporter  *exporter.Exporter

	errorHandler *apperrors.ErrorHandler
	cancel       context.CancelFunc
	serverErr    chan error
}

// Option customises New.
type Option func(*options)

type options struct {
	source   source.Source
	registry *prometheus.Registry
}

// WithSource replaces the configured spreadsheet source.
func WithSource(src source.Source) Option {
	return func(o *options) { o.source = src }
}

// WithRegistry exposes metrics from reg instead of the default registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// New wires every component from cfg. Nothing runs until Start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelCfg := infrastructure.NewOTelConfig(cfg.Telemetry)
	otelCfg.Registry = o.registry
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		Source:        o.source,
		errorHandler:  apperrors.NewErrorHandler(logger, cfg.Logging.Development),
		serverErr:     make(chan error, 1),
	}

	if err := a.initializeServices(ctx); err != nil {
		if a.Snapshots != nil {
			_ = a.Snapshots.Close()
		}
		_ = providers.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	a.setupRouter()
	a.createServer()
	return a, nil
}

func (a *Application) initializeServices(ctx context.Context) error {
	if a.Source == nil {
		src, err := source.New(ctx, a.Config.Sheets, a.Logger)
		if err != nil {
			return err
		}
		a.Source = src
	}

	snapshots, err := store.New(ctx, a.Config.Snapshot, a.Paths, a.Logger)
	if err != nil {
		return err
	}
	a.Snapshots = snapshots

	a.Hub = ws.NewHub(a.Metrics, a.Logger)

	a.Dashboard, err = services.NewDashboardService(services.DashboardOptions{
		Source: a.Source,
		Normalizer: dataprocessing.NewNormalizer(dataprocessing.NormalizerConfig{
			CriticalDays: a.Config.Dashboard.CriticalDays,
			PersonColumn: a.Config.Dashboard.PersonColumn,
		}),
		Store:    snapshots,
		Notifier: ws.NewRefreshNotifier(a.Hub),
		Metrics:  a.Metrics,
		Interval: a.Config.Dashboard.RefreshInterval,
		Logger:   a.Logger,
	})
	if err != nil {
		return err
	}

	a.Health = services.NewHealthService(contracts.Version, a.Dashboard, a.Hub, a.Logger)

	formatter, err := exporter.NewFormatter(a.Config.Dashboard.Locale, a.Config.Dashboard.Currency)
	if err != nil {
		return apperrors.NewConfigError("invalid locale or currency", err)
	}
	a.Exporter = exporter.New(a.Paths, formatter, a.Logger)
	a.Exporter.SetMetrics(a.Metrics)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	// these don't wrap the ResponseWriter, so the upgrade still works
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Handle("/ws", ws.NewHandler(a.Hub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.errorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.errorHandler, a.Logger).Handler)
		}

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validator := customMiddleware.NewQueryValidator(a.errorHandler, a.Logger)
	dashboard := handlers.NewDashboardHandler(a.Dashboard, validator, a.errorHandler, a.Logger)
	export := handlers.NewExportHandler(a.Dashboard, a.Exporter, validator, a.errorHandler, a.Logger)
	health := handlers.NewHealthHandler(a.Health, a.Logger)
	clientLog := handlers.NewClientLogHandler(validator, a.errorHandler, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.errorHandler))
		r.Use(customMiddleware.Compress(5))

		r.Mount("/health", health.Routes())
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/version", health.Version)
		r.Post("/logs", clientLog.Handle)
		r.Mount("/export", export.Routes())
		r.Mount("/", dashboard.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start launches the hub, the refresh loop and the HTTP server. It returns
// once they are running; listen failures arrive on Err.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("source", a.Source.Name()),
		slog.String("snapshot_store", a.Snapshots.Name()),
		slog.Duration("refresh_interval", a.Config.Dashboard.RefreshInterval))

	a.Hub.Start()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.Dashboard.Start(runCtx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			a.serverErr <- err
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Err reports a fatal HTTP server error.
func (a *Application) Err() <-chan error {
	return a.serverErr
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	if a.cancel != nil {
		a.cancel()
		select {
		case <-a.Dashboard.Done():
		case <-shutdownCtx.Done():
			errs = append(errs, fmt.Errorf("refresh loop did not stop: %w", shutdownCtx.Err()))
		}
	}

	a.Hub.Stop()

	if err := a.Snapshots.Close(); err != nil {
		errs = append(errs, fmt.Errorf("snapshot store close: %w", err))
	}
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		a.Logger.ErrorContext(ctx, "shutdown finished with errors", slog.String("error", err.Error()))
		return err
	}
	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("received interrupt signal")
	case runErr = <-a.serverErr:
	}

	if err := a.Stop(context.Background()); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
