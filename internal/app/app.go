package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"expenditure/internal/config"
	apierrors "expenditure/internal/errors"
	"expenditure/internal/infrastructure"
	customMiddleware "expenditure/internal/middleware"
	"expenditure/internal/operations"
	"expenditure/internal/services"
	"expenditure/internal/storage"
	handlers "expenditure/internal/transport/http"
	"expenditure/pkg/contracts/domain"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	Store         *storage.Store
	Services      *ServiceContainer
	ErrorHandler  *apierrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Pipeline *services.PipelineService
	Runs     *operations.Manager
	Data     *services.DataService
	Health   *services.HealthService
}

// NewApplication loads configuration and the process logger, then wires the
// application. An empty configFile searches the usual locations.
func NewApplication(configFile string) (*Application, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires an application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("go_version", runtime.Version()))

	paths, err := cfg.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreatePipelineMetrics(otelProviders.Meter)
	if err != nil {
		logger.Warn("Pipeline metrics disabled", slog.String("error", err.Error()))
		metrics = nil
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
	}

	if cfg.Database.Enabled {
		store, err := storage.Open(context.Background(), cfg.Database, logger)
		if err != nil {
			_ = otelProviders.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.Store = store
	}

	a.initializeServices()
	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices wires the pipeline, the run manager and the read-side
// services. The store is passed as an untyped nil when disabled so the
// services see a nil interface.
func (a *Application) initializeServices() {
	var (
		tableStore    services.TableStore
		categoryStore services.CategoryStore
		pinger        services.Pinger
	)
	if a.Store != nil {
		tableStore, categoryStore, pinger = a.Store, a.Store, a.Store
	}

	pipeline := services.NewPipelineService(a.Config.Pipeline, a.Paths, services.PipelineOptions{
		Store:   tableStore,
		Metrics: a.Metrics,
		Logger:  a.Logger,
	})

	runs := operations.NewManager(pipeline.Run, operations.ManagerOptions{
		Logger:      a.Logger,
		RunTimeout:  a.Config.Server.RunTimeout,
		HistorySize: a.Config.Pipeline.HistorySize,
	})

	a.Services = &ServiceContainer{
		Pipeline: pipeline,
		Runs:     runs,
		Data:     services.NewDataService(a.Paths, categoryStore, a.Logger),
		Health:   services.NewHealthService(config.AppVersion, a.Paths, pinger, runs, a.Logger),
	}
}

// setupRouter configures the HTTP router with all routes.
// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → security → CORS → rate limit
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StripSlashes)

	// Prometheus scrapes stay outside tracing and rate limiting
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.ErrorHandler,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Get(config.HealthEndpoint, healthHandler.HealthCheck)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		runsHandler := handlers.NewRunsHandler(a.Services.Runs, a.Logger, a.ErrorHandler)
		r.With(customMiddleware.RequireJSON(a.ErrorHandler, customMiddleware.DefaultMaxBodySize)).
			Mount("/runs", runsHandler.Routes())

		categoriesHandler := handlers.NewCategoriesHandler(a.Services.Data, a.Logger, a.ErrorHandler)
		r.Mount("/categories", categoriesHandler.Routes())
	})
}

// getCORSConfig returns the CORS policy for the API
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", customMiddleware.RequestIDHeader, "traceparent"},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader, "Location", "Retry-After"},
		MaxAge:         300,
	}
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

// Start starts serving in the background. A listener failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.Logger.InfoContext(ctx, "Application paths",
		slog.String("raw_dir", a.Paths.RawDir),
		slog.String("transformed_dir", a.Paths.TransformedDir),
		slog.String("cleaned_dir", a.Paths.CleanedDir),
		slog.String("logs_dir", a.Paths.LogsDir))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	health := a.Services.Health.HealthCheck(ctx)
	if health.Status != "ok" {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.Any("services", health.Services))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application. In-flight runs are cancelled and
// awaited before the database closes.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if err := a.Services.Runs.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error stopping runs", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing database", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	_ = infrastructure.CloseLogFile()
	return errors.Join(errs...)
}

// Run serves until interrupted or until ctx is cancelled
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	// The serving context is already done; shutdown gets a fresh one.
	return a.Stop(context.Background())
}

// RunBatch executes one batch synchronously, bypassing the run manager.
// Used by the command line, which has no server to keep alive.
func (a *Application) RunBatch(ctx context.Context, req domain.RunRequest) (*operations.BatchResult, error) {
	started := time.Now()
	result, err := a.Services.Pipeline.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	a.Logger.InfoContext(ctx, "Batch finished",
		slog.Int("tables", len(result.Order)),
		slog.Int("skipped", len(result.Report.Skipped)),
		slog.Duration("duration", time.Since(started)))
	return result, nil
}
