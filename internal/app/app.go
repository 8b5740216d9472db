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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"bopcli/internal/config"
	"bopcli/internal/dataprocessing"
	apperrors "bopcli/internal/errors"
	"bopcli/internal/exporter"
	"bopcli/internal/files"
	"bopcli/internal/infrastructure"
	customMiddleware "bopcli/internal/middleware"
	"bopcli/internal/narrative"
	"bopcli/internal/operations"
	"bopcli/internal/services"
	"bopcli/internal/store"
	handlers "bopcli/internal/transport/http"
	"bopcli/pkg/contracts"
)

// AppName is logged at startup
const AppName = "bopweb"

// Application holds the wired components of one process
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Store         store.Store
	Manager       *operations.Manager
	RunService    *services.RunService
	HealthService *services.HealthService
	Router        *chi.Mux
	Server        *http.Server
}

// NewApplication initializes the global logger from cfg and wires every
// component. The caller owns Close (or Stop for a started server).
func NewApplication(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return NewWithLogger(cfg, logger)
}

// NewWithLogger wires every component around an existing logger
func NewWithLogger(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	if err := cfg.Paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		_ = otelProviders.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	st, err := store.Open(ctx, cfg.Database, infrastructure.WithComponent(logger, "store"))
	if err != nil {
		_ = otelProviders.Shutdown(ctx)
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		Store:         st,
	}

	if err := a.initializeServices(); err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

// initializeServices builds the pipeline and the services on top of it
func (a *Application) initializeServices() error {
	manager, err := BuildManager(a.Config, a.Store, a.Metrics, a.Logger)
	if err != nil {
		return err
	}
	a.Manager = manager

	a.RunService = services.NewRunService(manager, a.Store, a.Config.Paths.UploadDir, a.Config.Server.ResultTTL, a.Logger)
	a.HealthService = services.NewHealthService(contracts.Version, a.Config, a.Store, a.Logger)
	return nil
}

// BuildManager wires the pipeline steps from configuration. The store may
// be nil; narrative and export are enabled by configuration.
func BuildManager(cfg *config.Config, st store.Store, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*operations.Manager, error) {
	resolver := dataprocessing.NewDefaultResolver()
	if cfg.Pipeline.RulesFile != "" {
		rules, err := dataprocessing.LoadCategoryRules(cfg.Pipeline.RulesFile)
		if err != nil {
			return nil, err
		}
		resolver = dataprocessing.NewResolver(rules)
		logger.Info("category rules loaded",
			slog.String("path", cfg.Pipeline.RulesFile),
			slog.Int("rules", len(rules)))
	}

	options := dataprocessing.DefaultNormalizerOptions()
	options.NoFallback = !cfg.Pipeline.FallbackDates

	deps := operations.Dependencies{
		Loader:         files.NewLoader(cfg.Pipeline.Sheet, logger),
		Normalizer:     dataprocessing.NewNormalizer(logger, options),
		Engine:         dataprocessing.NewEngine(resolver, logger),
		Summarizer:     dataprocessing.NewSummarizer(logger),
		Store:          st,
		SummaryMaxRows: cfg.Pipeline.SummaryMaxRows,
	}
	if cfg.Pipeline.Export {
		deps.Writer = exporter.NewCSVWriter(cfg.Paths.OutputDir, cfg.Pipeline.BOMPrefix, logger)
	}

	if cfg.NarrativeConfigured() {
		chain, err := narrative.New(cfg.Narrative, logger)
		switch {
		case errors.Is(err, narrative.ErrNoProvider):
		case err != nil:
			return nil, fmt.Errorf("failed to configure narrative: %w", err)
		default:
			deps.Generator = chain
		}
	}

	registry, err := operations.NewPipeline(deps)
	if err != nil {
		return nil, err
	}
	return operations.NewManager(registry, operations.NewRunTracer(metrics), cfg.Pipeline.Workers, logger), nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(a.Logger, a.Config.Telemetry.Environment == "development")

	// RequestID → RealIP → TraceID → OTel → errors/logging → security headers
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.TraceID)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
	r.Use(apperrors.NewErrorMiddleware(errorHandler, a.Logger).Handler)
	r.Use(customMiddleware.SecurityHeaders)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	runsHandler := handlers.NewRunsHandler(a.RunService, errorHandler, a.Config.Server.MaxUploadBytes, a.Logger)
	if rps := a.Config.Server.RateLimitRPS; rps > 0 {
		runsHandler.WithSubmitLimit(customMiddleware.NewRateLimiter(rps, a.Config.Server.RateLimitBurst, a.Logger).Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/version", healthHandler.Version)

		r.Route("/v1", func(r chi.Router) {
			r.Mount("/runs", runsHandler.Routes())
			r.Get("/records", runsHandler.ListStoredRecords)
		})
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           a.Router,
		ReadTimeout:       a.Config.Server.ReadTimeout,
		ReadHeaderTimeout: a.Config.Server.ReadTimeout,
		WriteTimeout:      a.Config.Server.WriteTimeout,
		IdleTimeout:       a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server in the background. A listen failure cancels ctx.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.String("store", a.Config.Database.Driver))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop drains the HTTP server then releases the store and telemetry
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
	if err := a.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Close releases the store and flushes telemetry
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run serves until SIGINT, SIGTERM or a server failure
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	// ctx may already be cancelled; shutdown gets its own budget
	return a.Stop(context.Background())
}

// performStartupHealthCheck reports unusable directories before serving
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	status := a.HealthService.ReadinessCheck(ctx)
	if status.Status == "ready" {
		a.Logger.InfoContext(ctx, "Startup health check passed")
		return nil
	}
	return fmt.Errorf("readiness is %s", status.Status)
}

// shutdownGrace bounds Close in tests and the CLI
const shutdownGrace = 10 * time.Second

// CloseWithTimeout is Close bounded by a fixed grace period
func (a *Application) CloseWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return a.Close(ctx)
}
