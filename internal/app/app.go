package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"esgcli/internal/config"
	apperrors "esgcli/internal/errors"
	"esgcli/internal/exporter"
	"esgcli/internal/infrastructure"
	customMiddleware "esgcli/internal/middleware"
	"esgcli/internal/services"
	handlers "esgcli/internal/transport/http"
	"esgcli/pkg/contracts"
)

// AppName is the display name of the server
const AppName = "ESG Annual Return Engine"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Services      *ServiceContainer
	ErrorHandler  *apperrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Returns   *services.ReturnsService
	Analytics *services.AnalyticsService
	Health    *services.HealthService
	Batch     *services.BatchService
	Writer    *exporter.CSVWriter
}

// NewApplication wires logging, telemetry, services and routes from cfg. A
// nil cfg is loaded from the environment and the config file.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution()

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apperrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	engineMetrics, err := infrastructure.NewEngineMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create engine metrics: %w", err)
	}

	returnsService := services.NewReturnsService(a.Config, a.Logger, a.OTelProviders.Tracer, engineMetrics)
	a.Services = &ServiceContainer{
		Returns:   returnsService,
		Analytics: services.NewAnalyticsService(a.Config, a.Logger, a.OTelProviders.Tracer, engineMetrics),
		Health:    services.NewHealthService(a.Paths, a.Logger),
		Batch:     services.NewBatchService(returnsService, a.Paths, a.Config.Export.Precision, a.Logger),
		Writer:    exporter.NewCSVWriter(a.Paths),
	}
	return nil
}

// setupRouter configures the HTTP router with all routes. Middleware order:
// RequestID, RealIP, OTel, Logger, Recoverer, security headers, CORS, rate
// limit, Timeout, body limit.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.corsConfig()))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)

	// Scrapes skip the request timeout and body limit.
	r.Handle(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		r.Use(customMiddleware.BodyLimit(a.Config.Server.MaxUploadBytes))
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Get(config.HealthEndpoint, healthHandler.HealthCheck)
		r.Get(config.HealthEndpoint+"/ready", healthHandler.ReadinessCheck)
		r.Get(config.HealthEndpoint+"/live", healthHandler.LivenessCheck)
		r.Get("/api/version", healthHandler.Version)

		reportsHandler := handlers.NewReportsHandler(a.Services.Batch, a.Logger, a.ErrorHandler)
		r.Get(config.ReportsEndpoint, reportsHandler.List)

		returnsHandler := handlers.NewReturnsHandler(a.Services.Returns, a.Services.Writer, a.Config.Export, a.Logger, a.ErrorHandler)
		r.Mount(config.ReturnsEndpoint, returnsHandler.Routes())

		analyticsHandler := handlers.NewAnalyticsHandler(a.Services.Returns, a.Services.Analytics, a.Config.Analytics.TopN, a.Logger, a.ErrorHandler)
		r.Mount(config.AnalyticsPath, analyticsHandler.Routes())
	})
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins:   a.Config.Security.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", customMiddleware.RequestIDHeader},
		ExposedHeaders:   []string{customMiddleware.RequestIDHeader, handlers.UploadIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           net.JoinHostPort(a.Config.Server.Host, fmt.Sprint(a.Config.Server.Port)),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start serves HTTP in the background. A listener failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, listener, cancel)
}

// Serve is Start on an existing listener.
func (a *Application) Serve(ctx context.Context, listener net.Listener, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", listener.Addr().String()),
		slog.String("level", a.Config.Logging.Level),
		slog.String("reports_dir", a.Paths.ReportsDir))

	go func() {
		if err := a.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	status := a.Services.Health.ReadinessCheck(ctx)
	if status.Status != services.StatusReady {
		a.Logger.WarnContext(ctx, "Startup readiness check failed", slog.Any("checks", status.Checks))
	}
	return nil
}

// Stop drains the server and flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run starts the server and blocks until SIGINT, SIGTERM or a server
// failure, then shuts down gracefully.
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
		a.Logger.ErrorContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
