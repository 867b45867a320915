package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"

	"github.com/polp-online/schedule-service/app/eventbus"
	authservice "github.com/polp-online/schedule-service/app/modules/auth/application"
	authjwt "github.com/polp-online/schedule-service/app/modules/auth/infrastructure/jwt"
	scheduleservice "github.com/polp-online/schedule-service/app/modules/schedule/application"
	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
	"github.com/polp-online/schedule-service/app/stream"
	"github.com/polp-online/schedule-service/config"
	"github.com/polp-online/schedule-service/internal/db/bundb"
)

// App wires the service together: one store handle, one in-process bus,
// one observer registry, and the HTTP surface on top.
type App struct {
	Config   *config.Config
	DB       *bun.DB
	EventBus *eventbus.EventBus
	Registry *stream.Registry
	Notifier *stream.Notifier
	Handler  http.Handler

	logger          *slog.Logger
	metricsRegistry *prometheus.Registry
}

// NewApp initializes the application with the necessary services and
// configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := bundb.NewDB(cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repo := &scheduledb.ScheduleDBImpl{DB: db}

	bus := eventbus.New(logger)

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	streamMetrics := stream.NewMetrics(metricsRegistry)

	registry := stream.NewRegistry(logger, streamMetrics)
	notifier := stream.NewNotifier(registry, logger, streamMetrics)

	scheduleSvc := scheduleservice.NewScheduleService(repo, bus, logger)

	jwtProvider := authjwt.NewProvider(cfg.JWT.Secret)
	identity := authservice.NewGoogleIdentityProvider(cfg.OAuth)
	authSvc := authservice.NewService(identity, repo, jwtProvider, cfg.JWT.DefaultTTL, logger)

	handler := NewRouter(RouterDeps{
		Config:          cfg,
		ScheduleService: scheduleSvc,
		AuthService:     authSvc,
		JWTProvider:     jwtProvider,
		Registry:        registry,
		Logger:          logger,
	})

	return &App{
		Config:          cfg,
		DB:              db,
		EventBus:        bus,
		Registry:        registry,
		Notifier:        notifier,
		Handler:         handler,
		logger:          logger,
		metricsRegistry: metricsRegistry,
	}, nil
}

// Run starts the notifier loop and the HTTP listeners, blocking until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	messages, err := a.EventBus.Subscribe(ctx, stream.CountUpdatedTopic)
	if err != nil {
		return fmt.Errorf("failed to subscribe notifier: %w", err)
	}

	notifierDone := make(chan error, 1)
	go func() {
		notifierDone <- a.Notifier.Run(ctx, messages)
	}()

	server := &http.Server{
		Addr:              a.Config.HTTP.Address,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", slog.String("address", server.Addr))
		serverDone <- server.ListenAndServe()
	}()

	var metricsServer *http.Server
	if a.Config.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.metricsRegistry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:              a.Config.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			a.logger.Info("metrics server listening", slog.String("address", metricsServer.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", slog.Any("error", err))
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case err := <-notifierDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("notifier stopped: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	return nil
}

// Close releases the bus and the database pool.
func (a *App) Close() {
	if err := a.EventBus.Close(); err != nil {
		a.logger.Error("failed to close event bus", slog.Any("error", err))
	}
	if err := a.DB.Close(); err != nil {
		a.logger.Error("failed to close database", slog.Any("error", err))
	}
}
