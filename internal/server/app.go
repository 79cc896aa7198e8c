// Package server builds the resolver service from configuration and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/JakeFAU/listing-resolver/internal/api"
	"github.com/JakeFAU/listing-resolver/internal/catalog"
	pgstore "github.com/JakeFAU/listing-resolver/internal/catalog/postgres"
	"github.com/JakeFAU/listing-resolver/internal/clock/system"
	"github.com/JakeFAU/listing-resolver/internal/config"
	collyfetcher "github.com/JakeFAU/listing-resolver/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/listing-resolver/internal/fetcher/headless"
	"github.com/JakeFAU/listing-resolver/internal/headless/detector"
	"github.com/JakeFAU/listing-resolver/internal/id/uuid"
	"github.com/JakeFAU/listing-resolver/internal/logging"
	memorypublisher "github.com/JakeFAU/listing-resolver/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/listing-resolver/internal/publisher/pubsub"
	"github.com/JakeFAU/listing-resolver/internal/resolver"
	"github.com/JakeFAU/listing-resolver/internal/telemetry"
)

// App contains the application's dependencies.
type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	apiServer      *api.Server
	headless       *headlessfetcher.Fetcher
	pgStore        *pgstore.Store
	pubsubClient   *pubsub.Client
	pubsubTopic    *pubsub.Topic
	tracerShutdown func(context.Context) error
}

// Handler exposes the API router.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run serves HTTP until the context is canceled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	a.Close(shutdownCtx)

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve http: %w", err)
	default:
		return nil
	}
}

// Close releases every client the App opened.
func (a *App) Close(ctx context.Context) {
	if a.pubsubTopic != nil {
		a.pubsubTopic.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	if a.headless != nil {
		a.headless.Close()
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.Telemetry.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	app := &App{cfg: cfg, logger: logger}
	logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("marketplace_host", cfg.Marketplace.Host),
	)

	tp, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("tracer init failed: %w", err)
	}
	app.tracerShutdown = tp.Shutdown

	res, err := setupResolver(app)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	store, checks, err := setupStore(ctx, app)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	publisher, err := setupPublisher(ctx, app)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	listings := catalog.NewService(
		res,
		store,
		publisher,
		system.New(),
		uuid.NewUUIDGenerator(),
		cfg.PubSub.TopicName,
		logger,
	)
	app.apiServer = api.NewServer(listings, *cfg, logger.Named("api"), checks...)
	return app, nil
}

func setupResolver(app *App) (*resolver.Resolver, error) {
	pages := collyfetcher.New(collyfetcher.Config{
		Timeout:     time.Duration(app.cfg.HTTP.TimeoutSeconds) * time.Second,
		MaxBodySize: app.cfg.HTTP.MaxBodyBytes,
	})
	deps := resolver.Dependencies{
		Pages:     pages,
		Redirects: collyfetcher.NewRedirectResolver(pages),
		Logger:    app.logger,
	}
	app.logger.Info("using colly page fetcher", zap.Int("timeout_seconds", app.cfg.HTTP.TimeoutSeconds))

	if app.cfg.Headless.Enabled {
		headless, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       app.cfg.Headless.MaxParallel,
			NavigationTimeout: time.Duration(app.cfg.Headless.NavTimeoutSec) * time.Second,
			SettleDelay:       time.Duration(app.cfg.Headless.SettleDelayMs) * time.Millisecond,
		})
		if err != nil {
			app.logger.Warn("headless fetcher init failed, fallback uses the page fetcher", zap.Error(err))
		} else {
			app.headless = headless
			deps.Renderer = headless
			if app.cfg.Headless.PromotionThresh > 0 {
				deps.Promote = detector.NewHeuristic(app.cfg.Headless.PromotionThresh).ShouldPromote
			}
			app.logger.Info("using headless fetcher for fallback", zap.Int("max_parallel", app.cfg.Headless.MaxParallel))
		}
	}

	res, err := resolver.NewFromConfig(app.cfg.ResolverConfig(), deps)
	if err != nil {
		return nil, fmt.Errorf("resolver init failed: %w", err)
	}
	return res, nil
}

func setupStore(ctx context.Context, app *App) (catalog.Store, []api.ReadinessCheck, error) {
	if app.cfg.DB.DSN == "" {
		app.logger.Warn("No DSN specified for database, using in-memory catalog")
		return catalog.NewMemoryStore(), nil, nil
	}
	store, err := pgstore.New(ctx, pgstore.Config{
		DSN:      app.cfg.DB.DSN,
		Table:    app.cfg.DB.Table,
		MaxConns: int32(app.cfg.DB.MaxConns),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("catalog store init failed: %w", err)
	}
	app.pgStore = store
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, nil, fmt.Errorf("catalog schema init failed: %w", err)
	}
	app.logger.Info("catalog store initialized", zap.String("table", app.cfg.DB.Table))
	return store, []api.ReadinessCheck{store.Ping}, nil
}

func setupPublisher(ctx context.Context, app *App) (catalog.Publisher, error) {
	if app.cfg.PubSub.TopicName == "" || app.cfg.PubSub.ProjectID == "" {
		app.logger.Warn("No Pub/Sub topic configured, using in-memory publisher")
		return memorypublisher.New(), nil
	}
	var err error
	app.pubsubClient, err = pubsub.NewClient(ctx, app.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client init failed: %w", err)
	}
	app.pubsubTopic = app.pubsubClient.Topic(app.cfg.PubSub.TopicName)
	app.logger.Info(
		"Pub/Sub publisher initialized",
		zap.String("project", app.cfg.PubSub.ProjectID),
		zap.String("topic", app.cfg.PubSub.TopicName),
	)
	return gcppublisher.New(app.pubsubTopic), nil
}
