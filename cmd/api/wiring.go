package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/turnosbot/turnos/internal/api/router"
	"github.com/turnosbot/turnos/internal/app/bootstrap"
	"github.com/turnosbot/turnos/internal/availability"
	"github.com/turnosbot/turnos/internal/bookings"
	"github.com/turnosbot/turnos/internal/catalog"
	"github.com/turnosbot/turnos/internal/chat"
	appconfig "github.com/turnosbot/turnos/internal/config"
	"github.com/turnosbot/turnos/internal/http/handlers"
	httpmiddleware "github.com/turnosbot/turnos/internal/http/middleware"
	"github.com/turnosbot/turnos/internal/intent"
	"github.com/turnosbot/turnos/internal/observability/metrics"
	"github.com/turnosbot/turnos/internal/transport"
	"github.com/turnosbot/turnos/pkg/logging"
)

// application is everything the API process owns and must release on exit.
type application struct {
	handler    http.Handler
	session    *transport.Session
	stores     *bootstrap.Stores
	redis      *redis.Client
	classifier *intent.GeminiClassifier
	logger     *logging.Logger
}

func buildApplication(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (_ *application, err error) {
	app := &application{logger: logger}
	defer func() {
		if err != nil {
			app.close(context.Background())
		}
	}()

	app.stores, err = bootstrap.BuildStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.redis = bootstrap.BuildRedisClient(ctx, cfg, logger, true)

	bookingMetrics := metrics.NewBookingMetrics(reg)
	chatMetrics := metrics.NewChatMetrics(reg)

	services := catalog.NewCatalog(app.stores.Services, bootstrap.BuildServiceCache(app.redis, cfg), logger)
	registry := bookings.NewRegistry(app.stores.Bookings, services, logger, bookings.WithMetrics(bookingMetrics))

	grid := availability.Grid{Open: cfg.SlotGridOpen, Close: cfg.SlotGridClose, Step: cfg.SlotGridStep}
	suggester, err := availability.NewSuggester(registry, grid, cfg.MaxSuggestions, logger, bookingMetrics)
	if err != nil {
		return nil, fmt.Errorf("availability grid: %w", err)
	}

	routerCfg := &router.Config{
		Logger:             logger,
		Bookings:           handlers.NewBookingsHandler(registry, suggester, logger),
		Services:           handlers.NewServicesHandler(services, logger),
		MetricsHandler:     promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		AdminAPIKey:        cfg.AdminAPIKey,
		AdminJWTSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	if cfg.AdminAPIKey == "" && cfg.AdminJWTSecret == "" {
		logger.Warn("no admin credentials configured; /api will reject every request")
	}

	if cfg.ChatEnabled {
		dispatcherOpts := []chat.DispatcherOption{
			chat.WithPreviewSize(cfg.BookingsPreviewSize),
			chat.WithChatMetrics(chatMetrics),
		}
		app.classifier, err = bootstrap.BuildClassifier(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if app.classifier != nil {
			dispatcherOpts = append(dispatcherOpts, chat.WithClassifier(app.classifier))
		}
		dispatcher := chat.NewDispatcher(services, registry, suggester, logger, dispatcherOpts...)

		queue, err := bootstrap.BuildChatQueue(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		app.session = transport.NewSession(dispatcher, queue, logger,
			transport.WithWorkerCount(cfg.ChatWorkerCount),
			transport.WithDeduper(bootstrap.BuildDeduper(app.redis, cfg)),
			transport.WithSessionMetrics(chatMetrics),
		)
		if err := app.session.Start(context.WithoutCancel(ctx)); err != nil {
			return nil, fmt.Errorf("start chat session: %w", err)
		}
		routerCfg.ChatWebhook = transport.NewWebhook(app.session, logger)
		routerCfg.ChatWebsocket = transport.NewWebchat(app.session, logger,
			transport.WithSessionKey([]byte(cfg.WebchatSessionKey)),
		)
		logger.Info("chat channel enabled", "workers", cfg.ChatWorkerCount)
	}

	app.handler = router.New(routerCfg)
	return app, nil
}

// close stops the chat session first so no worker touches a closed store.
func (a *application) close(ctx context.Context) error {
	var errs []error
	if a.session != nil {
		if err := a.session.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close chat session: %w", err))
		}
	}
	if a.classifier != nil {
		if err := a.classifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close classifier: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := a.stores.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close stores: %w", err))
	}
	return errors.Join(errs...)
}
