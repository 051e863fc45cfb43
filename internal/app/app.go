// Package app wires the service together: storage clients, engines,
// handlers, the HTTP server, the listing event consumer, and the bootstrap
// bulk resync.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pazarly/search-service/internal/config"
	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/event"
	handler "github.com/pazarly/search-service/internal/handler/http"
	"github.com/pazarly/search-service/internal/history"
	"github.com/pazarly/search-service/internal/index/elasticsearch"
	"github.com/pazarly/search-service/internal/query"
	"github.com/pazarly/search-service/internal/ratelimit"
	"github.com/pazarly/search-service/internal/repository/postgres"
	syncengine "github.com/pazarly/search-service/internal/sync"
	"github.com/pazarly/search-service/pkg/database"
	"github.com/pazarly/search-service/pkg/health"
	"github.com/pazarly/search-service/pkg/kafka"
	"github.com/pazarly/search-service/pkg/middleware"
)

// App owns the service's long-lived resources.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	consumer *kafka.Consumer
	sync     *syncengine.Engine
	closers  []func()
}

// New builds the application from configuration. It connects the relational
// pool and the rate-limit cache eagerly; the index store connection is
// verified later by the bootstrap resync so a slow search backend does not
// block process start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	store, err := elasticsearch.New(cfg.ElasticsearchURL, logger)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("create index store: %w", err)
	}

	listings := postgres.NewListingRepository(pool)
	articles := postgres.NewArticleRepository(pool)
	slots := postgres.NewSlotRepository(pool)

	mappings := map[string]string{}
	for _, name := range []string{
		domain.IndexListings,
		domain.IndexArticles,
		domain.IndexRankingSlots,
		domain.IndexSearchHistory,
		domain.IndexSearchStats,
	} {
		mappings[name] = elasticsearch.MappingFor(name)
	}

	syncEngine := syncengine.New(store, listings, articles, slots, mappings, syncengine.Config{
		PingAttempts: cfg.SyncPingAttempts,
		PingDelay:    cfg.SyncPingDelay,
		PageSize:     cfg.SyncPageSize,
		BatchSize:    cfg.SyncBatchSize,
	}, logger)

	queryEngine := query.New(store, listings, logger)

	limiter := ratelimit.New(ratelimit.NewRedisCounter(redisClient), "search")
	historyEngine := history.New(store, limiter, history.Config{
		RateLimit:  cfg.RateLimitRequests,
		RateWindow: cfg.RateLimitWindow,
	}, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("elasticsearch", store.Ping)
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return kafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})

	router := handler.NewRouter(handler.RouterDeps{
		Search:   handler.NewSearchHandler(queryEngine, logger),
		History:  handler.NewHistoryHandler(historyEngine, logger),
		Webhooks: handler.NewWebhookHandler(syncEngine, logger),
		Health:   healthHandler,
		Auth:     middleware.JWTValidator(cfg.JWTSecret),
		Logger:   logger,
	})

	listingHandler := event.NewListingHandler(syncEngine, logger)
	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.KafkaGroupID,
		Topic:   cfg.KafkaListingTopic,
	}, listingHandler.Handle, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		consumer: consumer,
		sync:     syncEngine,
		closers: []func(){
			pool.Close,
			func() { _ = redisClient.Close() },
		},
	}, nil
}

// Run starts the HTTP server, the listing event consumer, and the bootstrap
// resync, then blocks until the context is canceled or the server fails.
// Read traffic is served immediately; the resync converges the index in the
// background.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		if _, err := a.sync.Bootstrap(ctx); err != nil && !errors.Is(err, context.Canceled) {
			// A dead index store makes the whole service pointless.
			errCh <- fmt.Errorf("bootstrap sync: %w", err)
		}
	}()

	go func() {
		if err := a.consumer.Start(ctx); err != nil {
			a.logger.Error("listing consumer stopped", slog.String("error", err.Error()))
		}
	}()

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errCh:
		_ = a.shutdown()
		return err
	}
}

func (a *App) shutdown() error {
	a.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(ctx)
	if closeErr := a.consumer.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	for _, c := range a.closers {
		c()
	}
	return err
}
