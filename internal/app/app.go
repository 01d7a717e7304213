package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/augbriz/desarrollo-FE-tp/internal/auth"
	"github.com/augbriz/desarrollo-FE-tp/internal/cache"
	"github.com/augbriz/desarrollo-FE-tp/internal/client"
	"github.com/augbriz/desarrollo-FE-tp/internal/config"
	"github.com/augbriz/desarrollo-FE-tp/internal/event"
	handler "github.com/augbriz/desarrollo-FE-tp/internal/handler/http"
	"github.com/augbriz/desarrollo-FE-tp/internal/service"
	"github.com/augbriz/desarrollo-FE-tp/pkg/database"
	"github.com/augbriz/desarrollo-FE-tp/pkg/health"
	"github.com/augbriz/desarrollo-FE-tp/pkg/httpclient"
	pkgkafka "github.com/augbriz/desarrollo-FE-tp/pkg/kafka"
	"github.com/augbriz/desarrollo-FE-tp/pkg/middleware"
	"github.com/augbriz/desarrollo-FE-tp/pkg/tracing"
)

const serviceName = "backoffice"

// App wires together all dependencies and runs the backoffice service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	redis          *redis.Client
	producer       *pkgkafka.Producer
	limiter        *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown tracing.Shutdown
	sentry         bool
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// Sentry error reporting.
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          serviceName + "@" + cfg.Tracing.ServiceVersion,
			AttachStacktrace: true,
		}); err != nil {
			logger.Error("sentry init failed", slog.String("error", err.Error()))
		} else {
			a.sentry = true
			logger.Info("sentry error reporting enabled")
		}
	}

	healthHandler := health.NewHandler(serviceName)

	// Snapshot store.
	store, err := a.newSnapshotStore(ctx)
	if err != nil {
		a.closeEarly()
		return nil, err
	}
	healthHandler.Register("snapshot_store", store.Ping)

	// Kafka producer. Events are dropped when no broker is configured.
	var publisher event.Publisher
	if cfg.KafkaEnabled() {
		a.producer, err = pkgkafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			a.closeEarly()
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		publisher = a.producer
		healthHandler.RegisterOptional("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized",
			slog.Any("brokers", cfg.Kafka.Brokers),
			slog.String("compression", cfg.Kafka.Compression),
		)
	} else {
		logger.Warn("KAFKA_BROKERS not set, events are disabled")
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Store API client behind a circuit breaker.
	storeAPI := httpclient.NewBreaker("store-api", httpclient.New(cfg.StoreAPI), cfg.Breaker, logger)
	logger.Info("store api client initialized",
		slog.String("url", cfg.StoreAPIURL),
		slog.Int("max_retries", cfg.StoreAPI.Retry.Attempts),
		slog.Duration("breaker_cooldown", cfg.Breaker.Cooldown),
	)
	healthHandler.Register("store_api", func(context.Context) error {
		if storeAPI.Open() {
			return errors.New("circuit breaker open")
		}
		return nil
	})

	// Build the dependency graph.
	moderationService := service.NewModerationService(
		client.NewReviewClient(storeAPI, cfg.StoreAPIURL, logger),
		store,
		eventProducer,
		logger,
		service.ModerationConfig{
			Location:  cfg.Location(),
			NoticeTTL: cfg.NoticeTTL,
		},
	)
	checkoutService := service.NewCheckoutService(
		client.NewCheckoutClient(storeAPI, cfg.StoreAPIURL, logger),
		eventProducer,
		logger,
		service.CheckoutConfig{
			PollInterval: cfg.StatusPollInterval,
			MaxWait:      cfg.StatusMaxWait,
		},
	)

	if cfg.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set, bearer tokens are decoded without signature checks")
	}
	inspector := auth.NewInspector(cfg.JWTSecret)

	a.limiter = middleware.NewRateLimiter(cfg.DeleteRPS, cfg.DeleteBurst, logger)

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		Moderation:    moderationService,
		Checkout:      checkoutService,
		Health:        healthHandler,
		Inspect:       inspector.Inspect,
		DeleteLimiter: a.limiter,
		CORS:          cfg.CORS,
		Location:      cfg.Location(),
		AdminCIDRs:    cfg.PprofAllowedCIDRs,
		Sentry:        a.sentry,
		Logger:        logger,
	})

	// Status requests may hold the connection for up to CHECKOUT_MAX_WAIT.
	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.StatusMaxWait + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// newSnapshotStore builds the configured snapshot backend.
func (a *App) newSnapshotStore(ctx context.Context) (cache.Store, error) {
	codec, err := cache.NewCodec()
	if err != nil {
		return nil, fmt.Errorf("init snapshot codec: %w", err)
	}

	if a.cfg.SnapshotStore == config.SnapshotRedis {
		rdb, err := database.NewRedisClient(ctx, a.cfg.Redis, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = rdb
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, rdb, serviceName); err != nil {
			a.logger.Warn("redis pool metrics not registered", slog.String("error", err.Error()))
		}
		a.logger.Info("connected to Redis",
			slog.String("addr", a.cfg.Redis.Addr()),
			slog.Duration("snapshot_ttl", a.cfg.SnapshotTTL),
		)
		return cache.NewRedisStore(rdb, a.cfg.SnapshotTTL, codec), nil
	}

	store := cache.NewMemoryStore(a.cfg.SnapshotSizeMB, a.cfg.SnapshotTTL, codec)
	entries := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "backoffice_snapshot_entries",
		Help: "Review snapshots held in the in-process cache",
	}, func() float64 { return float64(store.EntryCount()) })
	if err := prometheus.Register(entries); err != nil {
		a.logger.Warn("snapshot entries gauge not registered", slog.String("error", err.Error()))
	}
	a.logger.Info("using in-memory snapshot store",
		slog.Int("size_mb", a.cfg.SnapshotSizeMB),
		slog.Duration("snapshot_ttl", a.cfg.SnapshotTTL),
	)
	return store, nil
}

// closeEarly releases what NewApp acquired before failing.
func (a *App) closeEarly() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.tracerShutdown != nil {
		_ = a.tracerShutdown(context.Background())
	}
	if a.sentry {
		sentry.Flush(2 * time.Second)
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, rate
// limiter, tracer, Kafka producer, Redis, Sentry.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Drain in-flight HTTP requests, including long status waits.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.limiter.Close()

	// Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.sentry {
		sentry.Flush(2 * time.Second)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
