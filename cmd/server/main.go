package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	appevent "github.com/pos/backend/internal/application/event"
	inventoryapp "github.com/pos/backend/internal/application/inventory"
	tradeapp "github.com/pos/backend/internal/application/trade"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/pos/backend/internal/domain/trade"
	"github.com/pos/backend/internal/infrastructure/cache"
	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/pos/backend/internal/infrastructure/event"
	"github.com/pos/backend/internal/infrastructure/lock"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/infrastructure/messaging"
	"github.com/pos/backend/internal/infrastructure/migration"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"github.com/pos/backend/internal/infrastructure/telemetry"
	"github.com/pos/backend/internal/interfaces/http/handler"
	"github.com/pos/backend/internal/interfaces/http/middleware"
	"github.com/pos/backend/internal/interfaces/http/router"
	"github.com/pos/backend/migrations"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// OTLP log export tees into the zap logger
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if log, err = logger.New(logCfg, logsProvider.Core(logger.ParseLevel(cfg.Log.Level))); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting POS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	meter := meterProvider.Meter(telemetry.TracerName)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServer,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Telemetry.ProfilingEnabled {
		tracerProvider.EnableSpanProfiles()
	}

	// Flush telemetry last so shutdown logs and spans are exported
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
		if err := errors.Join(
			meterProvider.Shutdown(shutdownCtx),
			tracerProvider.Shutdown(shutdownCtx),
			logsProvider.Shutdown(shutdownCtx),
		); err != nil {
			log.Error("Error flushing telemetry", zap.Error(err))
		}
	}()

	// Apply pending migrations on a dedicated connection; migrate closes it
	if cfg.Database.AutoMigrate {
		if err := runMigrations(cfg, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbInstrumentation, err := telemetry.NewDBInstrumentation(meter, telemetry.DBConfig{
		TraceEnabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log)
	if err != nil {
		log.Fatal("Failed to create database instrumentation", zap.Error(err))
	}
	if err := db.DB.Use(dbInstrumentation); err != nil {
		log.Fatal("Failed to register database instrumentation", zap.Error(err))
	}
	dbInstrumentation.StartPoolStatsCollection(ctx)
	defer dbInstrumentation.Stop()

	// Redis backs sale locks and cross-instance event idempotency
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
		log.Info("Redis connected", zap.String("host", cfg.Redis.Host))
	}
	idempotencyStore := cache.NewIdempotencyStore(redisClient, cfg.Kafka.IdempotencyKeyPrefix, log)
	defer func() {
		_ = idempotencyStore.Close()
	}()

	// Repositories and services
	txScope := persistence.NewGormTransactionScope(db.DB)
	ledger := inventoryapp.NewLedger(log)

	saleService := tradeapp.NewSaleService(
		txScope,
		persistence.NewGormSaleRepository(db.DB),
		persistence.NewGormSaleReturnRepository(db.DB),
		ledger,
		tradeapp.Config{
			ReferencePrefix:  cfg.Sale.ReferencePrefix,
			PaymentTolerance: valueobject.NewMoney(cfg.Sale.PaymentTolerance),
		},
		log,
	)
	inventoryService := inventoryapp.NewInventoryService(
		txScope.Ledger(),
		persistence.NewGormStockRepository(db.DB),
		persistence.NewGormMovementRepository(db.DB),
		ledger,
		log,
	)

	if redisClient != nil {
		lockCfg := lock.DefaultConfig()
		lockCfg.TTL = cfg.Sale.LockTTL
		saleService.SetLocker(lock.NewRedisLocker(redisClient, lockCfg, log))
	} else {
		log.Warn("Redis not configured, concurrent completion of one sale relies on row locks only")
	}

	// Event bus and handlers
	eventBus := event.NewAsyncEventBus(event.AsyncBusConfig{
		QueueSize:    cfg.Event.QueueSize,
		Workers:      cfg.Event.Workers,
		MaxRetries:   cfg.Event.MaxRetries,
		RetryBackoff: cfg.Event.RetryBackoff,
	}, log)

	lowStockHandler := inventoryapp.NewLowStockHandler(log).
		WithNotifier(inventoryapp.NewLoggingStockAlertNotifier(log))
	eventBus.Subscribe(lowStockHandler)

	salesMetrics, err := telemetry.NewSalesMetrics(telemetry.SalesMetricsConfig{
		Meter:           meter,
		Logger:          log,
		LowStockCounter: telemetry.NewGormLowStockCounter(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create sales metrics", zap.Error(err))
	}
	salesMetricsHandler := appevent.NewSalesMetricsHandler(salesMetrics, log)
	eventBus.Subscribe(salesMetricsHandler)

	// Audit trail of money-moving sale events
	eventBus.Subscribe(shared.HandleFunc(func(_ context.Context, e shared.DomainEvent) error {
		log.Info("Sale event",
			zap.String("type", e.EventType()),
			zap.String("sale_id", e.AggregateID().String()),
			zap.String("store_id", e.StoreID().String()),
			zap.Time("occurred_at", e.OccurredAt()),
		)
		return nil
	}, trade.EventTypeSaleCompleted, trade.EventTypeSaleRefunded))
	salesMetrics.StartLowStockCollection(ctx, cfg.Telemetry.LowStockInterval)
	defer salesMetrics.Stop()

	if cfg.Kafka.Enabled {
		writer := messaging.NewKafkaWriter(messaging.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			RequiredAcks: cfg.Kafka.RequiredAcks,
		})
		breakerCfg := messaging.DefaultBreakerConfig()
		breakerCfg.FailureThreshold = cfg.Kafka.BreakerFailures
		breakerCfg.OpenTimeout = cfg.Kafka.BreakerOpenTimeout

		forwarder := messaging.NewEventForwarder(writer, event.NewEventSerializer(), breakerCfg, log)
		defer func() {
			if err := forwarder.Close(); err != nil {
				log.Error("Error closing Kafka writer", zap.Error(err))
			}
		}()
		// Retried deliveries must not reach the topic twice
		eventBus.Subscribe(event.NewIdempotentHandler(forwarder, idempotencyStore, shared.IdempotencyConfig{
			TTL:     cfg.Event.IdempotencyTTL,
			Enabled: true,
		}, log))
		log.Info("Kafka forwarding enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	log.Info("Event handlers registered",
		zap.Strings("low_stock_events", lowStockHandler.EventTypes()),
		zap.Strings("sales_metrics_events", salesMetricsHandler.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	saleService.SetEventPublisher(eventBus)
	inventoryService.SetEventPublisher(eventBus)

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first:
	// recovery, request id, access log, store scope, tracing, metrics,
	// profiling labels, CORS, security headers, body limit
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.StoreScope(),
		middleware.Tracing(cfg.Telemetry.ServiceName),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(meter),
		middleware.Profiling(middleware.ProfilingConfig{Enabled: cfg.Telemetry.ProfilingEnabled, SkipPaths: []string{"/health"}}),
		middleware.CORS(corsConfig),
		middleware.Secure(middleware.DefaultSecurityConfig()),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	var apiMiddleware []gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		rateLimiter.StartCleanup(ctx)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	loyalty := tradeapp.LoyaltyConfig{
		Enabled: cfg.Sale.Loyalty.Enabled,
		Rate:    cfg.Sale.Loyalty.Rate,
	}
	router.Mount(engine, router.Handlers{
		Sale:      handler.NewSaleHandler(saleService, loyalty),
		Inventory: handler.NewInventoryHandler(inventoryService),
		System:    handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, db),
	}, apiMiddleware, router.WithAPIVersion("v1"))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stop()

	log.Info("Server exited gracefully")
}

// runMigrations applies the embedded migrations through lib/pq
func runMigrations(cfg *config.Config, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	m, err := migration.NewEmbedded(sqlDB, migrations.FS, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer m.Close()
	return m.Up()
}
