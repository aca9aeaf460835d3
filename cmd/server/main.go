// Command server runs the back office command API: one HTTP endpoint per
// command name in front of the command pipeline, plus the outbox relay.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/backoffice/internal/application/command"
	appevent "github.com/erp/backoffice/internal/application/event"
	financeapp "github.com/erp/backoffice/internal/application/finance"
	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/domain/inventory"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/cache"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/event"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/erp/backoffice/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting back office",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	mp, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	meter := mp.Meter("backoffice")

	lp, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	defer func() {
		if err := lp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = lp.Bridge(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(
		telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database.SlowThreshold), log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	if mp.IsEnabled() {
		poolMetrics, err := telemetry.NewDBPoolMetrics(meter, db.SQL(), cfg.Telemetry.PoolStatsInterval, log)
		if err != nil {
			log.Fatal("Failed to initialize pool metrics", zap.Error(err))
		}
		poolMetrics.Start(ctx)
		defer poolMetrics.Stop()
	}
	commandMetrics, err := telemetry.NewCommandMetrics(meter)
	if err != nil {
		log.Fatal("Failed to initialize command metrics", zap.Error(err))
	}

	var idempotency shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		idempotency, err = cache.NewIdempotencyStore(ctx, cfg.Idempotency, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to initialize idempotency store", zap.Error(err))
		}
		defer func() { _ = idempotency.Close() }()
		log.Info("Idempotency store ready", zap.String("backend", cfg.Idempotency.Backend))
	}

	// Outbox: handlers append events in the command's transaction, the
	// processor relays them to the bus afterwards.
	serializer := event.NewDefaultSerializer()
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	outboxPublisher := event.NewOutboxPublisher(outboxRepo, serializer, cfg.Event.MaxRetries)

	eventBus := event.NewInMemoryEventBus(log)
	var audit shared.EventHandler = appevent.NewStatusAuditHandler(log)
	if idempotency != nil {
		audit = event.NewIdempotentHandler(audit, idempotency, log,
			event.WithHandlerName("status_audit"),
			event.WithClaimTTL(cfg.Idempotency.TTL),
		)
	}
	eventBus.Subscribe(audit)

	// Command pipeline
	dispatcher := command.NewPipeline(command.PipelineConfig{
		Logger:         log,
		Validator:      command.NewValidator(),
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Idempotency.TTL,
		UnitOfWork:     persistence.NewTxCoordinator(db.DB),
		Metrics:        commandMetrics,
	})

	contacts := persistence.NewGormContactRepository(db.DB)
	tradeapp.NewHandlers(
		persistence.NewGormOrderRepository(db.DB),
		persistence.NewGormInvoiceRepository(db.DB),
		contacts,
		inventory.NewStockService(persistence.NewGormStockLevelRepository(db.DB)),
		outboxPublisher,
	).Register(dispatcher)
	financeapp.NewHandlers(
		persistence.NewGormChequeRepository(db.DB),
		persistence.NewGormPaymentRepository(db.DB),
		persistence.NewGormExpenseListRepository(db.DB),
		contacts,
		outboxPublisher,
	).Register(dispatcher)
	appevent.NewOutboxService(outboxRepo).Register(dispatcher)
	log.Info("Command pipeline ready", zap.Int("commands", len(dispatcher.Commands())))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	var processor *event.OutboxProcessor
	if cfg.Event.ProcessorEnabled {
		processor = event.NewOutboxProcessor(outboxRepo, eventBus, serializer, event.ProcessorConfigFrom(cfg.Event), log)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Recovery(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.DefaultCORSConfig()),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	checks := map[string]handler.Pinger{"database": db}
	if p, ok := idempotency.(handler.Pinger); ok {
		checks["redis"] = p
	}

	router.NewRouter(engine, router.WithNotFound(handler.NotFound)).
		Register(handler.NewSystemHandler(cfg.App.Name, version, checks)).
		Register(handler.NewCommandHandler(dispatcher), middleware.Caller(), middleware.TracingAttributeInjector())

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if processor != nil {
		if err := processor.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
