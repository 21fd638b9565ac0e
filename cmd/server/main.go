package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/application/payment"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/cache"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/shopledger/backend/internal/infrastructure/event"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/infrastructure/migration"
	"github.com/shopledger/backend/internal/infrastructure/notification"
	"github.com/shopledger/backend/internal/infrastructure/persistence"
	"github.com/shopledger/backend/internal/infrastructure/scheduler"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"github.com/shopledger/backend/internal/interfaces/http/handler"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
	"github.com/shopledger/backend/internal/interfaces/http/router"
	"github.com/shopledger/backend/migrations"
	"go.uber.org/zap"
)

//	@title			Shop Ledger API
//	@version		1.0
//	@description	Payment allocation and balance reconciliation for a shop's customers and suppliers

//	@BasePath	/api/v1

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
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OTLP log export tees into the application logger
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log, err := logger.New(logCfg, telemetry.NewZapOTELCore(
		cfg.Telemetry.ServiceName, logProvider, logger.ParseLevel(cfg.Telemetry.LogsLevel),
	))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting shop ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeServerURL,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := logProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Database with zap-backed GORM logger and optional query tracing
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithPlugins(telemetry.DBTracingPlugins(telemetry.DBTracingConfig{
			Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL: cfg.Telemetry.DBLogFullSQL,
			DBName:     cfg.Database.DBName,
		})...),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := migrateSchema(db, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver()))

	// Repositories
	uow := persistence.NewGormLedgerUnitOfWork(db.DB)
	partyRepo := persistence.NewGormPartyRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	accountRepo := persistence.NewGormBankAccountRepository(db.DB)
	bankTxnRepo := persistence.NewGormBankTransactionRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	bankLedger := persistence.NewGormBankLedger(db.DB)

	// Idempotency store: Redis when enabled, in-memory otherwise
	idempotencyStore, redisClient, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Event bus and payment notifications
	eventBus := event.NewInMemoryEventBus(log)
	if cfg.Notification.Enabled {
		notifications, err := newNotificationHandler(cfg, redisClient, log)
		if err != nil {
			log.Fatal("Failed to configure notifications", zap.Error(err))
		}
		eventBus.Subscribe(event.NewIdempotentHandler(notifications, idempotencyStore, shared.IdempotencyConfig{
			TTL:     cfg.Ledger.IdempotencyTTL,
			Enabled: true,
		}, log))
		log.Info("Payment notifications enabled",
			zap.String("provider", cfg.Notification.Provider),
			zap.Strings("events", notifications.EventTypes()),
		)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Payment outcome metrics
	recorders := telemetry.MultiRecorder{}
	var prometheusMetrics *telemetry.PrometheusLedgerMetrics
	if cfg.Telemetry.PrometheusEnabled {
		prometheusMetrics = telemetry.NewPrometheusLedgerMetrics("shopledger")
		recorders = append(recorders, prometheusMetrics)
	}
	if meterProvider.IsEnabled() {
		otelMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter("shopledger/ledger"))
		if err != nil {
			log.Fatal("Failed to create ledger metrics", zap.Error(err))
		}
		recorders = append(recorders, otelMetrics)
	}

	// Application services
	orchestratorOpts := []payment.Option{
		payment.WithOverpaymentPolicy(finance.OverpaymentPolicy(cfg.Ledger.OverpaymentPolicy)),
		payment.WithBankLedger(bankLedger, bankTxnRepo),
		payment.WithAuditRepository(auditRepo),
		payment.WithEventPublisher(eventBus),
		payment.WithRecorder(recorders),
		payment.WithLogger(log),
	}
	if cfg.Ledger.IdempotencyEnabled {
		orchestratorOpts = append(orchestratorOpts, payment.WithIdempotencyStore(idempotencyStore, cfg.Ledger.IdempotencyTTL))
	}
	orchestrator := payment.NewOrchestrator(uow, partyRepo, invoiceRepo, paymentRepo, orchestratorOpts...)

	partyService := ledger.NewPartyService(partyRepo, auditRepo, eventBus, log)
	invoiceService := ledger.NewInvoiceService(uow, partyRepo, invoiceRepo, auditRepo, eventBus, log)
	accountService := ledger.NewBankAccountService(accountRepo, bankTxnRepo, auditRepo, log)
	paymentQueries := ledger.NewPaymentQueryService(partyRepo, paymentRepo)
	reconciliationService := ledger.NewReconciliationService(partyRepo, invoiceRepo, paymentRepo,
		ledger.WithLedgerSnapshot(uow),
		ledger.WithDriftAudit(auditRepo),
		ledger.WithDriftPublisher(eventBus),
		ledger.WithDriftRecorder(recorders),
		ledger.WithReconciliationLogger(log),
	)

	// Periodic drift check
	if cfg.Ledger.DriftCheckEnabled {
		schedulerConfig := scheduler.DefaultSchedulerConfig()
		schedulerConfig.JobTimeout = cfg.Ledger.DriftCheckTimeout
		jobExecutor := ledger.NewJobExecutor(reconciliationService)
		driftScheduler, err := scheduler.NewScheduler(schedulerConfig, jobExecutor, log)
		if err != nil {
			log.Fatal("Failed to create scheduler", zap.Error(err))
		}
		jobExecutor.ScheduleRechecksOn(driftScheduler)
		if err := driftScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := driftScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()

		trigger := scheduler.NewIntervalTrigger(scheduler.IntervalTriggerConfig{
			Interval: cfg.Ledger.DriftCheckInterval,
		}, driftScheduler, log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start drift check trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping drift check trigger", zap.Error(err))
			}
		}()
		log.Info("Drift check scheduled",
			zap.Duration("interval", cfg.Ledger.DriftCheckInterval),
			zap.Duration("timeout", cfg.Ledger.DriftCheckTimeout),
		)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engineConfig := router.EngineConfig{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: tracerProvider.IsEnabled(),
		Profiling:      middleware.DefaultProfilingConfig(),
		CORS:           corsConfig,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}
	engineConfig.Profiling.Enabled = profiler.IsEnabled()
	if meterProvider.IsEnabled() {
		engineConfig.MeterProvider = meterProvider
	}
	if prometheusMetrics != nil {
		engineConfig.MetricsHandler = prometheusMetrics.Handler()
	}
	engine := router.NewEngine(engineConfig)

	var paymentLimit []gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitBurst)
		defer limiter.Stop()
		paymentLimit = append(paymentLimit, middleware.RateLimit(limiter))
		log.Info("Payment rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}

	router.SetupLedger(engine, router.LedgerHandlers{
		Payments:       handler.NewPaymentHandler(orchestrator, paymentQueries),
		PaymentImport:  handler.NewPaymentImportHandler(payment.NewImporter(orchestrator, partyRepo, log)),
		Parties:        handler.NewPartyHandler(partyService),
		Invoices:       handler.NewInvoiceHandler(invoiceService),
		BankAccounts:   handler.NewBankAccountHandler(accountService),
		Reconciliation: handler.NewReconciliationHandler(reconciliationService),
		System:         handler.NewSystemHandler(cfg.App.Name, db),
	}, paymentLimit...)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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
		return
	}

	log.Info("Server exited gracefully")
}

// migrateSchema applies the embedded SQL migrations on postgres. SQLite
// databases are created from the GORM models.
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver() == "sqlite" {
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// newNotificationHandler builds the payment notification handler for the
// configured provider. Redis falls back to the log notifier when the
// idempotency factory could not hand out a client.
func newNotificationHandler(cfg *config.Config, redisClient *redis.Client, log *zap.Logger) (*notification.PaymentNotificationHandler, error) {
	var templates notification.TemplateProvider
	if cfg.Notification.TemplatesFile != "" {
		loaded, err := notification.LoadYAMLTemplates(cfg.Notification.TemplatesFile, notification.NewStaticTemplateProvider())
		if err != nil {
			return nil, err
		}
		templates = loaded
	}

	var notifier notification.Notifier = notification.NewLogNotifier(log)
	if cfg.Notification.Provider == "redis" {
		if redisClient != nil {
			notifier = notification.NewRedisNotifier(redisClient, cfg.Notification.Channel, log)
		} else {
			log.Warn("Redis unavailable, payment notifications go to the log")
		}
	}
	return notification.NewPaymentNotificationHandler(notifier, templates, cfg.Notification.Locale, log), nil
}
