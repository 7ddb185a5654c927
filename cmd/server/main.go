package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	catalogapp "github.com/pim/backend/internal/application/catalog"
	feedapp "github.com/pim/backend/internal/application/feed"
	"github.com/pim/backend/internal/infrastructure/auth"
	"github.com/pim/backend/internal/infrastructure/cache"
	"github.com/pim/backend/internal/infrastructure/config"
	"github.com/pim/backend/internal/infrastructure/event"
	"github.com/pim/backend/internal/infrastructure/feedclient"
	"github.com/pim/backend/internal/infrastructure/logger"
	"github.com/pim/backend/internal/infrastructure/persistence"
	"github.com/pim/backend/internal/infrastructure/scheduler"
	"github.com/pim/backend/internal/infrastructure/storage"
	"github.com/pim/backend/internal/infrastructure/telemetry"
	"github.com/pim/backend/internal/interfaces/http/handler"
	"github.com/pim/backend/internal/interfaces/http/middleware"
	"github.com/pim/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			PIM Backend API
//	@version		1.0
//	@description	Product information management backend - catalog, brands and feed import

//	@contact.name	API Support
//	@contact.url	https://github.com/pim/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting PIM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize telemetry providers (traces, metrics, logs, profiles)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	logsProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logs provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logs provider", zap.Error(err))
		}
	}()

	// Bridge zap output to the OTEL collector alongside the configured output
	if logsProvider.IsEnabled() {
		bridgeLevel, perr := zapcore.ParseLevel(cfg.Log.Level)
		if perr != nil {
			bridgeLevel = zapcore.InfoLevel
		}
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: logsProvider,
			Level:          bridgeLevel,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore,
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
		log.Info("OTEL log bridge enabled",
			zap.String("collector_endpoint", cfg.Telemetry.CollectorEndpoint),
		)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.ProfilingServer,
		ApplicationName:     cfg.Telemetry.ServiceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register query tracing and pool metrics on the GORM instance
	dbTracingCfg := telemetry.DefaultDBTracingConfig()
	dbTracingCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracingCfg.WithoutVariables = !cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	dbTracing := telemetry.NewDBTracingPlugin(dbTracingCfg, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbMetricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsCfg, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(context.Background())
		defer dbMetrics.Stop()
	}

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	brandRepo := persistence.NewGormBrandRepository(db.DB)
	linkRepo := persistence.NewGormProductBrandLinkRepository(db.DB)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Import metrics observe catalog events and record run outcomes
	var importMetrics *telemetry.ImportMetrics
	if meterProvider.IsEnabled() {
		importMetrics, err = telemetry.NewImportMetrics(telemetry.ImportMetricsConfig{
			Meter:           meterProvider.Meter("pim.import"),
			Logger:          log,
			CatalogProvider: telemetry.NewGormCatalogMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize import metrics", zap.Error(err))
		}
		importMetrics.StartPeriodicCollection(context.Background(), 5*time.Minute)
		defer importMetrics.Stop()

		productMetricsHandler := event.NewProductMetricsHandler(importMetrics, log)
		eventBus.Subscribe(productMetricsHandler)
		log.Info("Event handlers registered",
			zap.Strings("product_metrics_events", productMetricsHandler.EventTypes()),
		)
	}

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	productService := catalogapp.NewProductService(productRepo, categoryRepo, eventBus)
	categoryService := catalogapp.NewCategoryService(categoryRepo, eventBus)
	brandService := catalogapp.NewBrandService(brandRepo, linkRepo, eventBus)
	linkService := catalogapp.NewLinkService(linkRepo, productRepo, brandRepo)
	exportService := feedapp.NewExportService(productRepo, categoryRepo, brandRepo, linkRepo)

	// Remote catalog feed client
	feedClient, err := feedclient.NewClient(&feedclient.Config{
		BaseURL:        cfg.Feed.BaseURL,
		TimeoutSeconds: cfg.Feed.TimeoutSeconds,
		MaxAttempts:    cfg.Feed.MaxAttempts,
		BackoffBase:    cfg.Feed.RetryBackoff,
	})
	if err != nil {
		log.Fatal("Failed to create feed client", zap.Error(err))
	}

	importService := feedapp.NewImportService(
		feedClient,
		productService,
		categoryService,
		brandService,
		linkService,
		cfg.Import.BatchSize,
		log,
	)

	// Run lock serializes import runs across instances. Redis-backed when
	// reachable, in-memory otherwise.
	runLock, err := cache.NewRunLockFactory(cfg.Redis, cache.WithLogger(log)).CreateLock()
	if err != nil {
		log.Fatal("Failed to create import run lock", zap.Error(err))
	}

	importExecutor := scheduler.NewImportExecutor(importService, runLock, cfg.Import.LockTTL, log)

	// Snapshot archiving uploads the post-run CSV export to object storage.
	// Without a configured bucket the stub keeps the archive step alive but
	// discards the payload.
	if cfg.Import.ArchiveEnabled {
		var archiver feedapp.SnapshotArchiver
		if cfg.Storage.Bucket != "" {
			objectStorage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
			if err != nil {
				log.Fatal("Failed to initialize object storage", zap.Error(err))
			}
			if err := objectStorage.EnsureBucket(context.Background()); err != nil {
				log.Fatal("Failed to ensure snapshot bucket", zap.Error(err))
			}
			archiver = objectStorage
			log.Info("Snapshot archiving enabled", zap.String("bucket", cfg.Storage.Bucket))
		} else {
			archiver = storage.NewStubObjectStorage(log)
			log.Warn("Snapshot archiving enabled without a bucket, snapshots will be discarded")
		}
		importExecutor.SetSnapshotArchive(exportService, archiver)
	}

	// The scheduler always runs so manual triggers work; the cron trigger
	// below is what cfg.Import.Enabled gates.
	importScheduler, err := scheduler.NewImportScheduler(scheduler.ImportSchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: cfg.Import.MaxConcurrentJobs,
		JobTimeout:        cfg.Import.JobTimeout,
		RetryAttempts:     cfg.Import.RetryAttempts,
		RetryDelay:        cfg.Import.RetryDelay,
	}, importExecutor, logger.Named(log, "scheduler"))
	if err != nil {
		log.Fatal("Failed to create import scheduler", zap.Error(err))
	}
	if importMetrics != nil {
		importScheduler.SetRunRecorder(importMetrics)
	}
	if err := importScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start import scheduler", zap.Error(err))
	}
	defer func() {
		if err := importScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping import scheduler", zap.Error(err))
		}
	}()
	log.Info("Import scheduler started",
		zap.Int("max_concurrent_jobs", cfg.Import.MaxConcurrentJobs),
		zap.Duration("job_timeout", cfg.Import.JobTimeout),
	)

	importTrigger := scheduler.NewImportCronTrigger(scheduler.ImportCronTriggerConfig{
		Interval: cfg.Import.Interval,
	}, importScheduler, logger.Named(log, "cron"))
	if cfg.Import.Enabled {
		if err := importTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start import trigger", zap.Error(err))
		}
		defer func() {
			if err := importTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping import trigger", zap.Error(err))
			}
		}()
		log.Info("Import trigger started", zap.Duration("interval", cfg.Import.Interval))
	}

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, exportService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	brandHandler := handler.NewBrandHandler(brandService)
	linkHandler := handler.NewLinkHandler(linkService)
	importHandler := handler.NewImportHandler(importTrigger, importScheduler)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - OTEL span per request
	// 4. Logger - Log requests
	// 5. Metrics - Request count/latency/size per route
	// 6. Profiling - Pyroscope labels per route
	// 7. Security - Add security headers
	// 8. CORS - Handle cross-origin requests
	// 9. BodyLimit - Limit request body size
	// 10. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   profiler.IsEnabled(),
		SkipPaths: []string{"/health"},
	}))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// JWT auth (if enabled). Catalog reads stay public; mutations and the
	// whole import surface require a bearer token.
	if cfg.Auth.Enabled {
		jwtService := auth.NewJWTService(cfg.Auth)
		authGuard := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
			Logger:     log,
		})
		r.Use(mutationGuard(authGuard))
		log.Info("JWT authentication enabled", zap.String("issuer", cfg.Auth.JWTIssuer))
	}

	// Catalog domain (products, categories, brands, feed import)
	catalogRoutes := router.NewDomainGroup("catalog", "/catalog")
	catalogRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "catalog service ready"})
	})

	// Product routes
	catalogRoutes.POST("/products", productHandler.Create)
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.GET("/products/export", productHandler.Export)
	catalogRoutes.GET("/products/handle/:handle", productHandler.GetByHandle)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)
	catalogRoutes.PUT("/products/:id", productHandler.Update)
	catalogRoutes.DELETE("/products/:id", productHandler.Delete)

	// Product-brand link routes
	catalogRoutes.GET("/products/:id/brands", linkHandler.ListBrands)
	catalogRoutes.POST("/products/:id/brands/:brand_id", linkHandler.Link)
	catalogRoutes.DELETE("/products/:id/brands/:brand_id", linkHandler.Dismiss)

	// Category routes
	catalogRoutes.POST("/categories", categoryHandler.Create)
	catalogRoutes.GET("/categories", categoryHandler.List)
	catalogRoutes.GET("/categories/:id", categoryHandler.GetByID)
	catalogRoutes.PUT("/categories/:id", categoryHandler.Update)
	catalogRoutes.DELETE("/categories/:id", categoryHandler.Delete)

	// Brand routes
	catalogRoutes.POST("/brands", brandHandler.Create)
	catalogRoutes.GET("/brands", brandHandler.List)
	catalogRoutes.GET("/brands/:id", brandHandler.GetByID)
	catalogRoutes.PUT("/brands/:id", brandHandler.Update)
	catalogRoutes.DELETE("/brands/:id", brandHandler.Delete)
	catalogRoutes.GET("/brands/:id/products", linkHandler.ListProducts)

	// Feed import routes. Manual runs are expensive, so the trigger route
	// carries its own per-client limit on top of the global one.
	triggerLimiter := middleware.NewRateLimiter(10, time.Minute)
	catalogRoutes.POST("/import/runs", middleware.RateLimitByKey(triggerLimiter, func(c *gin.Context) string {
		return "import-trigger:" + c.ClientIP()
	}), importHandler.Trigger)
	catalogRoutes.GET("/import/runs", importHandler.History)
	catalogRoutes.GET("/import/runs/:id", importHandler.GetRun)
	catalogRoutes.GET("/import/stats", importHandler.Stats)

	r.Register(catalogRoutes)

	// Register system routes
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// mutationGuard wraps authGuard so it only fires for mutating requests and
// for the import surface, whose reads are guarded for all methods.
func mutationGuard(authGuard gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && !strings.HasPrefix(c.Request.URL.Path, "/api/v1/catalog/import") {
			c.Next()
			return
		}
		authGuard(c)
	}
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
