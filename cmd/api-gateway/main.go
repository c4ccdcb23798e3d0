package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lead-insights-api/api/swagger"
	"github.com/noah-isme/lead-insights-api/internal/crm"
	"github.com/noah-isme/lead-insights-api/internal/handler"
	"github.com/noah-isme/lead-insights-api/internal/middleware"
	"github.com/noah-isme/lead-insights-api/internal/repository"
	"github.com/noah-isme/lead-insights-api/internal/service"
	"github.com/noah-isme/lead-insights-api/pkg/cache"
	"github.com/noah-isme/lead-insights-api/pkg/config"
	"github.com/noah-isme/lead-insights-api/pkg/database"
	"github.com/noah-isme/lead-insights-api/pkg/export"
	"github.com/noah-isme/lead-insights-api/pkg/jobs"
	"github.com/noah-isme/lead-insights-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lead-insights-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lead-insights-api/pkg/middleware/requestid"
)

// @title Lead Insights API
// @version 1.0.0
// @description Lead reporting and CRM requalification
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	location := cfg.Reports.Location()
	validate := validator.New()
	metrics := service.NewMetricsService()

	leadRepo := repository.NewLeadRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	syncLogRepo := repository.NewSyncLogRepository(db)
	integrationRepo := repository.NewCRMIntegrationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	lockRepo := repository.NewScopeLockRepository(redisClient)

	crmClient := crm.NewClient(crm.Config{
		BaseURLTemplate:   cfg.CRM.BaseURLTemplate,
		Timeout:           cfg.CRM.HTTPTimeout,
		RequestsPerSecond: cfg.CRM.RequestsPerSecond,
		Burst:             cfg.CRM.Burst,
		Logger:            logr.Named("crm"),
	})

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.OwnerCacheTTL, logr, redisClient != nil)
	resolver := service.NewReferenceResolver(referenceRepo, metrics)
	queryEngine := service.NewLeadQueryEngine(leadRepo, resolver, metrics, location)
	stats := service.NewStatsAggregator(leadRepo, service.ZeroCostModel{})
	reportSvc := service.NewLeadReportService(queryEngine, stats, referenceRepo, cacheSvc, validate, logr, service.ReportServiceConfig{
		DefaultPageSize: cfg.Reports.DefaultPageSize,
		MaxPageSize:     cfg.Reports.MaxPageSize,
		OwnerCacheTTL:   cfg.Reports.OwnerCacheTTL,
	})
	exportSvc := service.NewExportService(reportSvc, export.NewCSVExporter(), export.NewPDFExporter(), location)

	syncLog := service.NewSyncStatusLog(syncLogRepo, metrics, logr)
	syncLogQueue := jobs.NewQueue("sync-log", syncLog.HandleRetry, jobs.QueueConfig{
		Workers:     1,
		MaxRetries:  cfg.Requalify.LogRetries,
		RetryDelay:  cfg.Requalify.LogRetryDelay,
		OnExhausted: syncLog.HandleExhausted,
		Logger:      logr,
	})
	syncLogQueue.Start(context.Background())
	defer syncLogQueue.Stop()
	syncLog.UseRetryQueue(syncLogQueue)

	workflow := service.NewRequalifyWorkflow(leadRepo, integrationRepo, crmClient, logr.Named("requalify"))
	requalifySvc := service.NewRequalifyService(workflow, syncLog, lockRepo, metrics, validate, logr, service.RequalifyConfig{
		DefaultBatchSize: cfg.Requalify.DefaultBatchSize,
		MaxBatchSize:     cfg.Requalify.MaxBatchSize,
		Timeout:          cfg.Requalify.Timeout,
		LockTTL:          cfg.Requalify.LockTTL,
		Location:         location,
	})
	tokens := service.NewTokenValidator(cfg.JWT.Secret, cfg.JWT.Issuer)

	dependencies := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		dependencies["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	metricsHandler := handler.NewMetricsHandler(metrics, dependencies, logr)
	leadReportHandler := handler.NewLeadReportHandler(reportSvc, exportSvc)
	requalifyHandler := handler.NewRequalifyHandler(requalifySvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokens))
	{
		api.GET("/leads/report", leadReportHandler.Report)
		api.GET("/leads/report/export", leadReportHandler.Export)
		api.POST("/crm/requalify", requalifyHandler.Requalify)
		api.GET("/crm/requalify/status", requalifyHandler.Status)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Requalify.Timeout + 30*time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
