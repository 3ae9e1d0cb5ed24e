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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/stay-booking-api/api/swagger"
	"github.com/noah-isme/stay-booking-api/internal/availability"
	"github.com/noah-isme/stay-booking-api/internal/handler"
	"github.com/noah-isme/stay-booking-api/internal/middleware"
	"github.com/noah-isme/stay-booking-api/internal/repository"
	"github.com/noah-isme/stay-booking-api/internal/service"
	"github.com/noah-isme/stay-booking-api/pkg/cache"
	"github.com/noah-isme/stay-booking-api/pkg/config"
	"github.com/noah-isme/stay-booking-api/pkg/database"
	"github.com/noah-isme/stay-booking-api/pkg/jobs"
	"github.com/noah-isme/stay-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/stay-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/stay-booking-api/pkg/middleware/requestid"
)

// @title Stay Booking API
// @version 0.1.0
// @description Availability calendar and booking handoff for the accommodation platform
// @BasePath /
// @schemes http
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(ctx, 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		logr.Fatal("failed to migrate database", zap.Error(err))
	}
	cancelMigrate()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr, redisClient != nil)

	platform := repository.NewPlatformClient(cfg.Upstream, nil, logr)
	bookingRepo := repository.NewBookingRepository(db)

	availabilitySvc := service.NewAvailabilityService(platform, cacheSvc, metricsSvc, service.AvailabilityConfig{
		FetchTimeout:  cfg.Availability.FetchTimeout,
		CacheTTL:      cfg.Availability.CacheTTL,
		MaxWindowDays: cfg.Availability.MaxWindowDays,
		Policy:        availability.PolicyFromStrings(cfg.Availability.OccupyingStatuses, cfg.Availability.StatusPriority),
	}, logr)
	selectionSvc := service.NewSelectionService(availabilitySvc, platform, metricsSvc, validate, logr)
	exportSvc := service.NewExportService(availabilitySvc, platform, logr, nil, nil)

	bookingWorker := service.NewBookingWorker(bookingRepo, platform, availabilitySvc, metricsSvc, logr)
	bookingQueue := jobs.NewQueue(service.BookingJobType, bookingWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Bookings.WorkerConcurrency,
		MaxRetries: cfg.Bookings.WorkerRetries,
		RetryDelay: cfg.Bookings.RetryDelay,
		Timeout:    cfg.Upstream.Timeout,
		DeadLetter: bookingWorker.DeadLetter,
		Logger:     logr,
	})
	bookingQueue.Start(ctx)
	bookingSvc := service.NewBookingService(bookingRepo, availabilitySvc, platform, bookingQueue, metricsSvc, validate, logr)

	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Leeway: cfg.JWT.Leeway,
	})

	metricsHandler := handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient))
	calendarHandler := handler.NewCalendarHandler(availabilitySvc)
	selectionHandler := handler.NewSelectionHandler(selectionSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, logr)
		limiter.StartCleanup(5*time.Minute, ctx.Done())
		api.Use(limiter.Middleware())
	}
	api.Use(middleware.WithResponseMeta())

	units := api.Group("/units/:id")
	units.GET("/calendar", calendarHandler.Get)
	units.POST("/calendar/refresh", calendarHandler.Refresh)
	units.POST("/selection/check-in", selectionHandler.CheckIn)
	units.POST("/selection/check-out", selectionHandler.CheckOut)
	units.POST("/quote", selectionHandler.Quote)
	units.GET("/occupancy/export", middleware.JWT(tokenSvc), middleware.RequireRoles(cfg.JWT.HostRole), exportHandler.Occupancy)

	bookings := api.Group("/bookings")
	bookings.Use(middleware.JWT(tokenSvc))
	bookings.POST("", bookingHandler.Create)
	bookings.GET("/:id", bookingHandler.Get)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	bookingQueue.Stop()
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
