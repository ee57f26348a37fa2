package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Hillway-UK/union-clock-sub000/api/swagger"
	"github.com/Hillway-UK/union-clock-sub000/internal/handler"
	"github.com/Hillway-UK/union-clock-sub000/internal/middleware"
	"github.com/Hillway-UK/union-clock-sub000/internal/repository"
	"github.com/Hillway-UK/union-clock-sub000/internal/service"
	"github.com/Hillway-UK/union-clock-sub000/pkg/cache"
	"github.com/Hillway-UK/union-clock-sub000/pkg/config"
	"github.com/Hillway-UK/union-clock-sub000/pkg/database"
	"github.com/Hillway-UK/union-clock-sub000/pkg/jobs"
	"github.com/Hillway-UK/union-clock-sub000/pkg/logger"
	corsmiddleware "github.com/Hillway-UK/union-clock-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/Hillway-UK/union-clock-sub000/pkg/middleware/requestid"
)

// @title Union Clock Geofence API
// @version 1.0.0
// @description Geofence-based automatic clock-out engine
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := jobs.NewScheduler(logr)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	metricsSvc := service.NewMetricsService(scheduler.Pending)

	shiftRepo := repository.NewShiftRepository(db)
	eventRepo := repository.NewGeofenceEventRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	referenceRepo := repository.NewCachedReferenceRepository(
		repository.NewReferenceRepository(db), redisClient, cfg.Tracking.ReferenceCacheTTL, logr)

	tracking := cfg.Tracking
	finalizeSvc := service.NewFinalizeService(shiftRepo, eventRepo, auditRepo, notificationRepo, metricsSvc, logr)
	resolverSvc := service.NewResolverService(shiftRepo, eventRepo, finalizeSvc, scheduler,
		tracking.GracePeriod, tracking.RaceBuffer, tracking.OvertimeCap, tracking.ReEntryFixCount, metricsSvc, logr)
	trackingSvc := service.NewTrackingService(shiftRepo, eventRepo, referenceRepo, resolverSvc,
		validator.New(), tracking.ClockOutWindow, metricsSvc, logr)
	sweepSvc := service.NewSweepService(shiftRepo, eventRepo, resolverSvc, finalizeSvc,
		tracking.GracePeriod, tracking.RaceBuffer, tracking.OvertimeCap, metricsSvc, logr)
	shiftQuerySvc := service.NewShiftQueryService(shiftRepo, eventRepo)

	locationHandler := handler.NewLocationHandler(trackingSvc)
	sweepHandler := handler.NewSweepHandler(sweepSvc)
	shiftHandler := handler.NewShiftHandler(shiftQuerySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Expose)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/locations", locationHandler.Report)
	api.POST("/sweeps/auto-clockout", sweepHandler.Trigger)
	api.GET("/shifts/:id", shiftHandler.Get)
	api.GET("/shifts/:id/events", shiftHandler.Events)

	if tracking.SweepEnabled {
		go runSweeper(ctx, sweepSvc, tracking.SweepInterval, logr)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}

func runSweeper(ctx context.Context, sweep *service.SweepService, interval time.Duration, logr *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sweep.Run(ctx); err != nil {
				logr.Sugar().Errorw("sweep cycle failed", "error", err)
			}
		}
	}
}
