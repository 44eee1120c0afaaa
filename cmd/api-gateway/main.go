package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/julian-m-willis/spm-proj-sub000/api/swagger"
	"github.com/julian-m-willis/spm-proj-sub000/internal/handler"
	"github.com/julian-m-willis/spm-proj-sub000/internal/middleware"
	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
	"github.com/julian-m-willis/spm-proj-sub000/internal/repository"
	"github.com/julian-m-willis/spm-proj-sub000/internal/service"
	"github.com/julian-m-willis/spm-proj-sub000/pkg/cache"
	"github.com/julian-m-willis/spm-proj-sub000/pkg/config"
	"github.com/julian-m-willis/spm-proj-sub000/pkg/database"
	"github.com/julian-m-willis/spm-proj-sub000/pkg/logger"
	corsmiddleware "github.com/julian-m-willis/spm-proj-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/julian-m-willis/spm-proj-sub000/pkg/middleware/requestid"
	"github.com/julian-m-willis/spm-proj-sub000/pkg/storage"
)

// @title WFH Arrangement API
// @version 1.0.0
// @description Flexible work arrangement requests and schedule views
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
		logr.Sugar().Warnw("redis unavailable, schedule caching disabled", "error", err)
		redisClient = nil
	}

	staffRepo := repository.NewStaffRepository(db)
	arrangementRepo := repository.NewArrangementRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	txManager := repository.NewTxManager(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Schedules.CacheTTL, logr, cfg.Schedules.CacheEnabled)
	}

	authSvc := service.NewAuthService(staffRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	staffSvc := service.NewStaffService(staffRepo, logr)
	notificationSvc := service.NewNotificationService(
		notificationRepo, logr,
		cfg.Notifications.Workers, cfg.Notifications.BufferSize,
		cfg.Notifications.MaxRetries, cfg.Notifications.RetryDelay,
		cfg.Notifications.Enabled,
	)
	defer notificationSvc.Close()

	scheduleSvc := service.NewScheduleService(staffRepo, scheduleRepo, arrangementRepo, cacheSvc, logr, cfg.Schedules.CacheTTL)
	arrangementSvc := service.NewArrangementService(arrangementRepo, scheduleRepo, txManager, notificationSvc, cacheSvc, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	staffHandler := handler.NewStaffHandler(staffSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	arrangementHandler := handler.NewArrangementHandler(arrangementSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare exports directory", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Exports.DownloadTTL)
		exportSvc := service.NewExportService(scheduleSvc, exportStore, signer, logr)
		exportHandler = handler.NewExportHandler(exportSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/auth/me", authHandler.Me)

	authed.POST("/arrangements", arrangementHandler.Create)
	authed.POST("/arrangements/batch", arrangementHandler.CreateBatch)
	authed.GET("/arrangements", arrangementHandler.List)
	authed.GET("/arrangements/pending",
		middleware.RequireRoles(models.RoleManager, models.RoleDirector, models.RoleHR),
		arrangementHandler.ListPending)
	authed.POST("/arrangements/:id/approve",
		middleware.RequireRoles(models.RoleManager, models.RoleDirector, models.RoleHR),
		arrangementHandler.Approve)
	authed.POST("/arrangements/:id/reject",
		middleware.RequireRoles(models.RoleManager, models.RoleDirector, models.RoleHR),
		arrangementHandler.Reject)
	authed.POST("/arrangements/:id/revoke",
		middleware.RequireRoles(models.RoleManager, models.RoleDirector, models.RoleHR),
		arrangementHandler.Revoke)
	authed.POST("/arrangements/:id/withdraw", arrangementHandler.Withdraw)

	authed.GET("/schedules/personal", scheduleHandler.Personal)
	authed.GET("/schedules/team", scheduleHandler.Team)
	authed.GET("/schedules/department",
		middleware.RequireRoles(models.RoleManager, models.RoleDirector, models.RoleHR),
		scheduleHandler.Department)
	authed.GET("/schedules/organization",
		middleware.RequireRoles(models.RoleDirector, models.RoleHR),
		scheduleHandler.Organization)

	if exportHandler != nil {
		authed.GET("/schedules/department/export",
			middleware.RequireRoles(models.RoleManager, models.RoleDirector, models.RoleHR),
			exportHandler.Department)
		authed.POST("/schedules/department/export/store",
			middleware.RequireRoles(models.RoleManager, models.RoleDirector, models.RoleHR),
			exportHandler.Store)
		api.GET("/exports/download", exportHandler.Download)
	}

	authed.GET("/staffs", staffHandler.List)
	authed.GET("/staffs/:id", staffHandler.Get)

	authed.GET("/notifications", notificationHandler.List)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
