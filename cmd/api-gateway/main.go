package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hsms-project/hsms-api/api/swagger"
	"github.com/hsms-project/hsms-api/internal/handler"
	"github.com/hsms-project/hsms-api/internal/middleware"
	"github.com/hsms-project/hsms-api/internal/repository"
	"github.com/hsms-project/hsms-api/internal/service"
	"github.com/hsms-project/hsms-api/pkg/cache"
	"github.com/hsms-project/hsms-api/pkg/config"
	"github.com/hsms-project/hsms-api/pkg/database"
	"github.com/hsms-project/hsms-api/pkg/logger"
	corsmiddleware "github.com/hsms-project/hsms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hsms-project/hsms-api/pkg/middleware/requestid"
)

// @title HSMS API
// @version 0.1.0
// @description High School Management System API
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Announcements.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, logr),
		metricsSvc,
		cfg.Announcements.CacheTTL,
		logr,
		cfg.Announcements.CacheEnabled,
	)

	validate := validator.New()
	announcementSvc := service.NewAnnouncementService(
		repository.NewAnnouncementRepository(db, metricsSvc),
		repository.NewTeacherRepository(db, metricsSvc),
		cacheSvc,
		validate,
		logr,
	)

	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
	announcementHandler.RegisterRoutes(api.Group("/announcements"))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
