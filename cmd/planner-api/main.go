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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusdesk/course-planner-api/api/swagger"
	"github.com/campusdesk/course-planner-api/internal/handler"
	"github.com/campusdesk/course-planner-api/internal/middleware"
	"github.com/campusdesk/course-planner-api/internal/repository"
	"github.com/campusdesk/course-planner-api/internal/service"
	"github.com/campusdesk/course-planner-api/pkg/cache"
	"github.com/campusdesk/course-planner-api/pkg/config"
	"github.com/campusdesk/course-planner-api/pkg/database"
	"github.com/campusdesk/course-planner-api/pkg/logger"
	corsmiddleware "github.com/campusdesk/course-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusdesk/course-planner-api/pkg/middleware/requestid"
)

// @title Course Planner API
// @version 0.1.0
// @description Schedule plan generation for degree requirements
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, redisClient != nil)

	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	termRepo := repository.NewTermRepository(db)
	majorRepo := repository.NewMajorRepository(db)

	catalogSvc := service.NewCatalogService(courseRepo, sectionRepo, termRepo, majorRepo, cacheSvc, metricsSvc, cfg.Catalog.CacheTTL, logr)
	planSvc := service.NewPlanService(catalogSvc, metricsSvc, nil, logr, service.PlanConfig{
		BeamSize:    cfg.Planner.BeamSize,
		MaxNodes:    cfg.Planner.MaxNodes,
		ProposalTTL: cfg.Planner.ProposalTTL,
	})

	planHandler := handler.NewPlanHandler(planSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/plans", planHandler.Generate)
		api.GET("/plans/:proposalId", planHandler.Get)
		api.PUT("/plans/:proposalId/locks", planHandler.UpdateLocks)

		api.GET("/terms", catalogHandler.ListTerms)
		api.GET("/majors/:id", catalogHandler.GetMajor)
		api.GET("/courses", catalogHandler.ListCourses)
		api.GET("/courses/:id/sections", catalogHandler.ListSections)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
}
