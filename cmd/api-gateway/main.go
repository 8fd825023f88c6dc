package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/akademia-id/timetable-api/api/swagger"
	"github.com/akademia-id/timetable-api/internal/handler"
	"github.com/akademia-id/timetable-api/internal/middleware"
	"github.com/akademia-id/timetable-api/internal/repository"
	"github.com/akademia-id/timetable-api/internal/service"
	"github.com/akademia-id/timetable-api/pkg/cache"
	"github.com/akademia-id/timetable-api/pkg/config"
	"github.com/akademia-id/timetable-api/pkg/database"
	"github.com/akademia-id/timetable-api/pkg/logger"
	corsmiddleware "github.com/akademia-id/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/akademia-id/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Timetable scheduling and conflict detection service
// @BasePath /api/v1
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

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Timetable.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.CacheTTL, logr, true)
	}

	entryRepo := repository.NewEntryRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)

	validate := validator.New()

	periodSvc := service.NewPeriodService(periodRepo, validate, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, entryRepo, cacheSvc, validate, logr)
	placementSvc := service.NewPlacementService(service.PlacementServiceParams{
		Entries:      entryRepo,
		Timetables:   timetableRepo,
		Periods:      periodRepo,
		Subjects:     subjectRepo,
		Cache:        cacheSvc,
		Metrics:      metricsSvc,
		Validator:    validate,
		Logger:       logr,
		MaxBulkItems: cfg.Timetable.MaxBulkItems,
	})
	conflictSvc := service.NewConflictService(entryRepo, timetableRepo, logr)
	gridSvc := service.NewGridService(service.GridServiceParams{
		Entries:    entryRepo,
		Timetables: timetableRepo,
		Periods:    periodRepo,
		Classes:    classRepo,
		Subjects:   subjectRepo,
		Teachers:   teacherRepo,
		Cache:      cacheSvc,
		Logger:     logr,
	})
	utilizationSvc := service.NewUtilizationService(service.UtilizationServiceParams{
		Entries:    entryRepo,
		Timetables: timetableRepo,
		Periods:    periodRepo,
		Classes:    classRepo,
		Teachers:   teacherRepo,
		Cache:      cacheSvc,
		Logger:     logr,
	})
	exportSvc := service.NewExportService(gridSvc, timetableSvc, logr)

	periodHandler := handler.NewPeriodHandler(periodSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	entryHandler := handler.NewEntryHandler(placementSvc, gridSvc)
	scheduleHandler := handler.NewScheduleHandler(gridSvc)
	conflictHandler := handler.NewConflictHandler(conflictSvc)
	utilizationHandler := handler.NewUtilizationHandler(utilizationSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
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
	{
		periods := api.Group("/periods")
		{
			periods.GET("", periodHandler.List)
			periods.POST("", periodHandler.Create)
			periods.GET("/:id", periodHandler.Get)
			periods.PUT("/:id", periodHandler.Update)
		}

		timetables := api.Group("/timetables")
		{
			timetables.GET("", timetableHandler.List)
			timetables.POST("", timetableHandler.Create)
			timetables.GET("/:id", timetableHandler.Get)
			timetables.PUT("/:id", timetableHandler.Update)
			timetables.DELETE("/:id", timetableHandler.Delete)
			timetables.POST("/:id/copy", timetableHandler.Copy)

			timetables.GET("/:id/entries", entryHandler.List)
			timetables.POST("/:id/entries", entryHandler.Create)
			timetables.POST("/:id/entries/bulk", entryHandler.Bulk)
			timetables.PUT("/:id/entries/:entryId", entryHandler.Update)
			timetables.DELETE("/:id/entries/:entryId", entryHandler.Delete)

			timetables.GET("/:id/grid", scheduleHandler.Grid)
			timetables.GET("/:id/classes/:classId/schedule", scheduleHandler.ClassSchedule)
			timetables.GET("/:id/teachers/:teacherId/schedule", scheduleHandler.TeacherSchedule)

			timetables.GET("/:id/conflicts", conflictHandler.Scan)
			timetables.GET("/:id/utilization", utilizationHandler.Analyze)

			if cfg.Export.Enabled {
				timetables.GET("/:id/export", exportHandler.Export)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
