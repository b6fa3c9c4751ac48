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

	_ "github.com/noah-isme/lsa-api/api/swagger"
	"github.com/noah-isme/lsa-api/internal/handler"
	"github.com/noah-isme/lsa-api/internal/middleware"
	"github.com/noah-isme/lsa-api/internal/models"
	"github.com/noah-isme/lsa-api/internal/repository"
	"github.com/noah-isme/lsa-api/internal/service"
	"github.com/noah-isme/lsa-api/pkg/cache"
	"github.com/noah-isme/lsa-api/pkg/config"
	"github.com/noah-isme/lsa-api/pkg/database"
	"github.com/noah-isme/lsa-api/pkg/jobs"
	"github.com/noah-isme/lsa-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lsa-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lsa-api/pkg/middleware/requestid"
)

// @title Language School Administration API
// @version 1.0.0
// @description Scheduling core: session generation, room conflicts, teaching assignments, substitutions and timesheets.
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, calendar cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	classroomRepo := repository.NewClassroomRepository(db)
	weeklyRepo := repository.NewWeeklyScheduleRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	assignmentRepo := repository.NewTeachingAssignmentRepository(db)
	substitutionRepo := repository.NewSubstitutionRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	jobRepo := repository.NewGenerationJobRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metricsSvc := service.NewMetricsService()
	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Calendar.CacheTTL, logr, cfg.Calendar.CacheEnabled)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Calendar.CacheTTL, logr, false)
	}

	calendarSvc := service.NewCalendarService(sessionRepo, cacheSvc, cfg.Calendar.CacheTTL, logr)
	holidaySvc := service.NewHolidayService(holidayRepo, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, classroomRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, roomRepo, calendarSvc, validate, logr)
	classroomSvc := service.NewClassroomService(classroomRepo, weeklyRepo, validate, logr)
	timesheetSvc := service.NewTimesheetService(timesheetRepo, logr)
	substitutionSvc := service.NewSubstitutionService(substitutionRepo, timesheetRepo, sessionRepo, assignmentRepo, db, validate, logr)

	generatorSvc := service.NewGeneratorService(
		classroomRepo, weeklyRepo, sessionRepo, holidaySvc, jobRepo, nil, db,
		calendarSvc, metricsSvc, validate, logr,
		service.GeneratorConfig{MaxWalkDays: cfg.Generator.MaxWalkDays},
	)
	queue := jobs.NewQueue("session-generation", generatorSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Generator.Workers,
		BufferSize: cfg.Generator.BufferSize,
		MaxRetries: cfg.Generator.MaxRetries,
		RetryDelay: cfg.Generator.RetryDelay,
		Logger:     logr,
	})
	generatorSvc.SetQueue(queue)

	sessionHandler := handler.NewSessionHandler(generatorSvc, sessionSvc)
	holidayHandler := handler.NewHolidayHandler(holidaySvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	substitutionHandler := handler.NewSubstitutionHandler(substitutionSvc)
	timesheetHandler := handler.NewTimesheetHandler(timesheetSvc)
	classroomHandler := handler.NewClassroomHandler(classroomSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
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
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		classes := api.Group("/classes")
		{
			classes.GET("", classroomHandler.List)
			classes.GET("/:id", classroomHandler.Get)
			classes.GET("/:id/weekly-schedules", classroomHandler.WeeklySchedules)
			classes.POST("/:id/weekly-schedules", classroomHandler.AddWeeklySchedule)
			classes.DELETE("/:id/weekly-schedules/:scheduleId", classroomHandler.RemoveWeeklySchedule)
			classes.GET("/:id/sessions", sessionHandler.ListByClass)
			classes.POST("/:id/sessions/generate",
				middleware.Audit(auditRepo, models.AuditActionSessionGenerate, "sessions"),
				sessionHandler.Generate)
			classes.GET("/:id/assignments", assignmentHandler.ListByClass)
			classes.GET("/:id/assignments/resolve", assignmentHandler.Resolve)
			classes.POST("/:id/assignments",
				middleware.Audit(auditRepo, models.AuditActionAssignmentWrite, "assignments"),
				assignmentHandler.Create)
			classes.PUT("/:id/assignments/:assignmentId",
				middleware.Audit(auditRepo, models.AuditActionAssignmentWrite, "assignments"),
				assignmentHandler.Update)
			classes.DELETE("/:id/assignments/:assignmentId",
				middleware.Audit(auditRepo, models.AuditActionAssignmentWrite, "assignments"),
				assignmentHandler.Delete)
		}

		sessions := api.Group("/sessions")
		{
			sessions.GET("", sessionHandler.List)
			sessions.PUT("/:id",
				middleware.Audit(auditRepo, models.AuditActionSessionUpdate, "sessions"),
				sessionHandler.Update)
			sessions.PUT("/:id/room",
				middleware.Audit(auditRepo, models.AuditActionRoomAssign, "sessions"),
				sessionHandler.AssignRoom)
			sessions.POST("/bulk-room",
				middleware.Audit(auditRepo, models.AuditActionRoomAssign, "sessions"),
				sessionHandler.BulkAssignRoom)
			sessions.GET("/:id/timesheet", timesheetHandler.FindBySession)
			sessions.POST("/:id/substitution",
				middleware.Audit(auditRepo, models.AuditActionSubstitutionWrite, "substitutions"),
				substitutionHandler.Create)
			sessions.PUT("/:id/substitution",
				middleware.Audit(auditRepo, models.AuditActionSubstitutionWrite, "substitutions"),
				substitutionHandler.Update)
			sessions.DELETE("/:id/substitution",
				middleware.Audit(auditRepo, models.AuditActionSubstitutionWrite, "substitutions"),
				substitutionHandler.Destroy)
		}

		api.GET("/generation-jobs/:id", sessionHandler.JobStatus)
		api.GET("/calendar", calendarHandler.Month)
		api.GET("/timesheets", timesheetHandler.List)

		holidays := api.Group("/holidays")
		{
			holidays.GET("", holidayHandler.List)
			holidays.GET("/check", holidayHandler.Check)
			holidays.POST("",
				middleware.Audit(auditRepo, models.AuditActionHolidayWrite, "holidays"),
				holidayHandler.Create)
			holidays.PUT("/:id",
				middleware.Audit(auditRepo, models.AuditActionHolidayWrite, "holidays"),
				holidayHandler.Update)
			holidays.DELETE("/:id",
				middleware.Audit(auditRepo, models.AuditActionHolidayWrite, "holidays"),
				holidayHandler.Delete)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	generatorSvc.RecoverPendingJobs(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	queue.Stop()
}
