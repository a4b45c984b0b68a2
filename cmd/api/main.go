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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/dev-lms/lms-api/api/swagger"
	"github.com/dev-lms/lms-api/internal/handler"
	"github.com/dev-lms/lms-api/internal/middleware"
	"github.com/dev-lms/lms-api/internal/models"
	"github.com/dev-lms/lms-api/internal/repository"
	"github.com/dev-lms/lms-api/internal/service"
	"github.com/dev-lms/lms-api/pkg/cache"
	"github.com/dev-lms/lms-api/pkg/config"
	"github.com/dev-lms/lms-api/pkg/database"
	"github.com/dev-lms/lms-api/pkg/export"
	"github.com/dev-lms/lms-api/pkg/logger"
	corsmiddleware "github.com/dev-lms/lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/dev-lms/lms-api/pkg/middleware/requestid"
	"github.com/dev-lms/lms-api/pkg/storage"
)

// @title LMS API
// @version 0.1.0
// @description Learning management backend: enrollment requests, studying progress and grading
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
		logr.Sugar().Warnw("redis unavailable, course cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	statusRepo := repository.NewStatusRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	workerRepo := repository.NewWorkerRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	solutionRepo := repository.NewSolutionRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Courses.CacheTTL, logr, cfg.Courses.CacheEnabled)
	}

	authSvc := service.NewAuthService(studentRepo, workerRepo, statusRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	requestSvc := service.NewRequestService(requestRepo, statusRepo, studentRepo, courseRepo, groupRepo, workerRepo, nil, logr)
	progressSvc := service.NewProgressService(progressRepo, requestRepo, statusRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, cfg.Courses.CacheTTL, nil, logr)
	groupSvc := service.NewGroupService(groupRepo, courseRepo, nil, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, groupRepo, nil, logr)
	solutionSvc := service.NewSolutionService(solutionRepo, statusRepo, assignmentRepo, studentRepo, workerRepo, nil, logr)
	materialSvc := service.NewMaterialService(materialRepo, courseRepo, nil, logr)
	documentSvc := service.NewDocumentService(documentRepo, store, signer, service.DocumentConfig{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	}, logr)
	exportSvc := service.NewExportService(progressRepo, groupRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	requestHandler := handler.NewRequestHandler(requestSvc)
	progressHandler := handler.NewProgressHandler(progressSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	groupHandler := handler.NewGroupHandler(groupSvc, requestSvc, progressSvc, exportSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	solutionHandler := handler.NewSolutionHandler(solutionSvc)
	materialHandler := handler.NewMaterialHandler(materialSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

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

	api.POST("/auth/student/register", authHandler.RegisterStudent)
	api.POST("/auth/student/login", authHandler.LoginStudent)
	api.POST("/auth/worker/login", authHandler.LoginWorker)

	api.GET("/courses", courseHandler.List)
	api.GET("/courses/categories", courseHandler.ListCategories)
	api.GET("/courses/:id", courseHandler.Get)
	api.GET("/courses/:id/groups", groupHandler.ListByCourse)
	api.GET("/courses/:id/assignments", assignmentHandler.ListByCourse)
	api.GET("/courses/:id/materials", materialHandler.ListByCourse)

	authed := api.Group("", middleware.JWT(authSvc))

	authed.GET("/documents/:id/download", documentHandler.Download)
	authed.GET("/documents/:id/link", documentHandler.SignedLink)
	authed.GET("/courses/:id/documents", documentHandler.ListByCourse)
	authed.GET("/materials/:id/documents", documentHandler.ListByMaterial)

	student := authed.Group("", middleware.RequireKinds(models.KindStudent))
	student.POST("/requests", requestHandler.Create)
	student.GET("/requests/my", requestHandler.ListMine)
	student.GET("/requests/my-courses", requestHandler.MyCourses)
	student.GET("/progress/:courseId", progressHandler.GetMine)
	student.POST("/solutions", solutionHandler.Submit)
	student.GET("/solutions/my", solutionHandler.ListMine)
	student.POST("/documents", documentHandler.Upload)
	student.GET("/documents/my", documentHandler.ListMine)

	worker := authed.Group("", middleware.RequireKinds(models.KindWorker))
	worker.GET("/requests", requestHandler.List)
	worker.GET("/requests/statuses", requestHandler.ListStatuses)
	worker.PUT("/requests/:id/status", requestHandler.Decide)
	worker.PUT("/requests/:id/group", requestHandler.ClearGroup)
	worker.PUT("/requests/:id/comment", requestHandler.UpdateComment)
	worker.GET("/groups", groupHandler.List)
	worker.GET("/groups/:id/students", groupHandler.Students)
	worker.GET("/groups/:id/progress", groupHandler.Progress)
	worker.GET("/groups/:id/progress/export", groupHandler.ExportProgress)
	worker.GET("/groups/:id/assignments", assignmentHandler.ListByGroup)
	worker.POST("/progress", progressHandler.UpdatePercent)
	worker.PUT("/progress/requests/:requestId/finals", progressHandler.SetFinals)
	worker.PUT("/solutions/:id/grade", solutionHandler.Grade)
	worker.GET("/solutions/assignment/:assignmentId", solutionHandler.ListByAssignment)
	worker.POST("/courses", courseHandler.Create)
	worker.PUT("/courses/:id", courseHandler.Update)
	worker.POST("/groups", groupHandler.Create)
	worker.PUT("/groups/:id", groupHandler.Update)
	worker.POST("/assignments", assignmentHandler.Create)
	worker.PUT("/assignments/:id", assignmentHandler.Update)
	worker.POST("/materials", materialHandler.Create)
	worker.PUT("/materials/:id", materialHandler.Update)

	admin := worker.Group("", middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/auth/worker/register", authHandler.RegisterWorker)
	admin.GET("/auth/worker/roles", authHandler.ListWorkerRoles)
	admin.DELETE("/requests/:id", requestHandler.Delete)
	admin.PUT("/progress/requests/:requestId/status", progressHandler.SetStatus)
	admin.DELETE("/courses/:id", courseHandler.Delete)
	admin.DELETE("/groups/:id", groupHandler.Delete)
	admin.DELETE("/assignments/:id", assignmentHandler.Delete)
	admin.DELETE("/materials/:id", materialHandler.Delete)
	admin.DELETE("/documents/:id", documentHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
