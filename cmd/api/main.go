package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/noah-isme/classhub-api/api/swagger"
	"github.com/noah-isme/classhub-api/internal/handler"
	"github.com/noah-isme/classhub-api/internal/middleware"
	"github.com/noah-isme/classhub-api/internal/repository"
	"github.com/noah-isme/classhub-api/internal/service"
	"github.com/noah-isme/classhub-api/pkg/cache"
	"github.com/noah-isme/classhub-api/pkg/config"
	"github.com/noah-isme/classhub-api/pkg/database"
	"github.com/noah-isme/classhub-api/pkg/export"
	"github.com/noah-isme/classhub-api/pkg/jobs"
	"github.com/noah-isme/classhub-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/classhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classhub-api/pkg/middleware/requestid"
	"github.com/noah-isme/classhub-api/pkg/storage"
)

// @title ClassHub API
// @version 1.0.0
// @description Classroom management API for announcements, assignments, discussions and quizzes
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)
	}

	userRepo := repository.NewUserRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "classhub-api",
	})
	announcementService := service.NewAnnouncementService(announcementRepo, nil, logr)
	assignmentService := service.NewAssignmentService(assignmentRepo, nil, logr)
	discussionService := service.NewDiscussionService(discussionRepo, nil, logr)
	quizService := service.NewQuizService(quizRepo, nil, logr)

	dashboardService := service.NewDashboardService(service.DashboardServiceParams{
		Announcements: announcementRepo,
		Assignments:   assignmentRepo,
		Discussions:   discussionRepo,
		Quizzes:       quizRepo,
		Submissions:   assignmentRepo,
		QuizStats:     quizRepo,
		Cache:         cacheService,
		Metrics:       metricsService,
		Logger:        logr,
		Config:        service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})
	announcementService.SetDashboardInvalidator(dashboardService)
	assignmentService.SetDashboardInvalidator(dashboardService)
	discussionService.SetDashboardInvalidator(dashboardService)
	quizService.SetDashboardInvalidator(dashboardService)

	var exportJobService *service.ExportJobService
	if cfg.Exports.Enabled {
		exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("export storage init failed", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportService := service.NewExportService(
			assignmentRepo,
			quizRepo,
			exportStorage,
			signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
			logr,
			export.NewCSVExporter(),
			export.NewPDFExporter(),
		)

		worker := service.NewExportWorker(exportJobRepo, exportService, cfg.Exports.WorkerRetries, logr)
		queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		exportJobService = service.NewExportJobService(exportJobRepo, quizRepo, queue, exportService, logr, service.ExportJobServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.WorkerRetries,
		})
		exportJobService.RecoverPendingJobs(ctx)
		exportJobService.StartCleanup(ctx)
	}

	if cfg.Seed.Enabled {
		seeder := service.NewSeedService(userRepo, announcementRepo, assignmentRepo, discussionRepo, quizRepo, logr, service.SeedConfig{
			TeacherEmail: cfg.Seed.TeacherEmail,
			StudentEmail: cfg.Seed.StudentEmail,
			DemoPassword: cfg.Seed.DemoPassword,
		})
		if err := seeder.Run(ctx); err != nil {
			logr.Sugar().Warnw("demo seed failed", "error", err)
		}
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	exportHandler := handler.NewExportHandler(nil)
	if exportJobService != nil {
		exportHandler = handler.NewExportHandler(exportJobService)
	}

	registry := &handler.Registry{
		Auth:          handler.NewAuthHandler(authService),
		Announcements: handler.NewAnnouncementHandler(announcementService),
		Assignments:   handler.NewAssignmentHandler(assignmentService),
		Discussions:   handler.NewDiscussionHandler(discussionService),
		Quizzes:       handler.NewQuizHandler(quizService),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		Exports:       exportHandler,
		Metrics:       handler.NewMetricsHandler(metricsService, db),
		AuthService:   authService,
		EnableDocs:    cfg.Env != config.EnvProduction,
	}
	registry.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
