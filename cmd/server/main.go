package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shreyaskr77/Solvathon/internal/api"
	"github.com/shreyaskr77/Solvathon/internal/config"
	"github.com/shreyaskr77/Solvathon/internal/logger"
	"github.com/shreyaskr77/Solvathon/internal/mailer"
	"github.com/shreyaskr77/Solvathon/internal/notify"
	"github.com/shreyaskr77/Solvathon/internal/repository/mongo"
	"github.com/shreyaskr77/Solvathon/internal/service"
	"github.com/shreyaskr77/Solvathon/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title Academic File Sharing Portal API
// @version 1.0
// @description Role-based portal for sharing course material with an approval workflow.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	// --- Logging ---
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize logger: %v", err)
	}
	defer zlog.Sync()
	zlog.Info("starting academic portal server")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		zlog.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		zlog.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			zlog.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	zlog.Info("database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureFileIndexes(ctx, appDB.Collection("files"))
		mongo.EnsureDownloadLogIndexes(ctx, appDB.Collection("download_logs"))
		mongo.EnsureSubjectIndexes(ctx, appDB.Collection("subjects"))
		mongo.EnsureNotificationIndexes(ctx, appDB.Collection("notifications"))
		mongo.EnsureNoticeIndexes(ctx, appDB.Collection("notices"))
		zlog.Info("index creation process completed")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	fileRepo := mongo.NewMongoFileRepository(appDB)
	downloadLogRepo := mongo.NewMongoDownloadLogRepository(appDB)
	subjectRepo := mongo.NewMongoSubjectRepository(appDB)
	notificationRepo := mongo.NewMongoNotificationRepository(appDB)
	noticeRepo := mongo.NewMongoNoticeRepository(appDB)
	eventRepo := mongo.NewMongoEventRepository(appDB)

	// --- Outbound side effects ---
	mail, err := mailer.New(cfg.SMTP, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize mailer", zap.Error(err))
	}
	dispatcher := notify.NewDispatcher(userRepo, notificationRepo, mail,
		cfg.Portal.FrontendURL, cfg.Portal.EventQueueSize, zlog)
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	go dispatcher.Run(dispatcherCtx)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	fileService := service.NewFileService(fileRepo, userRepo, subjectRepo, fileStorage, dispatcher, zlog)
	subjectService := service.NewSubjectService(subjectRepo)
	userService := service.NewUserService(userRepo, fileRepo, downloadLogRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	noticeService := service.NewNoticeService(noticeRepo, userRepo, fileStorage, dispatcher,
		cfg.Portal.MaxNoticeAttachmentSize, zlog)
	eventService := service.NewEventService(eventRepo, dispatcher)
	adminService := service.NewAdminService(userRepo, fileRepo)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, cfg.Portal.MaxFileSizeBytes, api.Services{
		Auth:         authService,
		File:         fileService,
		Subject:      subjectService,
		User:         userService,
		Notification: notificationService,
		Notice:       noticeService,
		Event:        eventService,
		Admin:        adminService,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listen and serve error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	// Stop the dispatcher after the HTTP server so in-flight requests can
	// still enqueue events, then let it drain the queue.
	stopDispatcher()
	dispatcher.Wait()

	zlog.Info("server exiting")
}
