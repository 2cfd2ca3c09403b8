package api

import (
	"net/http"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/service"

	"github.com/gin-gonic/gin"
)

// Services bundles everything SetupRoutes needs to wire the handlers.
type Services struct {
	Auth         service.AuthService
	File         service.FileService
	Subject      service.SubjectService
	User         service.UserService
	Notification service.NotificationService
	Notice       service.NoticeService
	Event        service.EventService
	Admin        service.AdminService
}

// SetupRoutes registers every route of the portal on the given engine.
func SetupRoutes(router *gin.Engine, jwtSecret string, maxFileSize int64, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	fileHandler := NewFileHandler(svc.File, maxFileSize)
	subjectHandler := NewSubjectHandler(svc.Subject)
	userHandler := NewUserHandler(svc.User)
	notificationHandler := NewNotificationHandler(svc.Notification)
	noticeHandler := NewNoticeHandler(svc.Notice)
	eventHandler := NewEventHandler(svc.Event)
	adminHandler := NewAdminHandler(svc.Admin)

	authMiddleware := AuthMiddleware(jwtSecret)
	reviewerOnly := RoleMiddleware(domain.RoleAdmin, domain.RoleHOD, domain.RoleFaculty)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Profile ---
		usersGroup := protected.Group("/users")
		{
			usersGroup.GET("/me", authHandler.GetProfile)
			usersGroup.PUT("/me", authHandler.UpdateProfile)
			usersGroup.GET("/me/stats", userHandler.Stats)
		}

		// --- File lifecycle ---
		fileGroup := protected.Group("/files")
		{
			fileGroup.POST("/upload", RoleMiddleware(domain.RoleStudent, domain.RoleFaculty, domain.RoleHOD), fileHandler.Upload)
			fileGroup.GET("/pending", reviewerOnly, fileHandler.ListPending)
			fileGroup.GET("/my-uploads", fileHandler.ListMyUploads)
			fileGroup.GET("/approved", fileHandler.ListApproved)
			fileGroup.GET("/:id", fileHandler.GetByID)
			fileGroup.PUT("/:id/approve", reviewerOnly, fileHandler.Approve)
			fileGroup.PUT("/:id/reject", reviewerOnly, fileHandler.Reject)
			fileGroup.PUT("/:id/update-version", RoleMiddleware(domain.RoleFaculty), fileHandler.UpdateVersion)
			fileGroup.POST("/:id/rate", RoleMiddleware(domain.RoleStudent), fileHandler.Rate)
			fileGroup.POST("/:id/download", RoleMiddleware(domain.RoleStudent), fileHandler.Download)
		}

		// --- Subjects ---
		subjectGroup := protected.Group("/subjects")
		{
			subjectGroup.GET("", subjectHandler.List)
			subjectGroup.POST("", RoleMiddleware(domain.RoleAdmin), subjectHandler.Create)
			subjectGroup.PUT("/:id", RoleMiddleware(domain.RoleAdmin), subjectHandler.Update)
			subjectGroup.DELETE("/:id", RoleMiddleware(domain.RoleAdmin), subjectHandler.Delete)
		}

		// --- Notifications ---
		notificationGroup := protected.Group("/notifications")
		{
			notificationGroup.GET("", notificationHandler.List)
			notificationGroup.PUT("/:id/read", notificationHandler.MarkRead)
			notificationGroup.PUT("/read-all", notificationHandler.MarkAllRead)
		}

		// --- Bookmarks ---
		bookmarkGroup := protected.Group("/bookmarks")
		bookmarkGroup.Use(RoleMiddleware(domain.RoleStudent))
		{
			bookmarkGroup.GET("", userHandler.ListBookmarks)
			bookmarkGroup.POST("", userHandler.AddBookmark)
			bookmarkGroup.DELETE("/:fileId", userHandler.RemoveBookmark)
		}

		// --- Notices ---
		noticeGroup := protected.Group("/notices")
		{
			noticeGroup.POST("", RoleMiddleware(domain.RoleAdmin, domain.RoleFaculty, domain.RoleHOD), noticeHandler.Create)
			noticeGroup.GET("", noticeHandler.List)
			noticeGroup.GET("/:id", noticeHandler.GetByID)
			noticeGroup.GET("/:id/attachments/:index", noticeHandler.DownloadAttachment)
			noticeGroup.DELETE("/:id", RoleMiddleware(domain.RoleAdmin), noticeHandler.Delete)
		}

		// --- Events ---
		eventGroup := protected.Group("/events")
		{
			eventGroup.POST("", RoleMiddleware(domain.RoleHOD), eventHandler.Create)
			eventGroup.GET("", eventHandler.List)
			eventGroup.DELETE("/:id", RoleMiddleware(domain.RoleHOD, domain.RoleAdmin), eventHandler.Delete)
		}

		// --- Admin analytics ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin, domain.RoleHOD))
		{
			adminGroup.GET("/analytics", adminHandler.Analytics)
		}
	}
}
