package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/classhub-api/internal/middleware"
	"github.com/noah-isme/classhub-api/internal/models"
	"github.com/noah-isme/classhub-api/internal/service"
)

// Registry bundles every HTTP handler so routing stays in one place.
type Registry struct {
	Auth          *AuthHandler
	Announcements *AnnouncementHandler
	Assignments   *AssignmentHandler
	Discussions   *DiscussionHandler
	Quizzes       *QuizHandler
	Dashboard     *DashboardHandler
	Exports       *ExportHandler
	Metrics       *MetricsHandler

	AuthService *service.AuthService
	EnableDocs  bool
}

// RegisterRoutes mounts all endpoints under /api/v1 plus the
// observability routes at the root.
func (reg *Registry) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", reg.Metrics.Health)
	router.GET("/ready", reg.Metrics.Ready)
	router.GET("/metrics", reg.Metrics.Prometheus)
	router.GET("/metrics/summary", reg.Metrics.Snapshot)

	if reg.EnableDocs {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", reg.Auth.Register)
		auth.POST("/login", reg.Auth.Login)
		auth.POST("/refresh", reg.Auth.Refresh)
		auth.POST("/forgot-password", reg.Auth.ForgotPassword)
		auth.POST("/reset-password", reg.Auth.ResetPassword)

		authed := auth.Group("")
		authed.Use(middleware.JWT(reg.AuthService))
		{
			authed.POST("/logout", reg.Auth.Logout)
			authed.POST("/change-password", reg.Auth.ChangePassword)
			authed.GET("/me", reg.Auth.Me)
		}
	}

	// Download links are pre-signed, so they stay outside the JWT group.
	v1.GET("/exports/download", reg.Exports.Download)

	secured := v1.Group("")
	secured.Use(middleware.JWT(reg.AuthService))
	{
		secured.GET("/dashboard", reg.Dashboard.Summary)

		announcements := secured.Group("/announcements")
		{
			announcements.GET("", reg.Announcements.List)
			announcements.GET("/:id", reg.Announcements.Get)
			announcements.POST("", middleware.RequireRoles(models.RoleTeacher), reg.Announcements.Create)
		}

		assignments := secured.Group("/assignments")
		{
			assignments.GET("", reg.Assignments.List)
			assignments.GET("/:id", reg.Assignments.Get)
			assignments.POST("", middleware.RequireRoles(models.RoleTeacher), reg.Assignments.Create)
			assignments.PUT("/:id/submission", middleware.RequireRoles(models.RoleStudent), reg.Assignments.Submit)
		}

		secured.POST("/submissions/:id/grade", middleware.RequireRoles(models.RoleTeacher), reg.Assignments.Grade)

		discussions := secured.Group("/discussions")
		{
			discussions.GET("", reg.Discussions.List)
			discussions.GET("/:id", reg.Discussions.Get)
			discussions.POST("", middleware.RequireRoles(models.RoleTeacher), reg.Discussions.Create)
			discussions.POST("/:id/posts", reg.Discussions.AddPost)
		}

		quizzes := secured.Group("/quizzes")
		{
			quizzes.GET("", reg.Quizzes.List)
			quizzes.GET("/:id", reg.Quizzes.Get)
			quizzes.POST("", middleware.RequireRoles(models.RoleTeacher), reg.Quizzes.Create)
			quizzes.POST("/:id/attempts", middleware.RequireRoles(models.RoleStudent), reg.Quizzes.SubmitAttempt)
		}

		exports := secured.Group("/exports")
		{
			exports.POST("", middleware.RequireRoles(models.RoleTeacher), reg.Exports.Create)
			exports.GET("/:id", reg.Exports.Status)
		}
	}
}
