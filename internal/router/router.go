// Package router mounts the HTTP surface on a gin engine.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflow/task-tracker-api/internal/handlers"
	"github.com/taskflow/task-tracker-api/internal/middleware"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/services"
	"gorm.io/gorm"
)

// Services holds everything the routes need.
type Services struct {
	DB            *gorm.DB
	Auth          *services.AuthService
	Tasks         *services.TaskService
	Organizations *services.OrganizationService
	Users         *services.UserService
	Audit         *services.AuditService
}

// New builds the engine with request logging and panic recovery.
func New(svc Services) (*gin.Engine, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	authHandler := handlers.NewAuthHandler(svc.Auth)
	taskHandler := handlers.NewTaskHandler(svc.Tasks)
	orgHandler := handlers.NewOrganizationHandler(svc.Organizations)
	userHandler := handlers.NewUserHandler(svc.Users)
	auditHandler := handlers.NewAuditLogHandler(svc.Audit)
	healthHandler := handlers.NewHealthHandler(svc.DB)

	requireAuth := middleware.RequireAuth(svc.Auth)
	managersOnly := middleware.RequireRole(models.RoleOwner, models.RoleAdmin)

	r.GET("/health", healthHandler.Health)

	// Auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/status", requireAuth, authHandler.Status)
		auth.POST("/logout", requireAuth, authHandler.Logout)
	}

	// Task routes (protected)
	tasks := r.Group("/tasks")
	tasks.Use(requireAuth)
	{
		tasks.GET("", taskHandler.ListTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("/board", taskHandler.GetBoard)
		tasks.GET("/stats", taskHandler.GetStats)
		tasks.POST("/suggest", taskHandler.SuggestTasks)
		tasks.GET("/:id", middleware.RequireTaskID(), taskHandler.GetTask)
		tasks.PUT("/:id", middleware.RequireTaskID(), taskHandler.UpdateTask)
		tasks.PATCH("/:id", middleware.RequireTaskID(), taskHandler.UpdateTask)
		tasks.DELETE("/:id", middleware.RequireTaskID(), taskHandler.DeleteTask)
		tasks.POST("/:id/assign", middleware.RequireTaskID(), taskHandler.AssignTask)
	}

	// Organization routes (protected)
	orgs := r.Group("/organizations")
	orgs.Use(requireAuth)
	{
		orgs.GET("", orgHandler.ListOrganizations)
		orgs.POST("", orgHandler.CreateOrganization)
		orgs.GET("/:id", orgHandler.GetOrganization)
	}

	// User routes (protected)
	users := r.Group("/users")
	users.Use(requireAuth)
	{
		users.GET("", userHandler.ListUsers)
		users.GET("/organization/:id", userHandler.ListOrganizationUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PATCH("/:id", managersOnly, userHandler.UpdateUser)
	}

	// Audit routes; everything but my-activity is for owners and admins
	audit := r.Group("/audit-logs")
	audit.Use(requireAuth)
	{
		audit.GET("/my-activity", auditHandler.GetMyActivity)
		audit.GET("/organization", managersOnly, auditHandler.GetOrganizationLogs)
		audit.GET("/user/:userId", managersOnly, auditHandler.GetUserLogs)
		audit.GET("/resource/:resource/:resourceId", managersOnly, auditHandler.GetResourceLogs)
		audit.GET("/recent", managersOnly, auditHandler.GetRecentActivity)
	}

	return r, nil
}
