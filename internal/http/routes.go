package http

import (
	"os"
	"strconv"
	"time"

	"opschecklist/internal/feed"
	"opschecklist/internal/http/handlers"
	"opschecklist/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, hub *feed.Hub, version string) {
	healthHandler := handlers.NewHealthHandler(h.DB, hub, version)

	// read limits from env, with safe defaults
	apiRateLimit := 60
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))
	registerAPIRoutes(v1, h, authRateLimit, authRateWindow)

	// Stateless functions: notification dispatch and user provisioning.
	// Dispatch accepts any authenticated principal; provisioning is
	// admin-only.
	functions := r.Group("/functions")
	functions.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))
	functions.POST("/notify", middleware.JWT(), h.Dispatch)
	functions.POST("/admin-users", middleware.JWT(), middleware.RequireAdmin(), h.ProvisionUser)

	// Realtime change feed
	r.GET("/ws", h.Feed(hub))
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, authRateLimit int, authRateWindow time.Duration) {
	// Auth; in-memory limiter so brute-force protection works without Redis
	api.POST("/auth/login", middleware.SimpleRateLimit(authRateLimit, authRateWindow), h.Login)
	api.GET("/me", middleware.JWT(), h.Me)

	// Toggling is the hot mutation; limited per user, not per IP
	toggleRL := middleware.UserRateLimit(120, time.Minute)

	// Departments
	api.GET("/departments", middleware.JWT(), h.ListDepartments)
	api.GET("/departments/mine", middleware.JWT(), h.MyDepartments)
	api.POST("/departments", middleware.JWT(), middleware.RequireAdmin(), h.CreateDepartment)
	api.PUT("/departments/:id", middleware.JWT(), middleware.RequireAdmin(), h.UpdateDepartment)
	api.DELETE("/departments/:id", middleware.JWT(), middleware.RequireAdmin(), h.DeleteDepartment)
	api.GET("/departments/:id/users", middleware.JWT(), middleware.RequireAdmin(), h.DepartmentUsers)
	api.POST("/departments/:id/users", middleware.JWT(), middleware.RequireAdmin(), h.AssignUser)
	api.DELETE("/departments/:id/users/:user_id", middleware.JWT(), middleware.RequireAdmin(), h.UnassignUser)

	// Checklists
	api.GET("/checklists", middleware.JWT(), h.ListChecklists)
	api.GET("/checklists/:id", middleware.JWT(), h.GetChecklist)
	api.GET("/checklists/:id/progress", middleware.JWT(), h.GetProgress)
	api.POST("/checklists", middleware.JWT(), middleware.RequireAdmin(), h.CreateChecklist)
	api.PUT("/checklists/:id", middleware.JWT(), middleware.RequireAdmin(), h.UpdateChecklist)
	api.DELETE("/checklists/:id", middleware.JWT(), middleware.RequireAdmin(), h.DeleteChecklist)

	// Tasks
	api.GET("/checklists/:id/tasks", middleware.JWT(), h.ListTasks)
	api.POST("/checklists/:id/tasks", middleware.JWT(), middleware.RequireAdmin(), h.CreateTask)
	api.PUT("/tasks/:id", middleware.JWT(), middleware.RequireAdmin(), h.UpdateTask)
	api.DELETE("/tasks/:id", middleware.JWT(), middleware.RequireAdmin(), h.DeleteTask)
	api.POST("/tasks/:id/toggle", middleware.JWT(), toggleRL, h.ToggleTask)

	// Notifications
	api.GET("/notifications", middleware.JWT(), h.MyNotifications)
	api.PATCH("/notifications/:id/read", middleware.JWT(), h.MarkNotificationRead)
	api.DELETE("/notifications/:id", middleware.JWT(), h.DeleteNotification)

	// Users (admin)
	api.GET("/users", middleware.JWT(), middleware.RequireAdmin(), h.ListUsers)
}
