package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskmaster/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.GET("/api/v1/auth/session", handlers.Auth.Session)
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PATCH("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))
	r.DELETE("/api/v1/profile", authMiddleware(handlers.Auth.DeleteAccount))

	r.GET("/api/v1/users", authMiddleware(handlers.Profile.ListUsers))
	r.GET("/api/v1/users/{id}", authMiddleware(handlers.Profile.GetUser))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.POST("/api/v1/tasks/bulk", authMiddleware(handlers.Task.BulkUpdate))
	r.POST("/api/v1/tasks/import", authMiddleware(handlers.Task.ImportTasks))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PATCH("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	r.GET("/api/v1/reports/statistics", authMiddleware(handlers.Task.Statistics))
	r.GET("/api/v1/reports/export", authMiddleware(handlers.Task.Export))

	r.GET("/api/v1/notifications", authMiddleware(handlers.Profile.Notifications))
	r.POST("/api/v1/notifications", authMiddleware(handlers.Profile.AddNotification))
	r.PUT("/api/v1/notifications/read", authMiddleware(handlers.Profile.MarkAllRead))
	r.POST("/api/v1/notifications/{id}/read", authMiddleware(handlers.Profile.MarkRead))
	r.DELETE("/api/v1/notifications/{id}", authMiddleware(handlers.Profile.DeleteNotification))

	return r
}
