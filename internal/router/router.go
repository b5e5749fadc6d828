package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"focusboard/backend/internal/handler"
	"focusboard/backend/internal/middleware"
	"focusboard/backend/internal/service"
)

type Handlers struct {
	Auth          *handler.AuthHandler
	Timer         *handler.TimerHandler
	Tasks         *handler.TaskHandler
	Settings      *handler.SettingsHandler
	Notifications *handler.NotificationHandler
}

func New(authService *service.AuthService, h Handlers, corsOrigins []string, logger *slog.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService))

	protected.GET("/auth/me", h.Auth.Me)

	timer := protected.Group("/timer")
	timer.GET("/state", h.Timer.GetState)
	timer.POST("/start", h.Timer.Start)
	timer.POST("/pause", h.Timer.Pause)
	timer.POST("/resume", h.Timer.Resume)
	timer.POST("/stop", h.Timer.Stop)
	timer.POST("/complete-work", h.Timer.CompleteWork)
	timer.POST("/next", h.Timer.Next)
	timer.POST("/skip-break", h.Timer.SkipBreak)
	timer.POST("/refresh", h.Timer.Refresh)
	timer.GET("/history", h.Timer.GetHistory)
	timer.POST("/debug/rewind", h.Timer.Rewind)

	tasks := protected.Group("/tasks")
	tasks.POST("", h.Tasks.Create)
	tasks.GET("", h.Tasks.List)
	tasks.POST("/:id/complete", h.Tasks.Complete)
	tasks.DELETE("/:id", h.Tasks.Delete)

	protected.GET("/settings", h.Settings.Get)
	protected.PUT("/settings", h.Settings.Update)
	protected.GET("/notifications", h.Notifications.List)

	return engine
}
