package server

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/safefloor/safefloor-backend/internal/handlers"
	"github.com/safefloor/safefloor-backend/internal/logger"
	"github.com/safefloor/safefloor-backend/internal/middleware"
)

type RouterConfig struct {
	Log           *logger.Logger
	UserHandler   *handlers.UserHandler
	RoomHandler   *handlers.RoomHandler
	PolicyHandler *handlers.PolicyHandler
	EntryHandler  *handlers.EntryHandler
	ReportHandler *handlers.ReportHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))

	// Cors
	allowOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS")); v != "" {
		allowOrigins = strings.Split(v, ",")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Users
		api.POST("/users", cfg.UserHandler.Create)
		api.GET("/users", cfg.UserHandler.List)
		api.GET("/users/:id", cfg.UserHandler.Get)
		api.PUT("/users/:id", cfg.UserHandler.Rename)
		api.DELETE("/users/:id", cfg.UserHandler.Delete)
		api.GET("/users/:id/entries", cfg.UserHandler.ListEntries)
		api.GET("/users/:id/badge", cfg.UserHandler.GetBadge)
		api.POST("/users/:id/badge", cfg.UserHandler.RegenerateBadge)

		// Rooms
		api.GET("/rooms", cfg.RoomHandler.List)
		api.GET("/rooms/:room/config", cfg.RoomHandler.GetConfig)
		api.GET("/rooms/:room/entries", cfg.RoomHandler.ListEntries)

		// Room configurations
		api.POST("/room-configurations", cfg.PolicyHandler.Create)
		api.GET("/room-configurations", cfg.PolicyHandler.List)
		api.GET("/room-configurations/analytics/summary", cfg.PolicyHandler.AnalyticsSummary)
		api.GET("/room-configurations/:room", cfg.PolicyHandler.Get)
		api.PUT("/room-configurations/:room", cfg.PolicyHandler.Replace)
		api.DELETE("/room-configurations/:room", cfg.PolicyHandler.Deactivate)
		api.POST("/room-configurations/:room/test", cfg.PolicyHandler.TestObservation)
		api.POST("/room-configurations/:room/recalculate-entries", cfg.PolicyHandler.RecalculateEntries)

		// Entries
		api.POST("/entries", cfg.EntryHandler.Create)
		api.POST("/entries/upload-image", cfg.EntryHandler.CreateFromImage)
		api.GET("/entries", cfg.EntryHandler.List)
		api.GET("/entries/:id", cfg.EntryHandler.Get)
		api.DELETE("/entries/:id", cfg.EntryHandler.Delete)

		// Reports
		api.POST("/reports/compliance", cfg.ReportHandler.Compliance)
	}

	return router
}
