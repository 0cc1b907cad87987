package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propdesk/propdesk/internal/middleware"
)

type RouterDeps struct {
	Ingest     *IngestHandler
	Chat       *ChatHandler
	Sessions   *SessionHandler
	Admin      *AdminHandler
	JWTSecret  []byte
	ChatWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/documents", deps.Ingest.Upload)
	authGroup.GET("/documents/:id", deps.Ingest.Get)

	chatGroup := authGroup.Group("")
	chatGroup.Use(middleware.RateLimit(deps.ChatWindow))
	chatGroup.POST("/chat", deps.Chat.Send)

	authGroup.GET("/conversations", deps.Sessions.List)
	authGroup.GET("/conversations/recent", deps.Sessions.Recent)
	authGroup.GET("/conversations/:id/messages", deps.Sessions.Messages)
	authGroup.DELETE("/conversations/:id", deps.Sessions.Delete)

	adminGroup := authGroup.Group("/admin")
	adminGroup.Use(middleware.RequireAdmin())
	adminGroup.POST("/retention/run", deps.Admin.RunRetention)
}
