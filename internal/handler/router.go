package handler

import (
	"net/http"
	"time"

	"lawgic/internal/config"
	"lawgic/internal/middleware"
	"lawgic/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTML views and the JSON API onto one engine.
func SetupRouter(cfg *config.Config, chatService *service.ChatService) (*gin.Engine, error) {
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	if len(cfg.CORS.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     cfg.CORS.AllowedMethods,
			AllowHeaders:     cfg.CORS.AllowedHeaders,
			ExposeHeaders:    cfg.CORS.ExposedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
		}))
	}

	if cfg.Document.MaxUploadBytes > 0 {
		// readUploadedFile caps the body, so files within the limit are parsed in memory
		router.MaxMultipartMemory = cfg.Document.MaxUploadBytes
	}

	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", StaticFiles())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	views := NewViewHandler(chatService, cfg.Session.CookieName, cfg.Document.MaxUploadBytes)
	router.GET("/", views.Index)
	router.POST("/navigate", views.Navigate)
	router.POST("/sidebar", views.ToggleSidebar)
	router.POST("/topic", views.SetTopic)
	router.POST("/chat/ask", views.Ask)
	router.POST("/chat/upload", views.Upload)
	router.POST("/chat/reset", views.Reset)
	router.POST("/summarize", views.Summarize)

	chatHandler := NewChatHandler(chatService, cfg.Document.MaxUploadBytes)
	api := router.Group("/api")
	{
		api.POST("/session", chatHandler.CreateSession)
		api.GET("/session/list", chatHandler.GetSessionList)
		api.GET("/session/:session_id", chatHandler.GetSession)
		api.DELETE("/session/:session_id", chatHandler.DeleteSession)
		api.GET("/messages/:session_id", chatHandler.GetMessages)
		api.POST("/session/:session_id/document", chatHandler.UploadDocument)
		api.POST("/session/:session_id/reset", chatHandler.Reset)
		api.PUT("/session/:session_id/page", chatHandler.Navigate)
		api.POST("/session/:session_id/sidebar", chatHandler.ToggleSidebar)
		api.PUT("/session/:session_id/topic", chatHandler.SetTopic)
		api.POST("/chat", chatHandler.Chat)
		api.POST("/chat/stream", chatHandler.StreamChat)
		api.POST("/summarize", chatHandler.Summarize)
	}

	return router, nil
}
