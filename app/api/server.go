package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipvault/clipvault/app/cfg"
	"github.com/clipvault/clipvault/app/database"
	"github.com/clipvault/clipvault/app/feed"
	"github.com/clipvault/clipvault/app/pipeline"
	"github.com/clipvault/clipvault/app/tasks"
)

func NewHandler(orchestrator PreviewSource, scheduler tasks.TaskSchedulerInterface,
	store SettingsStore, articleRepo database.ArticleRepository, hub *pipeline.Hub) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		scheduler:    scheduler,
		store:        store,
		articleRepo:  articleRepo,
		hub:          hub,
		feedParser:   feed.NewParser(),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    cfg.Get().UserAgent,
	}
}

// NewServer creates the HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// Browser extensions and local web clients call this API cross-origin.
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")
	if apiAccessKey != "" {
		api.Use(authMiddleware(apiAccessKey))
	}
	{
		api.POST("/articles", handler.SaveArticle)
		api.GET("/articles", handler.ListArticles)
		api.POST("/import", handler.ImportFeed)

		api.GET("/status", handler.GetStatus)
		api.GET("/status/stream", handler.StreamStatus)

		api.GET("/preview", handler.GetPreview)
		api.POST("/preview/confirm", handler.ConfirmPreview)
		api.POST("/preview/cancel", handler.CancelPreview)

		api.GET("/settings", handler.GetSettings)
		api.PUT("/settings", handler.UpdateSettings)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "clipvault",
			"version": cfg.GetVersion(),
			"endpoints": map[string]string{
				"save":     "/api/articles (POST)",
				"import":   "/api/import (POST)",
				"articles": "/api/articles",
				"status":   "/api/status",
				"stream":   "/api/status/stream",
				"preview":  "/api/preview",
				"settings": "/api/settings",
				"health":   "/health",
			},
			"auth_required": apiAccessKey != "",
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
