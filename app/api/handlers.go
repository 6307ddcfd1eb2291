package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipvault/clipvault/app/config"
	"github.com/clipvault/clipvault/app/tasks"
)

// SaveArticle enqueues a save run for the given URL. The work is
// asynchronous; progress arrives via /api/status.
func (h *Handler) SaveArticle(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	task := tasks.NewSaveArticleTask(req.URL, h.orchestrator)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue save task", "url", req.URL, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "save queue is unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": task.GetID(), "url": req.URL})
}

// ImportFeed enqueues a bulk import of an RSS/Atom feed.
func (h *Handler) ImportFeed(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feed_url is required"})
		return
	}

	settings, err := h.store.Get()
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	task := tasks.NewImportFeedTask(req.FeedURL, h.feedParser, h.httpClient,
		h.scheduler, h.orchestrator, h.userAgent, settings.MaxImportItems)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue import task", "feed", req.FeedURL, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "save queue is unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": task.GetID(), "feed_url": req.FeedURL})
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Last())
}

// StreamStatus pushes status events over Server-Sent Events until the client
// disconnects.
func (h *Handler) StreamStatus(c *gin.Context) {
	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("status", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) GetPreview(c *gin.Context) {
	pending := h.orchestrator.PendingPreview()
	if pending == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no preview is pending"})
		return
	}

	c.JSON(http.StatusOK, pending)
}

func (h *Handler) ConfirmPreview(c *gin.Context) {
	var req confirmRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	if err := h.orchestrator.ConfirmSave(req.Markdown); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (h *Handler) CancelPreview(c *gin.Context) {
	if err := h.orchestrator.CancelSave(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *Handler) ListArticles(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	if url := c.Query("url"); url != "" {
		articles, err := h.articleRepo.GetByURL(url)
		if err != nil {
			slog.Error("Database error", "operation", "get_by_url", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query archive"})
			return
		}
		c.JSON(http.StatusOK, articlesResponse(articles))
		return
	}

	articles, err := h.articleRepo.GetRecent(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query archive"})
		return
	}

	c.JSON(http.StatusOK, articlesResponse(articles))
}

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.store.Get()
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	// API keys never leave the server in full.
	redacted := *settings
	redacted.LlmProviders = append([]config.LlmProvider(nil), settings.LlmProviders...)
	for i := range redacted.LlmProviders {
		redacted.LlmProviders[i].APIKey = redactKey(redacted.LlmProviders[i].APIKey)
	}
	redacted.APIKey = redactKey(redacted.APIKey)

	c.JSON(http.StatusOK, gin.H{
		"settings": redacted,
		"warnings": config.Validate(settings),
	})
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var incoming config.Settings
	if err := c.ShouldBindJSON(&incoming); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}

	updated, err := h.store.Update(func(s *config.Settings) {
		*s = incoming
	})
	if err != nil {
		slog.Error("Failed to persist settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "updated",
		"warnings": config.Validate(updated),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	count, err := h.articleRepo.Count()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "archive database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"timestamp":      time.Now().In(time.Local).Format(time.RFC3339),
		"saved_articles": count,
		"pipeline":       h.hub.Last().Stage,
	})
}

func redactKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
