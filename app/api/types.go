package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipvault/clipvault/app/config"
	"github.com/clipvault/clipvault/app/database"
	"github.com/clipvault/clipvault/app/feed"
	"github.com/clipvault/clipvault/app/pipeline"
	"github.com/clipvault/clipvault/app/tasks"
)

// PreviewSource is the orchestrator surface the handlers need.
type PreviewSource interface {
	tasks.SaveRunner
	PendingPreview() *pipeline.PendingPreview
	ConfirmSave(editedMarkdown string) error
	CancelSave() error
}

var _ PreviewSource = (*pipeline.Orchestrator)(nil)
var _ SettingsStore = (*config.Store)(nil)

type SettingsStore interface {
	Get() (*config.Settings, error)
	Update(apply func(*config.Settings)) (*config.Settings, error)
}

type Handler struct {
	orchestrator PreviewSource
	scheduler    tasks.TaskSchedulerInterface
	store        SettingsStore
	articleRepo  database.ArticleRepository
	hub          *pipeline.Hub
	feedParser   *feed.Parser
	httpClient   *http.Client
	userAgent    string
}

type articleEntry struct {
	ID       int64    `json:"id"`
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Author   string   `json:"author,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	FilePath string   `json:"file_path"`
	Provider string   `json:"provider,omitempty"`
	SavedAt  string   `json:"saved_at"`
}

func articlesResponse(articles []database.Article) gin.H {
	entries := make([]articleEntry, len(articles))
	for i, a := range articles {
		entries[i] = articleEntry{
			ID:       a.ID,
			URL:      a.URL,
			Title:    a.Title,
			Author:   a.Author,
			Summary:  a.Summary,
			Tags:     a.Tags,
			FilePath: a.FilePath,
			Provider: a.Provider,
			SavedAt:  a.SavedAt.Format(time.RFC3339),
		}
	}
	return gin.H{"articles": entries, "count": len(entries)}
}

type saveRequest struct {
	URL string `json:"url" binding:"required"`
}

type importRequest struct {
	FeedURL string `json:"feed_url" binding:"required"`
}

type confirmRequest struct {
	Markdown string `json:"markdown"`
}
