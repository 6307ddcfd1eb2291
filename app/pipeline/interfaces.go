package pipeline

import (
	"context"

	"github.com/clipvault/clipvault/app/config"
	"github.com/clipvault/clipvault/app/database"
	"github.com/clipvault/clipvault/app/extract"
	"github.com/clipvault/clipvault/app/images"
	"github.com/clipvault/clipvault/app/markdown"
)

type ContentExtractor interface {
	Run(ctx context.Context, pageURL string) (*extract.ExtractedContent, error)
}

type LlmService interface {
	Summarize(ctx context.Context, content *extract.ExtractedContent) (string, error)
	ExtractTags(ctx context.Context, content *extract.ExtractedContent, maxTags int) ([]string, error)
	ProviderName() string
}

type ImageLocalizer interface {
	Localize(ctx context.Context, imgs []extract.ImageRef, title string) *images.Result
}

type Renderer interface {
	Run(input markdown.Input) (string, error)
}

type FileWriter interface {
	Write(relPath string, data []byte) (string, error)
}

type SettingsSource interface {
	Get() (*config.Settings, error)
}

type ArticleArchive interface {
	Insert(article *database.Article) (int64, error)
	GetByURL(url string) ([]database.Article, error)
}

// Factories let the pipeline honor settings changes without a restart: the
// provider, vault root and attachment folder are all resolved per run.

type LlmFactory func(provider *config.LlmProvider) (LlmService, error)

type WriterFactory func(vaultRoot string) FileWriter

type LocalizerFactory func(writer FileWriter, attachmentFolder string) ImageLocalizer
