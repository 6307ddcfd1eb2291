package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/clipvault/clipvault/app/extract"
)

// Provider is one LLM backend. Wire format, auth scheme and response payload
// path are adapter concerns; prompts and tag parsing are shared.
type Provider interface {
	Summarize(ctx context.Context, content *extract.ExtractedContent) (string, error)
	ExtractTags(ctx context.Context, content *extract.ExtractedContent, maxTags int) ([]string, error)
	Name() string
}

const (
	summaryMaxTokens = 1000
	tagMaxTokens     = 100

	summaryTemperature = 0.7
	tagTemperature     = 0.3
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
