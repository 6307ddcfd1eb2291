package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/clipvault/clipvault/app/feed"
)

const importFeedMaxRetries = 3

// TaskEnqueuer is the subset of the scheduler the import task needs to fan
// out follow-up save tasks.
type TaskEnqueuer interface {
	EnqueueTask(task TaskInterface) error
}

// ImportFeedTask fetches an RSS/Atom feed and enqueues a save for each entry,
// capped at maxItems. Feed fetches are idempotent, so unlike saves they are
// safe to retry.
type ImportFeedTask struct {
	Task
	parser     *feed.Parser
	httpClient *http.Client
	enqueuer   TaskEnqueuer
	runner     SaveRunner
	userAgent  string
	maxItems   int
}

func NewImportFeedTask(feedURL string, parser *feed.Parser, httpClient *http.Client,
	enqueuer TaskEnqueuer, runner SaveRunner, userAgent string, maxItems int) *ImportFeedTask {
	return &ImportFeedTask{
		Task:       NewTask(TaskTypeImportFeed, feedURL, importFeedMaxRetries),
		parser:     parser,
		httpClient: httpClient,
		enqueuer:   enqueuer,
		runner:     runner,
		userAgent:  userAgent,
		maxItems:   maxItems,
	}
}

func (t *ImportFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := t.fetchFeed(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	title, entries, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	if t.maxItems > 0 && len(entries) > t.maxItems {
		entries = entries[:t.maxItems]
	}

	slog.Info("Importing feed", "feed", title, "url", t.URL, "entries", len(entries))

	enqueued := 0
	for _, entry := range entries {
		saveTask := NewSaveArticleTask(entry.Link, t.runner)
		if err := t.enqueuer.EnqueueTask(saveTask); err != nil {
			slog.Warn("Failed to enqueue save for feed entry", "entry", entry.Link, "error", err)
			continue
		}
		enqueued++
	}

	slog.Info("Feed import queued", "feed", title, "enqueued", enqueued)

	return nil
}

func (t *ImportFeedTask) fetchFeed(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, err
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
