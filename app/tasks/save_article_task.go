package tasks

import (
	"context"
)

// SaveArticleTask runs the full save pipeline for one URL. The pipeline
// reports progress and failures itself via the status hub, so a failed run is
// terminal here; retrying would re-summarize and double the LLM cost without
// the user asking for it.
type SaveArticleTask struct {
	Task
	runner SaveRunner
}

func NewSaveArticleTask(pageURL string, runner SaveRunner) *SaveArticleTask {
	return &SaveArticleTask{
		Task:   NewTask(TaskTypeSaveArticle, pageURL, 0),
		runner: runner,
	}
}

func (t *SaveArticleTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return t.runner.Run(ctx, t.URL)
}
