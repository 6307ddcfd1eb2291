package tasks

import (
	"context"
)

// TaskSchedulerInterface is what the API layer sees: enqueue work, nothing
// else. The single worker guarantees save runs never overlap.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// SaveRunner is implemented by the pipeline orchestrator.
type SaveRunner interface {
	Run(ctx context.Context, pageURL string) error
}
