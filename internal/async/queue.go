// Package async runs batches of receipt files through the pipeline on a
// bounded worker pool.
package async

import (
	"context"
	"time"
)

// Job is the smallest useful unit: one receipt file on disk.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
