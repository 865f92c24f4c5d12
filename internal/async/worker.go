package async

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmarulanda/fuelscan/internal/entity"
	"github.com/dmarulanda/fuelscan/internal/pipeline"
	"github.com/dmarulanda/fuelscan/internal/provider"
	"github.com/dmarulanda/fuelscan/internal/repository"
)

// Processor is the slice of the pipeline the queue depends on.
type Processor interface {
	Process(ctx context.Context, doc provider.Document) pipeline.Result
}

type PipelineQueue struct {
	proc    Processor
	repo    repository.FillUpRepository
	logger  *slog.Logger
	workers int
	timeout time.Duration
	onDone  func(job Job, res pipeline.Result)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*PipelineQueue)

func WithWorkers(n int) Option {
	return func(q *PipelineQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *PipelineQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *PipelineQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResultHook registers a callback invoked after every processed job. The
// hook runs on worker goroutines and must be safe for concurrent use.
func WithResultHook(fn func(job Job, res pipeline.Result)) Option {
	return func(q *PipelineQueue) { q.onDone = fn }
}

// NewPipelineQueue starts the workers immediately. The repo may be nil when
// results are consumed through the hook only.
func NewPipelineQueue(proc Processor, repo repository.FillUpRepository, logger *slog.Logger, opts ...Option) *PipelineQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &PipelineQueue{
		proc:    proc,
		repo:    repo,
		logger:  logger,
		workers: 2,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *PipelineQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					res := q.handle(ctx, job)
					cancel()

					if res.Success {
						q.logger.Info("processed receipt successfully", "worker_id", workerID, "path", job.Path)
					} else {
						code := ""
						if res.Error != nil {
							code = res.Error.Code
						}
						q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "code", code)
					}
					if q.onDone != nil {
						q.onDone(job, res)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *PipelineQueue) handle(ctx context.Context, job Job) pipeline.Result {
	f, err := os.Open(job.Path)
	if err != nil {
		return pipeline.Result{
			Success: false,
			Error:   &pipeline.ErrorInfo{Code: pipeline.CodeProcessingError, Message: err.Error()},
		}
	}
	defer f.Close()

	res := q.proc.Process(ctx, provider.Document{
		Content:  f,
		Filename: filepath.Base(job.Path),
	})
	if res.Success && q.repo != nil {
		rec := entity.NewFillUp(filepath.Base(job.Path), *res.Data, *res.Confidence)
		if err := q.repo.Save(ctx, rec); err != nil {
			q.logger.Error("failed to persist extraction result", "path", job.Path, "error", err)
		}
	}
	return res
}

func (q *PipelineQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued receipt for processing", "path", job.Path)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

func (q *PipelineQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
