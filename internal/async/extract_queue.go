package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/camelot-go/camelot"
	"github.com/joseph-ayodele/camelot-go/constants"
	"github.com/joseph-ayodele/camelot-go/internal/common"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// ExtractFunc runs one extraction; swapped out in tests.
type ExtractFunc func(ctx context.Context, opts camelot.Options) (*camelot.Result, error)

// Handler receives every outcome. It is called from worker goroutines.
type Handler func(ctx context.Context, out Outcome)

type ExtractQueue struct {
	extract ExtractFunc
	handle  Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ExtractQueue)

func WithWorkers(n int) Option {
	return func(q *ExtractQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ExtractQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithJobTimeout(d time.Duration) Option {
	return func(q *ExtractQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}
func WithExtractFunc(fn ExtractFunc) Option {
	return func(q *ExtractQueue) {
		if fn != nil {
			q.extract = fn
		}
	}
}

// DefaultExtract builds a client per job so every document gets its own
// config and temp dir. Failed jobs keep their temp dir only in debug mode.
func DefaultExtract(logger *slog.Logger, copts ...camelot.ClientOption) ExtractFunc {
	return func(ctx context.Context, opts camelot.Options) (*camelot.Result, error) {
		all := append([]camelot.ClientOption{camelot.WithLogger(logger)}, copts...)
		c, err := camelot.New(opts, all...)
		if err != nil {
			return nil, err
		}
		res, err := c.Extract(ctx)
		if err != nil && !opts.Debug {
			if cerr := c.Config().Cleanup(); cerr != nil {
				logger.Warn("failed to remove temp dir", "dir", c.Config().TempDir(), "error", cerr)
			}
		}
		return res, err
	}
}

func NewExtractQueue(handle Handler, logger *slog.Logger, opts ...Option) *ExtractQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ExtractQueue{
		handle:  handle,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	q.extract = DefaultExtract(logger)
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ExtractQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.process(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ExtractQueue) process(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithRequestID(ctx, job.TraceID)

	q.logger.Debug("extracting", "worker_id", workerID, "job_id", job.ID, "status", constants.JobStatusRunning)
	start := time.Now()
	res, err := q.extract(ctx, job.Options)
	out := Outcome{Job: job, Result: res, Err: err, Duration: time.Since(start), Status: constants.JobStatusDone}

	if err != nil {
		out.Status = constants.JobStatusFailed
		q.logger.Error("extraction failed", "worker_id", workerID, "job_id", job.ID, "file", job.Options.FilePath, "error", err)
	} else {
		q.logger.Info("extracted file",
			"worker_id", workerID,
			"job_id", job.ID,
			"file", job.Options.FilePath,
			"tables", res.TableCount(),
			"duration_ms", out.Duration.Milliseconds(),
		)
	}
	if q.handle != nil {
		q.handle(ctx, out)
	}
}

func (q *ExtractQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.ID)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued file for extraction", "job_id", job.ID, "file", job.Options.FilePath, "status", constants.JobStatusQueued)
	default:
		q.logger.Warn("queue full, applying backpressure", "job_id", job.ID)
		q.ch <- job
	}
	return nil
}

func (q *ExtractQueue) Shutdown(ctx context.Context) {
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
