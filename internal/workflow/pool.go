package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"audiosrt/internal/config"
	"audiosrt/internal/convert"
	"audiosrt/internal/logging"
	"audiosrt/internal/queue"
	"audiosrt/internal/services"
)

// ErrAlreadyRunning reports another runner holding the queue lock.
var ErrAlreadyRunning = errors.New("another queue runner is active")

const maxRetryBackoff = time.Hour

// Converter runs one conversion.
type Converter interface {
	Run(ctx context.Context, path string, opts convert.Options) (convert.Result, error)
}

// Summary counts job outcomes handled by a pool run.
type Summary struct {
	Completed int
	Failed    int
	Retried   int
}

// Pool processes queued jobs with a fixed set of workers.
type Pool struct {
	cfg       *config.Config
	store     *queue.Store
	converter Converter
	logger    *slog.Logger

	workers      int
	pollInterval time.Duration
	retryBackoff time.Duration
	maxAttempts  int
	lock         *flock.Flock

	completed atomic.Int64
	failed    atomic.Int64
	retried   atomic.Int64

	mu      sync.Mutex
	running bool
	lastErr error
}

// NewPool constructs a pool from configuration.
func NewPool(cfg *config.Config, store *queue.Store, converter Converter, logger *slog.Logger) *Pool {
	workers := cfg.Queue.Workers
	if workers < 1 {
		workers = 1
	}
	poll := cfg.PollInterval()
	if poll <= 0 {
		poll = time.Second
	}
	attempts := cfg.Queue.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Pool{
		cfg:          cfg,
		store:        store,
		converter:    converter,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		workers:      workers,
		pollInterval: poll,
		retryBackoff: cfg.RetryBackoff(),
		maxAttempts:  attempts,
		lock:         flock.New(cfg.QueueLockPath()),
	}
}

// WithWorkers overrides the configured worker count.
func (p *Pool) WithWorkers(n int) *Pool {
	if n > 0 {
		p.workers = n
	}
	return p
}

// Run processes jobs until ctx is canceled. With drain set it returns once
// no pending or processing jobs remain, and reports ctx.Err() if it was cut
// short.
func (p *Pool) Run(ctx context.Context, drain bool) (Summary, error) {
	ok, err := p.lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire queue lock: %w", err)
	}
	if !ok {
		return Summary{}, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, p.lock.Path())
	}
	defer func() {
		if err := p.lock.Unlock(); err != nil {
			p.logger.Warn("queue lock release failed", logging.Error(err))
		}
	}()

	p.mu.Lock()
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	if reset, err := p.store.ResetProcessing(ctx); err != nil {
		return Summary{}, fmt.Errorf("reset interrupted jobs: %w", err)
	} else if reset > 0 {
		p.logger.Info("requeued interrupted jobs",
			logging.Int64("count", reset),
			logging.String(logging.FieldEventType, "queue_reset"),
		)
	}

	p.logger.Info("queue runner started",
		logging.Int("workers", p.workers),
		logging.Int("max_attempts", p.maxAttempts),
		logging.Bool("drain", drain),
		logging.String(logging.FieldEventType, "queue_start"),
	)

	var wg sync.WaitGroup
	for i := range p.workers {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			p.runWorker(ctx, name, drain)
		}(fmt.Sprintf("worker-%d", i+1))
	}
	wg.Wait()

	summary := p.Summary()
	p.logger.Info("queue runner stopped",
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int("retried", summary.Retried),
		logging.String(logging.FieldEventType, "queue_stop"),
	)
	if !drain {
		return summary, nil
	}
	return summary, ctx.Err()
}

// Summary reports outcomes handled so far.
func (p *Pool) Summary() Summary {
	return Summary{
		Completed: int(p.completed.Load()),
		Failed:    int(p.failed.Load()),
		Retried:   int(p.retried.Load()),
	}
}

// Running reports whether Run is active.
func (p *Pool) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// LastError returns the most recent queue access failure.
func (p *Pool) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Pool) runWorker(ctx context.Context, name string, drain bool) {
	ctx = services.WithWorker(ctx, name)
	logger := logging.WithContext(ctx, p.logger)
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := p.store.ClaimNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.setLastError(err)
			logger.Error("failed to claim next job",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			p.sleep(ctx)
			continue
		}
		if job == nil {
			if drain && p.drained(ctx) {
				return
			}
			p.sleep(ctx)
			continue
		}
		p.processJob(ctx, job)
	}
}

func (p *Pool) drained(ctx context.Context) bool {
	health, err := p.store.Health(ctx)
	if err != nil {
		p.setLastError(err)
		return false
	}
	return health.Pending == 0 && health.Processing == 0
}

func (p *Pool) processJob(ctx context.Context, job *queue.Job) {
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("job started",
		logging.String("source_file", job.SourcePath),
		logging.Int("attempt", job.Attempts),
		logging.String(logging.FieldEventType, "job_start"),
	)

	opts := convert.Options{
		ModelSize:   job.Model,
		MaxChars:    job.MaxChars,
		MaxDuration: job.MaxDuration,
		OutputDir:   job.OutputDir,
		SilenceGap:  p.cfg.Conversion.SilenceGap,
		MinDuration: p.cfg.Conversion.MinDuration,
	}
	result, err := p.converter.Run(ctx, job.SourcePath, opts)
	// Persist the outcome even when the runner is shutting down.
	storeCtx := context.WithoutCancel(ctx)
	correlationID, _ := services.RequestIDFromContext(ctx)

	switch {
	case err == nil:
		if err := p.store.Complete(storeCtx, job.ID, queue.Outcome{
			OutputPath:    result.OutputPath,
			CorrelationID: result.CorrelationID,
			Cues:          result.Cues,
		}); err != nil {
			p.persistFailed(logger, err)
			return
		}
		p.completed.Add(1)
		logger.Info("job completed",
			logging.String("output_file", result.OutputPath),
			logging.Int("cues", result.Cues),
			logging.Duration("elapsed", result.Elapsed),
			logging.String(logging.FieldEventType, "job_complete"),
		)

	case convert.KindOf(err) == convert.Canceled || ctx.Err() != nil:
		if err := p.store.Release(storeCtx, job.ID); err != nil {
			p.persistFailed(logger, err)
			return
		}
		logger.Info("job interrupted, returned to queue",
			logging.String(logging.FieldEventType, "job_released"),
		)

	case services.Retryable(err) && job.Attempts < p.maxAttempts:
		delay := p.backoff(job.Attempts)
		if err := p.store.Requeue(storeCtx, job.ID, string(convert.KindOf(err)), err.Error(), time.Now().Add(delay)); err != nil {
			p.persistFailed(logger, err)
			return
		}
		p.retried.Add(1)
		logging.WarnWithContext(logger, "job failed, will retry", "job_retry",
			logging.String(logging.FieldErrorKind, string(convert.KindOf(err))),
			logging.Duration("retry_in", delay),
			logging.Int("attempt", job.Attempts),
			logging.Int("max_attempts", p.maxAttempts),
			logging.Error(err),
		)

	default:
		kind := convert.KindOf(err)
		if err := p.store.Fail(storeCtx, job.ID, string(kind), err.Error(), correlationID); err != nil {
			p.persistFailed(logger, err)
			return
		}
		p.failed.Add(1)
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.String(logging.FieldErrorKind, string(kind)),
			logging.String(logging.FieldErrorHint, kind.Hint()),
			logging.Error(err),
		)
	}
}

// backoff doubles the configured base delay per spent attempt.
func (p *Pool) backoff(attempts int) time.Duration {
	if p.retryBackoff <= 0 {
		return 0
	}
	delay := p.retryBackoff
	for i := 1; i < attempts && delay < maxRetryBackoff; i++ {
		delay *= 2
	}
	return min(delay, maxRetryBackoff)
}

func (p *Pool) persistFailed(logger *slog.Logger, err error) {
	p.setLastError(err)
	logger.Error("failed to persist job outcome",
		logging.Error(err),
		logging.String(logging.FieldEventType, "job_persist_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
}

func (p *Pool) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.pollInterval):
	}
}

func (p *Pool) setLastError(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}
