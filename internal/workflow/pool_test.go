package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"audiosrt/internal/convert"
	"audiosrt/internal/logging"
	"audiosrt/internal/queue"
	"audiosrt/internal/testsupport"
)

type scriptedConverter struct {
	mu      sync.Mutex
	calls   map[string]int
	outcome func(path string, call int) error
	block   bool
	started chan struct{}
}

func (c *scriptedConverter) Run(ctx context.Context, path string, opts convert.Options) (convert.Result, error) {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[path]++
	call := c.calls[path]
	c.mu.Unlock()

	if c.block {
		if c.started != nil {
			c.started <- struct{}{}
		}
		<-ctx.Done()
		return convert.Result{}, &convert.Error{Kind: convert.Canceled, Stage: convert.StageTranscribe, Err: ctx.Err()}
	}
	if c.outcome != nil {
		if err := c.outcome(path, call); err != nil {
			return convert.Result{}, err
		}
	}
	return convert.Result{OutputPath: convert.OutputPath(path, opts.OutputDir), CorrelationID: "cid", Cues: 2}, nil
}

func (c *scriptedConverter) callCount(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[path]
}

func kindError(kind convert.Kind) error {
	return &convert.Error{Kind: kind, Stage: convert.StageTranscribe, Message: "scripted", Err: errors.New("boom")}
}

func TestPoolDrainsQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(3))
	store := testsupport.MustOpenStore(t, cfg)
	for i := range 7 {
		testsupport.AddJob(t, store, cfg, fmt.Sprintf("/in/%d.mp3", i))
	}

	conv := &scriptedConverter{}
	pool := NewPool(cfg, store, conv, logging.NewNop())
	summary, err := pool.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Completed != 7 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	jobs, _ := store.List(context.Background(), queue.StatusCompleted)
	if len(jobs) != 7 {
		t.Fatalf("expected 7 completed jobs, got %d", len(jobs))
	}
	for _, job := range jobs {
		if conv.callCount(job.SourcePath) != 1 || job.Cues != 2 || job.OutputPath == "" {
			t.Fatalf("unexpected job %+v", job)
		}
	}
	if pool.Running() {
		t.Fatal("pool should not report running after Run returns")
	}
}

func TestPoolRetriesTransientFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Queue.MaxAttempts = 3
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.AddJob(t, store, cfg, "/in/flaky.wav")

	conv := &scriptedConverter{outcome: func(_ string, call int) error {
		if call < 3 {
			return kindError(convert.ModelLoadError)
		}
		return nil
	}}
	summary, err := NewPool(cfg, store, conv, nil).Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Retried != 2 || summary.Completed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	got, _ := store.Get(context.Background(), job.ID)
	if got.Status != queue.StatusCompleted || got.Attempts != 3 || got.ErrorKind != "" {
		t.Fatalf("unexpected job %+v", got)
	}
}

func TestPoolFailureClassification(t *testing.T) {
	tests := []struct {
		name        string
		kind        convert.Kind
		maxAttempts int
		calls       int
	}{
		{"final kind", convert.UnsupportedFormat, 3, 1},
		{"transient without budget", convert.TranscriptionError, 1, 1},
		{"transient exhausts budget", convert.TranscriptionError, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			cfg.Queue.MaxAttempts = tt.maxAttempts
			store := testsupport.MustOpenStore(t, cfg)
			job := testsupport.AddJob(t, store, cfg, "/in/bad.mp3")

			conv := &scriptedConverter{outcome: func(string, int) error { return kindError(tt.kind) }}
			summary, err := NewPool(cfg, store, conv, nil).Run(context.Background(), true)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if summary.Failed != 1 || conv.callCount(job.SourcePath) != tt.calls {
				t.Fatalf("summary %+v calls %d", summary, conv.callCount(job.SourcePath))
			}
			got, _ := store.Get(context.Background(), job.ID)
			if got.Status != queue.StatusFailed || got.ErrorKind != string(tt.kind) || got.ErrorMessage == "" {
				t.Fatalf("unexpected job %+v", got)
			}
		})
	}
}

func TestPoolRefusesSecondRunner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	lock := flock.New(cfg.QueueLockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer lock.Unlock()

	_, err = NewPool(cfg, store, &scriptedConverter{}, nil).Run(context.Background(), true)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestPoolResetsInterruptedJobsOnStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.AddJob(t, store, cfg, "/in/stuck.flac")
	if _, err := store.ClaimNext(context.Background()); err != nil {
		t.Fatal(err)
	}

	summary, err := NewPool(cfg, store, &scriptedConverter{}, nil).Run(context.Background(), true)
	if err != nil || summary.Completed != 1 {
		t.Fatalf("Run = %+v, %v", summary, err)
	}
	got, _ := store.Get(context.Background(), job.ID)
	if got.Status != queue.StatusCompleted || got.Attempts != 1 {
		t.Fatalf("unexpected job %+v", got)
	}
}

func TestPoolCancellationReleasesJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.AddJob(t, store, cfg, "/in/long.mp3")

	conv := &scriptedConverter{block: true, started: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := NewPool(cfg, store, conv, nil).Run(ctx, false)
		done <- err
	}()

	select {
	case <-conv.started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop")
	}

	got, _ := store.Get(context.Background(), job.ID)
	if got.Status != queue.StatusPending || got.Attempts != 0 {
		t.Fatalf("expected released job, got %+v", got)
	}
}

func TestPoolBackoff(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Queue.RetryBackoffSeconds = 30
	pool := NewPool(cfg, nil, nil, nil)
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 2 * time.Minute},
		{20, time.Hour},
	}
	for _, tt := range tests {
		if got := pool.backoff(tt.attempts); got != tt.want {
			t.Fatalf("backoff(%d) = %s, want %s", tt.attempts, got, tt.want)
		}
	}

	cfg.Queue.RetryBackoffSeconds = 0
	if got := NewPool(cfg, nil, nil, nil).backoff(3); got != 0 {
		t.Fatalf("expected zero backoff, got %s", got)
	}
}
