package queue_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"audiosrt/internal/queue"
	"audiosrt/internal/testsupport"
)

func TestOpenCreatesSchemaAndAddsJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if store.Path() != cfg.QueueDBPath() {
		t.Fatalf("store path = %s, want %s", store.Path(), cfg.QueueDBPath())
	}
	if _, err := os.Stat(cfg.QueueDBPath()); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	job := testsupport.AddJob(t, store, cfg, "/music/a.mp3")
	if job.ID == 0 || job.Status != queue.StatusPending || job.Attempts != 0 {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.Model != cfg.Conversion.Model || job.MaxChars != cfg.Conversion.MaxChars {
		t.Fatalf("conversion settings not stored: %+v", job)
	}
	if job.CreatedAt.IsZero() || !job.Active() {
		t.Fatalf("unexpected timestamps/state %+v", job)
	}

	fetched, err := store.Get(ctx, job.ID)
	if err != nil || fetched == nil || fetched.SourcePath != "/music/a.mp3" {
		t.Fatalf("Get = %+v, %v", fetched, err)
	}
	missing, err := store.Get(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing job, got %+v, %v", missing, err)
	}
}

func TestReopenKeepsJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testsupport.AddJob(t, store, cfg, "/music/keep.wav")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	jobs, err := reopened.List(context.Background())
	if err != nil || len(jobs) != 1 {
		t.Fatalf("expected persisted job, got %d (%v)", len(jobs), err)
	}
}

func TestAddRejectsDuplicateActiveSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.AddJob(t, store, cfg, "/music/dup.flac")
	existing, err := store.Add(ctx, queue.Spec{SourcePath: "/music/dup.flac", Model: "base", MaxChars: 50, MaxDuration: 5})
	if !errors.Is(err, queue.ErrDuplicate) || existing == nil || existing.ID != first.ID {
		t.Fatalf("expected duplicate of #%d, got %+v, %v", first.ID, existing, err)
	}

	claimed, err := store.ClaimNext(ctx)
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNext: %+v, %v", claimed, err)
	}
	if err := store.Complete(ctx, claimed.ID, queue.Outcome{OutputPath: "/music/dup.srt", Cues: 3}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := store.Add(ctx, queue.Spec{SourcePath: "/music/dup.flac", Model: "base", MaxChars: 50, MaxDuration: 5}); err != nil {
		t.Fatalf("completed jobs should not block re-adding: %v", err)
	}

	if _, err := store.Add(ctx, queue.Spec{SourcePath: "  "}); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestAddResolvesRelativePaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.AddJob(t, store, cfg, "relative/clip.ogg")
	if !filepath.IsAbs(job.SourcePath) {
		t.Fatalf("expected absolute source path, got %s", job.SourcePath)
	}
}

func TestClaimLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.AddJob(t, store, cfg, "/in/a.mp3")
	b := testsupport.AddJob(t, store, cfg, "/in/b.mp3")

	claimed, err := store.ClaimNext(ctx)
	if err != nil || claimed == nil || claimed.ID != a.ID {
		t.Fatalf("expected oldest job first, got %+v, %v", claimed, err)
	}
	if claimed.Status != queue.StatusProcessing || claimed.Attempts != 1 {
		t.Fatalf("unexpected claimed state %+v", claimed)
	}

	if err := store.Fail(ctx, a.ID, "CorruptAudio", "bad header", "cid-1"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := store.Fail(ctx, a.ID, "CorruptAudio", "again", ""); err == nil {
		t.Fatal("expected error failing a job that is not processing")
	}
	failed, _ := store.Get(ctx, a.ID)
	if failed.Status != queue.StatusFailed || failed.ErrorKind != "CorruptAudio" || failed.CorrelationID != "cid-1" {
		t.Fatalf("unexpected failed job %+v", failed)
	}

	next, err := store.ClaimNext(ctx)
	if err != nil || next == nil || next.ID != b.ID {
		t.Fatalf("expected second job, got %+v, %v", next, err)
	}
	if err := store.Complete(ctx, b.ID, queue.Outcome{OutputPath: "/in/b.srt", CorrelationID: "cid-2", Cues: 7}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	done, _ := store.Get(ctx, b.ID)
	if done.Status != queue.StatusCompleted || done.OutputPath != "/in/b.srt" || done.Cues != 7 {
		t.Fatalf("unexpected completed job %+v", done)
	}

	none, err := store.ClaimNext(ctx)
	if err != nil || none != nil {
		t.Fatalf("expected empty queue, got %+v, %v", none, err)
	}

	retried, err := store.RetryFailed(ctx)
	if err != nil || retried != 1 {
		t.Fatalf("RetryFailed = %d, %v", retried, err)
	}
	again, _ := store.Get(ctx, a.ID)
	if again.Status != queue.StatusPending || again.Attempts != 0 || again.ErrorMessage != "" {
		t.Fatalf("unexpected retried job %+v", again)
	}
}

func TestRequeueHonorsNotBefore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.AddJob(t, store, cfg, "/in/later.wav")
	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if err := store.Requeue(ctx, job.ID, "ModelLoadError", "gpu busy", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if claimed, err := store.ClaimNext(ctx); err != nil || claimed != nil {
		t.Fatalf("job should wait for its retry time, got %+v, %v", claimed, err)
	}

	pending, _ := store.Get(ctx, job.ID)
	if pending.Status != queue.StatusPending || pending.Attempts != 1 || pending.ErrorKind != "ModelLoadError" {
		t.Fatalf("unexpected requeued job %+v", pending)
	}
	if pending.NotBefore.Before(time.Now()) {
		t.Fatalf("expected future not-before, got %s", pending.NotBefore)
	}

	if err := store.Requeue(ctx, job.ID, "", "", time.Now()); err == nil {
		t.Fatal("expected error requeueing a pending job")
	}
}

func TestResetProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.AddJob(t, store, cfg, "/in/crash.m4a")
	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	reset, err := store.ResetProcessing(ctx)
	if err != nil || reset != 1 {
		t.Fatalf("ResetProcessing = %d, %v", reset, err)
	}
	got, _ := store.Get(ctx, job.ID)
	if got.Status != queue.StatusPending || got.Attempts != 0 {
		t.Fatalf("unexpected reset job %+v", got)
	}
}

func TestReleaseDoesNotChargeAttempt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.AddJob(t, store, cfg, "/in/interrupted.mp3")
	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if err := store.Release(ctx, job.ID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	got, _ := store.Get(ctx, job.ID)
	if got.Status != queue.StatusPending || got.Attempts != 0 {
		t.Fatalf("unexpected released job %+v", got)
	}
}

func TestConcurrentClaimsAreExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	const jobs = 24
	for i := range jobs {
		testsupport.AddJob(t, store, cfg, filepath.Join("/in", string(rune('a'+i))+".mp3"))
	}

	var (
		mu      sync.Mutex
		claimed = make(map[int64]int)
		wg      sync.WaitGroup
	)
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, err := store.ClaimNext(ctx)
				if err != nil {
					t.Errorf("ClaimNext: %v", err)
					return
				}
				if job == nil {
					return
				}
				mu.Lock()
				claimed[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(claimed) != jobs {
		t.Fatalf("expected %d distinct claims, got %d", jobs, len(claimed))
	}
	for id, count := range claimed {
		if count != 1 {
			t.Fatalf("job %d claimed %d times", id, count)
		}
	}
}

func TestListStatsAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.AddJob(t, store, cfg, "/in/1.mp3")
	testsupport.AddJob(t, store, cfg, "/in/2.mp3")
	testsupport.AddJob(t, store, cfg, "/in/3.mp3")

	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.Complete(ctx, a.ID, queue.Outcome{OutputPath: "/in/1.srt"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatal(err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 3 || health.Completed != 1 || health.Processing != 1 || health.Pending != 1 {
		t.Fatalf("unexpected health %+v", health)
	}

	pending, err := store.List(ctx, queue.StatusPending, queue.StatusProcessing)
	if err != nil || len(pending) != 2 {
		t.Fatalf("List = %d, %v", len(pending), err)
	}

	cleared, err := store.ClearCompleted(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("ClearCompleted = %d, %v", cleared, err)
	}
	cleared, err = store.Clear(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("Clear should keep the processing job, removed %d (%v)", cleared, err)
	}
	remaining, _ := store.List(ctx)
	if len(remaining) != 1 || remaining[0].Status != queue.StatusProcessing {
		t.Fatalf("unexpected remaining jobs %+v", remaining)
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := queue.ParseStatus(" Failed "); err != nil || s != queue.StatusFailed {
		t.Fatalf("ParseStatus = %s, %v", s, err)
	}
	if _, err := queue.ParseStatus("ripping"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
