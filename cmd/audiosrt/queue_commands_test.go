package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"audiosrt/internal/queue"
	"audiosrt/internal/testsupport"
)

func TestQueueAddListAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	alpha := env.input(t, "alpha.wav")
	beta := env.input(t, "beta.mp3")

	out, _, err := runCLI(t, env, "queue", "add", alpha, beta, "--model", "small", "--max-chars", "42")
	if err != nil {
		t.Fatalf("queue add: %v", err)
	}
	requireContains(t, out, "Queued job #1: "+alpha)
	requireContains(t, out, "Queued job #2: "+beta)

	out, _, err = runCLI(t, env, "queue", "add", alpha)
	if err != nil {
		t.Fatalf("queue add duplicate: %v", err)
	}
	requireContains(t, out, "already queued as job #1")

	out, _, err = runCLI(t, env, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "alpha.wav")
	requireContains(t, out, "beta.mp3")
	requireContains(t, out, "small")

	out, _, err = runCLI(t, env, "queue", "status")
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Pending")
	requireContains(t, out, "Total")
}

func TestQueueListJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	source := env.input(t, "alpha.wav")
	if _, _, err := runCLI(t, env, "queue", "add", source, "--max-duration", "3.5"); err != nil {
		t.Fatalf("queue add: %v", err)
	}

	out, _, err := runCLI(t, env, "queue", "list", "--json")
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}
	var views []jobView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(views) != 1 {
		t.Fatalf("expected one job, got %d", len(views))
	}
	got := views[0]
	if got.SourcePath != source || got.Status != "pending" || got.MaxDuration != 3.5 || got.Model != "base" {
		t.Fatalf("unexpected job view %+v", got)
	}
}

func TestQueueListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "queue", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestQueueEmptyOutputs(t *testing.T) {
	env := setupCLITestEnv(t)
	for _, args := range [][]string{{"queue", "list"}, {"queue", "status"}} {
		out, _, err := runCLI(t, env, args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		requireContains(t, out, "Queue is empty")
	}
}

func TestQueueRunDrainsJobs(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	good := env.input(t, "good.wav")
	broken := env.input(t, "broken.wav")
	if _, _, err := runCLI(t, env, "queue", "add", good, broken); err != nil {
		t.Fatalf("queue add: %v", err)
	}

	out, _, err := runCLI(t, env, "queue", "run", "--drain", "--workers", "2")
	if err != nil {
		t.Fatalf("queue run: %v", err)
	}
	requireContains(t, out, "Completed 1, failed 1, retried 0")
	if got := readFile(t, filepath.Join(env.inputDir, "good.srt")); got != scenarioSRT {
		t.Fatalf("unexpected srt %q", got)
	}

	store := testsupport.MustOpenStore(t, env.cfg)
	failed, err := store.List(context.Background(), queue.StatusFailed)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ErrorKind != "TranscriptionError" {
		t.Fatalf("expected one transcription failure, got %+v", failed)
	}

	out, _, err = runCLI(t, env, "queue", "list", "--status", "completed")
	if err != nil {
		t.Fatalf("queue list completed: %v", err)
	}
	requireContains(t, out, "(2 cues)")
}

func TestQueueRunFailsPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", t.TempDir())

	_, _, err := runCLI(t, env, "queue", "run", "--drain")
	if err == nil {
		t.Fatal("expected readiness failure without ffmpeg on PATH")
	}
	requireContains(t, err.Error(), "FFmpeg")
}

func TestQueueRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()

	job := testsupport.AddJob(t, store, env.cfg, env.input(t, "alpha.wav"))
	claimed, err := store.ClaimNext(ctx)
	if err != nil || claimed == nil || claimed.ID != job.ID {
		t.Fatalf("claim: %v %+v", err, claimed)
	}
	if err := store.Fail(ctx, job.ID, "CorruptAudio", "bad data", "corr-1"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	out, _, err := runCLI(t, env, "queue", "retry", fmt.Sprintf("%d", job.ID))
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Retried 1 failed jobs")

	reloaded, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %s", reloaded.Status)
	}

	if _, _, err := runCLI(t, env, "queue", "retry", "abc"); err == nil {
		t.Fatal("expected error for invalid id")
	}

	out, _, err = runCLI(t, env, "queue", "clear", "--completed")
	if err != nil {
		t.Fatalf("queue clear --completed: %v", err)
	}
	requireContains(t, out, "Cleared 0 completed jobs")

	out, _, err = runCLI(t, env, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 jobs")
}
