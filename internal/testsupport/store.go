package testsupport

import (
	"context"
	"testing"

	"audiosrt/internal/config"
	"audiosrt/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddJob enqueues source with the config's conversion defaults.
func AddJob(t testing.TB, store *queue.Store, cfg *config.Config, source string) *queue.Job {
	t.Helper()

	job, err := store.Add(context.Background(), queue.Spec{
		SourcePath:  source,
		Model:       cfg.Conversion.Model,
		MaxChars:    cfg.Conversion.MaxChars,
		MaxDuration: cfg.Conversion.MaxDuration,
		OutputDir:   cfg.Paths.OutputDir,
	})
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return job
}
