package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"audiosrt/internal/convert"
	"audiosrt/internal/logging"
)

// ErrOutputConflict marks a batch input whose subtitle path is already
// claimed by an earlier input.
var ErrOutputConflict = errors.New("output path already claimed in batch")

// BatchResult is the outcome for one file of a batch.
type BatchResult struct {
	Source string
	Result convert.Result
	Err    error
}

// Succeeded reports whether the file converted.
func (r BatchResult) Succeeded() bool { return r.Err == nil }

// RunBatch converts paths with up to workers concurrent conversions and
// returns results in input order. Files not started before ctx is canceled
// are reported as canceled. When several inputs map to one subtitle path
// only the first is converted; the rest fail with ErrOutputConflict before
// any work starts.
func RunBatch(ctx context.Context, converter Converter, paths []string, opts convert.Options, workers int, logger *slog.Logger) []BatchResult {
	logger = logging.NewComponentLogger(logger, "batch").With(logging.String("batch_id", uuid.NewString()))
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(paths))
	pending := make([]int, 0, len(paths))
	for i, conflict := range outputConflicts(paths, opts) {
		if conflict != nil {
			results[i] = BatchResult{Source: paths[i], Err: conflict}
			logger.Warn("output path conflict",
				logging.String("source_file", paths[i]),
				logging.Error(conflict),
				logging.String(logging.FieldEventType, "batch_output_conflict"),
			)
			continue
		}
		pending = append(pending, i)
	}
	indexes := make(chan int)

	start := time.Now()
	var wg sync.WaitGroup
	for range min(workers, max(len(pending), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				result, err := converter.Run(ctx, paths[i], opts)
				results[i] = BatchResult{Source: paths[i], Result: result, Err: err}
			}
		}()
	}

	next := 0
feed:
	for ; next < len(pending); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case indexes <- pending[next]:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	for _, i := range pending[next:] {
		results[i] = BatchResult{
			Source: paths[i],
			Err:    &convert.Error{Kind: convert.Canceled, Stage: convert.StageValidate, Path: paths[i], Message: "conversion canceled", Err: ctx.Err()},
		}
	}

	succeeded := 0
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		}
	}
	logger.Info("batch finished",
		logging.Int("files", len(paths)),
		logging.Int("succeeded", succeeded),
		logging.Int("failed", len(paths)-succeeded),
		logging.Int("workers", workers),
		logging.Duration("elapsed", time.Since(start)),
		logging.String(logging.FieldEventType, "batch_complete"),
	)
	return results
}

// outputConflicts returns, per input, an error when an earlier input already
// writes the same subtitle path.
func outputConflicts(paths []string, opts convert.Options) []error {
	conflicts := make([]error, len(paths))
	claimed := make(map[string]int, len(paths))
	for i, path := range paths {
		dest := opts.Destination(path)
		key, err := filepath.Abs(dest)
		if err != nil {
			key = filepath.Clean(dest)
		}
		if first, ok := claimed[key]; ok {
			conflicts[i] = &convert.Error{
				Kind:    convert.WriteError,
				Stage:   convert.StageValidate,
				Path:    path,
				Message: "subtitle would overwrite another file in the batch",
				Err:     fmt.Errorf("%w: %s is also written for %s", ErrOutputConflict, dest, paths[first]),
			}
			continue
		}
		claimed[key] = i
	}
	return conflicts
}
