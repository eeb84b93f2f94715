package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"audiosrt/internal/config"
	"audiosrt/internal/recognition"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks applicable to the given config.
// Optional directories are only checked when configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Paths.OutputDir != "" {
		results = append(results, checkLazyDirectory("Output directory", cfg.Paths.OutputDir))
	}

	if cfg.Recognition.Backend == "whispercpp" {
		if ctx.Err() != nil {
			return results
		}
		results = append(results, CheckModelWeights(cfg))
	}
	return results
}

// checkLazyDirectory accepts a missing directory, which the converter creates
// on first write, but still rejects unusable existing paths.
func checkLazyDirectory(name, path string) Result {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first write)", path)}
	}
	return CheckDirectoryAccess(name, path)
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// CheckModelWeights verifies the whisper.cpp weights for the configured
// default model are present in the model directory.
func CheckModelWeights(cfg *config.Config) Result {
	const name = "Model weights"

	size, err := recognition.ParseModelSize(cfg.Conversion.Model)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	backend := recognition.NewWhisperCPP(recognition.WhisperCPPOptions{
		Binary:   cfg.Recognition.WhisperCPPBinary,
		ModelDir: cfg.Recognition.ModelDir,
	})
	return CheckFile(name, backend.WeightsPath(size))
}
