package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"audiosrt/internal/convert"
)

func TestRunBatchPreservesOrder(t *testing.T) {
	paths := make([]string, 9)
	for i := range paths {
		paths[i] = fmt.Sprintf("/in/%02d.mp3", i)
	}
	conv := &scriptedConverter{outcome: func(path string, _ int) error {
		if path == "/in/04.mp3" {
			return kindError(convert.CorruptAudio)
		}
		return nil
	}}

	results := RunBatch(context.Background(), conv, paths, convert.Options{}, 4, nil)
	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, r := range results {
		if r.Source != paths[i] {
			t.Fatalf("result %d source %s, want %s", i, r.Source, paths[i])
		}
		wantOK := paths[i] != "/in/04.mp3"
		if r.Succeeded() != wantOK {
			t.Fatalf("result %d succeeded=%v, err=%v", i, r.Succeeded(), r.Err)
		}
	}
	if !errors.Is(results[4].Err, convert.CorruptAudio) {
		t.Fatalf("expected CorruptAudio, got %v", results[4].Err)
	}
	if results[0].Result.OutputPath != "/in/00.srt" {
		t.Fatalf("unexpected output %s", results[0].Result.OutputPath)
	}
}

func TestRunBatchCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conv := &scriptedConverter{}
	results := RunBatch(ctx, conv, []string{"/a.mp3", "/b.mp3"}, convert.Options{}, 1, nil)
	for _, r := range results {
		if r.Succeeded() && conv.callCount(r.Source) == 0 {
			t.Fatalf("file %s reported success without running", r.Source)
		}
	}
	failed := 0
	for _, r := range results {
		if errors.Is(r.Err, convert.Canceled) {
			failed++
		}
	}
	if failed == 0 {
		t.Fatal("expected at least one canceled result")
	}
}

func TestRunBatchEmpty(t *testing.T) {
	if got := RunBatch(context.Background(), &scriptedConverter{}, nil, convert.Options{}, 3, nil); len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestRunBatchRejectsOutputConflicts(t *testing.T) {
	tests := []struct {
		name      string
		paths     []string
		opts      convert.Options
		conflicts []int
	}{
		{
			name:      "same base name in one output dir",
			paths:     []string{"/in/day1/intro.mp3", "/in/day2/intro.mp3", "/in/day2/outro.mp3"},
			opts:      convert.Options{OutputDir: "/out"},
			conflicts: []int{1},
		},
		{
			name:      "different extensions beside the input",
			paths:     []string{"/in/talk.mp3", "/in/talk.wav", "/in/talk.flac"},
			conflicts: []int{1, 2},
		},
		{
			name:  "same base name in separate dirs",
			paths: []string{"/in/day1/intro.mp3", "/in/day2/intro.mp3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &scriptedConverter{}
			results := RunBatch(context.Background(), conv, tt.paths, tt.opts, 3, nil)
			for i, r := range results {
				conflicted := slices.Contains(tt.conflicts, i)
				if conflicted {
					if !errors.Is(r.Err, ErrOutputConflict) || !errors.Is(r.Err, convert.WriteError) {
						t.Fatalf("result %d: expected output conflict, got %v", i, r.Err)
					}
					if conv.callCount(r.Source) != 0 {
						t.Fatalf("conflicting input %s should not be converted", r.Source)
					}
					continue
				}
				if !r.Succeeded() || conv.callCount(r.Source) != 1 {
					t.Fatalf("result %d: expected one successful conversion, got %v", i, r.Err)
				}
			}
		})
	}
}
