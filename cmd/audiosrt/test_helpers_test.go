package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"audiosrt/internal/config"
	"audiosrt/internal/convert"
	"audiosrt/internal/ingest"
	"audiosrt/internal/recognition"
	"audiosrt/internal/reveal"
	"audiosrt/internal/testsupport"
	"audiosrt/internal/transcript"
	"audiosrt/internal/workflow"
)

// fakeIngestor accepts existing .wav and .mp3 files without running ffmpeg.
type fakeIngestor struct{}

func (fakeIngestor) Ingest(_ context.Context, path string) (*ingest.Audio, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ingest.ErrFileNotFound, path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".mp3":
	default:
		return nil, fmt.Errorf("%w: %s", ingest.ErrUnsupportedFormat, path)
	}
	return &ingest.Audio{Source: path, SampleRate: 16000, Channels: 1, Samples: 48000, Peak: 4000}, nil
}

// fakeTranscriber returns the hello-world phrase for every input and fails
// for files named broken.*.
type fakeTranscriber struct{}

func (fakeTranscriber) Transcribe(_ context.Context, audio *ingest.Audio, _ recognition.ModelSize) ([]transcript.Token, error) {
	if strings.HasPrefix(filepath.Base(audio.Source), "broken") {
		return nil, fmt.Errorf("%w: recognizer crashed", recognition.ErrTranscription)
	}
	return []transcript.Token{
		{Text: "Hello", Start: 0.0, End: 0.4},
		{Text: "world", Start: 0.5, End: 0.9},
		{Text: "this", Start: 2.0, End: 2.3},
		{Text: "is", Start: 2.3, End: 2.5},
		{Text: "a", Start: 2.5, End: 2.6},
		{Text: "test", Start: 2.6, End: 3.0},
	}, nil
}

const scenarioSRT = "1\n00:00:00,000 --> 00:00:00,900\nHello world\n\n2\n00:00:02,000 --> 00:00:03,000\nthis is a test\n\n"

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	inputDir   string

	mu       sync.Mutex
	revealed [][]string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	inputDir := filepath.Join(base, "input")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base, inputDir: inputDir}
}

func (e *cliTestEnv) input(t *testing.T, rel string) string {
	t.Helper()
	path := filepath.Join(e.inputDir, rel)
	testsupport.WriteFile(t, path, 64)
	return path
}

func (e *cliTestEnv) reveals() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.revealed...)
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()

	var configFlag string
	ctx := newCommandContext(&configFlag)
	ctx.newConverter = func(_ *config.Config, logger *slog.Logger) (workflow.Converter, error) {
		return convert.New(fakeIngestor{}, fakeTranscriber{}, logger), nil
	}
	ctx.revealer = reveal.New().WithPlatform("darwin").WithStarter(func(name string, args ...string) error {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.revealed = append(env.revealed, append([]string{name}, args...))
		return nil
	})

	root := buildRootCommand(ctx, &configFlag)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\noutput_dir = %q\nwork_dir = %q\nstate_dir = %q\nlog_dir = %q\n\n"+
			"[recognition]\nmodel_dir = %q\n\n"+
			"[queue]\npoll_interval_seconds = 1\nretry_backoff_seconds = 0\n\n"+
			"[logging]\nlevel = %q\n",
		cfg.Paths.OutputDir,
		cfg.Paths.WorkDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Recognition.ModelDir,
		cfg.Logging.Level,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n---\n%s", needle, haystack)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
