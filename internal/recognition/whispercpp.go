package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"audiosrt/internal/ingest"
	"audiosrt/internal/logging"
)

// WhisperCPPOptions configures the whisper.cpp backend.
type WhisperCPPOptions struct {
	Binary     string
	ModelDir   string
	Language   string
	ToolLogDir string
	Logger     *slog.Logger
}

// WhisperCPP runs whisper-cli against ggml weights stored in ModelDir.
type WhisperCPP struct {
	opts     WhisperCPPOptions
	runner   toolRunner
	lookPath func(string) (string, error)
}

// NewWhisperCPP constructs the backend.
func NewWhisperCPP(opts WhisperCPPOptions) *WhisperCPP {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "whisper-cli"
	}
	logger := logging.NewComponentLogger(opts.Logger, "whispercpp")
	return &WhisperCPP{
		opts:     opts,
		runner:   toolRunner{run: defaultCommandRunner, logDir: opts.ToolLogDir, logger: logger},
		lookPath: exec.LookPath,
	}
}

// WithCommandRunner swaps the process runner (for testing).
func (w *WhisperCPP) WithCommandRunner(run CommandRunner) *WhisperCPP {
	if run != nil {
		w.runner.run = run
	}
	return w
}

// WithLookPath swaps binary resolution (for testing).
func (w *WhisperCPP) WithLookPath(lookPath func(string) (string, error)) *WhisperCPP {
	if lookPath != nil {
		w.lookPath = lookPath
	}
	return w
}

// Name identifies the backend.
func (w *WhisperCPP) Name() string { return "whispercpp" }

// WeightsPath returns the ggml weights file expected for a tier.
func (w *WhisperCPP) WeightsPath(size ModelSize) string {
	return filepath.Join(w.opts.ModelDir, "ggml-"+size.ModelName()+".bin")
}

// Load checks the binary and weights for the tier.
func (w *WhisperCPP) Load(_ context.Context, size ModelSize) (Model, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("%w: %w %q", ErrModelLoad, ErrUnknownModel, size)
	}
	binary, err := w.lookPath(w.opts.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: whisper.cpp binary %q not found: %w", ErrModelLoad, w.opts.Binary, err)
	}
	weights := w.WeightsPath(size)
	info, err := os.Stat(weights)
	if err != nil {
		return nil, fmt.Errorf("%w: weights for %s unavailable: %w", ErrModelLoad, size.ModelName(), err)
	}
	if info.IsDir() || info.Size() == 0 {
		return nil, fmt.Errorf("%w: weights file %s is empty", ErrModelLoad, weights)
	}
	return &whisperCPPModel{backend: w, binary: binary, weights: weights, name: size.ModelName()}, nil
}

type whisperCPPModel struct {
	backend *WhisperCPP
	binary  string
	weights string
	name    string
}

func (m *whisperCPPModel) Transcribe(ctx context.Context, audio *ingest.Audio) ([]Word, error) {
	prefix := filepath.Join(scratchDir(audio), "whispercpp")
	args := []string{
		"-m", m.weights,
		"-f", audio.Path,
		"-ml", "1",
		"-sow",
		"-oj",
		"-of", prefix,
	}
	if lang := m.backend.opts.Language; lang != "" {
		args = append(args, "-l", lang)
	}
	output, err := m.backend.runner.exec(ctx, "whispercpp-"+m.name, nil, m.binary, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, toolFailure("whisper-cli "+m.name, output, err)
	}
	words, err := loadWhisperCPPWords(prefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	return words, nil
}

type whisperCPPPayload struct {
	Transcription []struct {
		Offsets struct {
			From *int64 `json:"from"`
			To   *int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func loadWhisperCPPWords(path string) ([]Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read whisper.cpp output: %w", err)
	}
	var payload whisperCPPPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisper.cpp json: %w", err)
	}
	words := make([]Word, 0, len(payload.Transcription))
	for _, entry := range payload.Transcription {
		if isNonSpeechMarker(entry.Text) {
			continue
		}
		word := Word{Text: entry.Text}
		if entry.Offsets.From != nil && entry.Offsets.To != nil {
			word.Start = float64(*entry.Offsets.From) / 1000
			word.End = float64(*entry.Offsets.To) / 1000
			word.Timed = true
		}
		words = append(words, word)
	}
	return words, nil
}

// isNonSpeechMarker matches annotations such as [BLANK_AUDIO] or [_BEG_].
func isNonSpeechMarker(text string) bool {
	text = strings.TrimSpace(text)
	return len(text) > 2 && strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]")
}
