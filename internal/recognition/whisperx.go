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

// WhisperX invocation constants.
const (
	CUDAIndexURL   = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL   = "https://pypi.org/simple"
	CUDADevice     = "cuda"
	BatchSize      = "4"
	ChunkSize      = "15"
	VADOnset       = "0.08"
	VADOffset      = "0.07"
	BeamSize       = "5"
	Temperature    = "0.0"
	whisperXOutput = "whisperx"
)

// WhisperXOptions configures the WhisperX backend.
type WhisperXOptions struct {
	UVXBinary   string
	Package     string
	Device      string
	ComputeType string
	Language    string
	HFToken     string
	ToolLogDir  string
	Logger      *slog.Logger
}

// WhisperX loads models by resolving the uvx launcher; weights are fetched
// by WhisperX itself on first inference.
type WhisperX struct {
	opts     WhisperXOptions
	runner   toolRunner
	lookPath func(string) (string, error)
}

// NewWhisperX constructs the backend.
func NewWhisperX(opts WhisperXOptions) *WhisperX {
	if strings.TrimSpace(opts.UVXBinary) == "" {
		opts.UVXBinary = "uvx"
	}
	if strings.TrimSpace(opts.Package) == "" {
		opts.Package = "whisperx"
	}
	logger := logging.NewComponentLogger(opts.Logger, "whisperx")
	return &WhisperX{
		opts:     opts,
		runner:   toolRunner{run: defaultCommandRunner, logDir: opts.ToolLogDir, logger: logger},
		lookPath: exec.LookPath,
	}
}

// WithCommandRunner swaps the process runner (for testing).
func (w *WhisperX) WithCommandRunner(run CommandRunner) *WhisperX {
	if run != nil {
		w.runner.run = run
	}
	return w
}

// WithLookPath swaps binary resolution (for testing).
func (w *WhisperX) WithLookPath(lookPath func(string) (string, error)) *WhisperX {
	if lookPath != nil {
		w.lookPath = lookPath
	}
	return w
}

// Name identifies the backend.
func (w *WhisperX) Name() string { return "whisperx" }

// Load resolves the launcher for the tier.
func (w *WhisperX) Load(_ context.Context, size ModelSize) (Model, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("%w: %w %q", ErrModelLoad, ErrUnknownModel, size)
	}
	binary, err := w.lookPath(w.opts.UVXBinary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s launcher %q not found: %w", ErrModelLoad, size.ModelName(), w.opts.UVXBinary, err)
	}
	return &whisperXModel{backend: w, binary: binary, name: size.ModelName()}, nil
}

type whisperXModel struct {
	backend *WhisperX
	binary  string
	name    string
}

func (m *whisperXModel) Transcribe(ctx context.Context, audio *ingest.Audio) ([]Word, error) {
	outputDir := filepath.Join(scratchDir(audio), whisperXOutput)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output dir: %w", ErrTranscription, err)
	}

	args := m.backend.buildArgs(audio.Path, outputDir, m.name)
	env := []string(nil)
	// Torch 2.6 defaults torch.load to weights_only, which the VAD checkpoints reject.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		env = append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	output, err := m.backend.runner.exec(ctx, "whisperx-"+m.name, env, m.binary, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, toolFailure("whisperx "+m.name, output, err)
	}

	base := strings.TrimSuffix(filepath.Base(audio.Path), filepath.Ext(audio.Path))
	words, err := loadWhisperXWords(filepath.Join(outputDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	return words, nil
}

func (w *WhisperX) buildArgs(source, outputDir, model string) []string {
	args := make([]string, 0, 40)
	if w.opts.Device == CUDADevice {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}
	args = append(args,
		"--from", w.opts.Package,
		"whisperx",
		source,
		"--model", model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--chunk_size", ChunkSize,
		"--vad_method", "silero",
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
	)
	if w.opts.Language != "" {
		args = append(args, "--language", w.opts.Language)
	}
	if w.opts.HFToken != "" {
		args = append(args, "--hf_token", w.opts.HFToken)
	}
	if w.opts.Device != "" {
		args = append(args, "--device", w.opts.Device)
	}
	if w.opts.ComputeType != "" {
		args = append(args, "--compute_type", w.opts.ComputeType)
	}
	return args
}

type whisperXWord struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

type whisperXSegment struct {
	Text  string         `json:"text"`
	Start float64        `json:"start"`
	End   float64        `json:"end"`
	Words []whisperXWord `json:"words"`
}

type whisperXPayload struct {
	Segments []whisperXSegment `json:"segments"`
}

func loadWhisperXWords(path string) ([]Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read whisperx output: %w", err)
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	var words []Word
	for _, seg := range payload.Segments {
		words = append(words, timeSegmentWords(seg)...)
	}
	return words, nil
}

// timeSegmentWords returns the segment's words with timing filled in for
// those the aligner could not place, usually numbers and symbols. A run of
// untimed words splits the gap between its timed neighbours evenly, falling
// back to the segment bounds at either edge.
func timeSegmentWords(seg whisperXSegment) []Word {
	words := make([]Word, len(seg.Words))
	for i, w := range seg.Words {
		words[i] = Word{Text: w.Word}
		if w.Start != nil && w.End != nil {
			words[i].Start, words[i].End, words[i].Timed = *w.Start, *w.End, true
		}
	}
	for i := 0; i < len(words); {
		if words[i].Timed {
			i++
			continue
		}
		j := i
		for j < len(words) && !words[j].Timed {
			j++
		}
		lo, hi := seg.Start, seg.End
		if i > 0 {
			lo = words[i-1].End
		}
		if j < len(words) {
			hi = words[j].Start
		}
		hi = max(hi, lo)
		step := (hi - lo) / float64(j-i)
		for k := i; k < j; k++ {
			words[k].Start = lo + step*float64(k-i)
			words[k].End = words[k].Start + step
			words[k].Timed = true
		}
		i = j
	}
	return words
}

// scratchDir returns the directory backends may write intermediate output to.
func scratchDir(audio *ingest.Audio) string {
	if dir := audio.Dir(); dir != "" {
		return dir
	}
	return filepath.Dir(audio.Path)
}
