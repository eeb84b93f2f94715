package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"audiosrt/internal/config"
	"audiosrt/internal/fileutil"
	"audiosrt/internal/ingest"
	"audiosrt/internal/logging"
	"audiosrt/internal/recognition"
	"audiosrt/internal/segment"
	"audiosrt/internal/services"
	"audiosrt/internal/srt"
	"audiosrt/internal/transcript"
)

// Ingestor decodes an input file into PCM audio.
type Ingestor interface {
	Ingest(ctx context.Context, path string) (*ingest.Audio, error)
}

// Transcriber produces timed tokens for decoded audio.
type Transcriber interface {
	Transcribe(ctx context.Context, audio *ingest.Audio, size recognition.ModelSize) ([]transcript.Token, error)
}

// Result describes a successful conversion.
type Result struct {
	OutputPath    string
	CorrelationID string
	AudioSeconds  float64
	Tokens        int
	Cues          int
	Segmentation  segment.Stats
	Elapsed       time.Duration
}

// Converter runs ingest, recognition, segmentation, encoding and the atomic
// write for one file at a time. It is safe for concurrent use.
type Converter struct {
	ingestor    Ingestor
	transcriber Transcriber
	logger      *slog.Logger
}

// New assembles a Converter.
func New(ingestor Ingestor, transcriber Transcriber, logger *slog.Logger) *Converter {
	return &Converter{
		ingestor:    ingestor,
		transcriber: transcriber,
		logger:      logging.NewComponentLogger(logger, "convert"),
	}
}

// NewFromConfig wires the ffmpeg ingestor and configured recognition backend.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Converter, error) {
	adapter, err := recognition.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	return New(ingest.NewFromConfig(cfg, logger), adapter, logger), nil
}

// OutputPath returns where the subtitle for input is written.
func OutputPath(input, outputDir string) string {
	dir := strings.TrimSpace(outputDir)
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+".srt")
}

// Convert writes an .srt next to the input (or at opts.Destination) and
// returns its path.
func (c *Converter) Convert(ctx context.Context, path string, opts Options) (string, error) {
	result, err := c.Run(ctx, path, opts)
	if err != nil {
		return "", err
	}
	return result.OutputPath, nil
}

// Run converts one file and reports pipeline statistics. Every error is an
// *Error.
func (c *Converter) Run(ctx context.Context, path string, opts Options) (Result, error) {
	var result Result
	start := time.Now()

	if err := opts.Validate(); err != nil {
		return result, err
	}
	size, _ := recognition.ParseModelSize(opts.ModelSize)

	correlationID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		correlationID = uuid.NewString()
		ctx = services.WithRequestID(ctx, correlationID)
	}
	result.CorrelationID = correlationID
	logger := logging.WithContext(ctx, c.logger)
	outputPath := opts.Destination(path)

	logger.Info("conversion started",
		logging.String(logging.FieldEventType, "conversion_start"),
		logging.String("source_file", path),
		logging.String("output_file", outputPath),
		logging.String("model", size.String()),
		logging.Int("max_chars", opts.MaxChars),
		logging.Float64("max_duration", opts.MaxDuration),
	)

	fail := func(err *Error) (Result, error) {
		attrs := []logging.Attr{
			logging.String(logging.FieldErrorKind, string(err.Kind)),
			logging.String(logging.FieldStage, string(err.Stage)),
			logging.String("source_file", path),
			logging.Error(err),
		}
		if err.Kind == Canceled {
			logger.Info("conversion canceled", logging.Args(attrs...)...)
			return result, err
		}
		if hint := err.Kind.Hint(); hint != "" {
			attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
		}
		logging.ErrorWithContext(logger, "conversion failed", "conversion_failed", attrs...)
		return result, err
	}

	var audio *ingest.Audio
	defer func() {
		if err := audio.Cleanup(); err != nil {
			logger.Warn("scratch cleanup failed", logging.Error(err))
		}
	}()
	if err := c.stage(ctx, StageIngest, path, func(ctx context.Context) error {
		var err error
		audio, err = c.ingestor.Ingest(ctx, path)
		return err
	}); err != nil {
		return fail(err)
	}
	result.AudioSeconds = audio.DurationSeconds()

	var tokens []transcript.Token
	if err := c.stage(ctx, StageTranscribe, path, func(ctx context.Context) error {
		var err error
		tokens, err = c.transcriber.Transcribe(ctx, audio, size)
		return err
	}); err != nil {
		return fail(err)
	}
	result.Tokens = len(tokens)

	var cues []transcript.Cue
	if err := c.stage(ctx, StageSegment, path, func(context.Context) error {
		cues, result.Segmentation = segment.SegmentWithStats(tokens, opts.segmentOptions())
		return nil
	}); err != nil {
		return fail(err)
	}
	result.Cues = len(cues)

	var encoded string
	if err := c.stage(ctx, StageEncode, path, func(context.Context) error {
		var err error
		encoded, err = srt.Encode(cues)
		return err
	}); err != nil {
		return fail(err)
	}

	if err := c.stage(ctx, StageWrite, path, func(context.Context) error {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		return fileutil.WriteFileAtomic(outputPath, []byte(encoded), 0o644)
	}); err != nil {
		return fail(err)
	}

	result.OutputPath = outputPath
	result.Elapsed = time.Since(start)
	logger.Info("conversion completed",
		logging.String(logging.FieldEventType, "conversion_complete"),
		logging.String("output_file", outputPath),
		logging.Float64("audio_seconds", result.AudioSeconds),
		logging.Int("tokens", result.Tokens),
		logging.Int("cues", result.Cues),
		logging.Int("silence_breaks", result.Segmentation.SilenceBreaks),
		logging.Int("oversized_cues", result.Segmentation.Oversized),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// stage runs fn after a cancellation check and classifies its failure.
func (c *Converter) stage(ctx context.Context, stage Stage, path string, fn func(context.Context) error) *Error {
	if err := ctx.Err(); err != nil {
		return newError(Canceled, stage, path, err)
	}
	ctx = services.WithStage(ctx, string(stage))
	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	start := time.Now()
	if err := fn(ctx); err != nil {
		return classify(stage, path, err)
	}
	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("duration", time.Since(start)),
	)
	return nil
}

var (
	sharedMu        sync.Mutex
	sharedConverter *Converter
)

// ConvertAudioToSRT converts filePath with the default configuration and the
// given limits, returning the subtitle path. The underlying converter, and
// with it the model cache, is shared across calls.
func ConvertAudioToSRT(ctx context.Context, filePath, modelSize string, maxChars int, maxDuration float64) (string, error) {
	conv, err := defaultConverter()
	if err != nil {
		return "", err
	}
	return conv.Convert(ctx, filePath, Options{
		ModelSize:   modelSize,
		MaxChars:    maxChars,
		MaxDuration: maxDuration,
	})
}

// defaultConverter returns the shared converter, building it on first
// success. A failed build is not remembered.
func defaultConverter() (*Converter, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedConverter != nil {
		return sharedConverter, nil
	}
	conv, err := converterFromConfigPath("")
	if err != nil {
		return nil, err
	}
	sharedConverter = conv
	return conv, nil
}

func converterFromConfigPath(path string) (*Converter, error) {
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, newError(ConfigError, StageValidate, "", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, newError(WriteError, StageValidate, "", err)
	}
	conv, err := NewFromConfig(cfg, logging.NewNop())
	if err != nil {
		return nil, newError(ConfigError, StageValidate, "", err)
	}
	return conv, nil
}
