package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"audiosrt/internal/config"
	"audiosrt/internal/ingest"
	"audiosrt/internal/logging"
	"audiosrt/internal/transcript"
)

// DefaultTimeout bounds a single transcription when none is configured.
const DefaultTimeout = 2 * time.Hour

// Adapter produces tokens for decoded audio using cached models.
type Adapter struct {
	cache   *Cache
	backend string
	timeout time.Duration
	logger  *slog.Logger
}

// NewAdapter wraps a backend loader.
func NewAdapter(loader Loader, timeout time.Duration, logger *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{
		cache:   NewCache(loader),
		backend: loader.Name(),
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "recognition"),
	}
}

// NewLoaderFromConfig selects the configured backend.
func NewLoaderFromConfig(cfg *config.Config, logger *slog.Logger) (Loader, error) {
	rc := cfg.Recognition
	switch rc.Backend {
	case "", "whisperx":
		return NewWhisperX(WhisperXOptions{
			UVXBinary:   rc.UVXBinary,
			Package:     rc.WhisperXPackage,
			Device:      rc.Device,
			ComputeType: rc.ComputeType,
			Language:    rc.Language,
			HFToken:     rc.HFToken,
			ToolLogDir:  cfg.ToolLogDir(),
			Logger:      logger,
		}), nil
	case "whispercpp":
		return NewWhisperCPP(WhisperCPPOptions{
			Binary:     rc.WhisperCPPBinary,
			ModelDir:   rc.ModelDir,
			Language:   rc.Language,
			ToolLogDir: cfg.ToolLogDir(),
			Logger:     logger,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported recognition backend %q", rc.Backend)
	}
}

// NewFromConfig builds an Adapter for the configured backend and timeout.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Adapter, error) {
	loader, err := NewLoaderFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewAdapter(loader, cfg.RecognitionTimeout(), logger), nil
}

// Backend names the loader in use.
func (a *Adapter) Backend() string { return a.backend }

// Cache exposes the model cache.
func (a *Adapter) Cache() *Cache { return a.cache }

// Transcribe returns ordered, non-overlapping tokens for audio. Silent audio
// yields an empty slice once the model is ready.
func (a *Adapter) Transcribe(ctx context.Context, audio *ingest.Audio, size ModelSize) ([]transcript.Token, error) {
	if audio == nil {
		return nil, fmt.Errorf("%w: no audio supplied", ErrTranscription)
	}
	logger := logging.WithContext(ctx, a.logger)

	loadStart := time.Now()
	cached := a.cache.Loaded(size)
	model, err := a.cache.Get(ctx, size)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, ErrModelLoad) {
			err = fmt.Errorf("%w: %w", ErrModelLoad, err)
		}
		return nil, err
	}
	if !cached {
		logger.Info("recognition model ready",
			logging.String("backend", a.backend),
			logging.String("model", size.ModelName()),
			logging.Duration("load_time", time.Since(loadStart)),
		)
	}

	if audio.Silent() {
		logger.Info("audio is silent, skipping inference",
			logging.Float64("audio_seconds", audio.DurationSeconds()),
		)
		return []transcript.Token{}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	words, err := model.Transcribe(runCtx, audio)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: exceeded %s limit: %w", ErrTranscription, a.timeout, context.DeadlineExceeded)
		}
		if !errors.Is(err, ErrTranscription) {
			err = fmt.Errorf("%w: %w", ErrTranscription, err)
		}
		return nil, err
	}

	tokens := normalizeTokens(words)
	logger.Info("transcription complete",
		logging.String("model", size.ModelName()),
		logging.Int("words", len(words)),
		logging.Int("tokens", len(tokens)),
		logging.Float64("audio_seconds", audio.DurationSeconds()),
		logging.Duration("elapsed", time.Since(start)),
	)
	return tokens, nil
}
