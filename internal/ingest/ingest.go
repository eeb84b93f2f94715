package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"audiosrt/internal/config"
	"audiosrt/internal/logging"
	"audiosrt/internal/media/ffprobe"
)

// Decoder output format.
const (
	SampleRate = 16000
	Channels   = 1
	BitDepth   = 16

	decodedName = "audio.wav"
)

var (
	// ErrFileNotFound reports an input path that does not resolve to a file.
	ErrFileNotFound = errors.New("file not found")
	// ErrUnsupportedFormat reports inputs that cannot be decoded as audio.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrCorruptAudio reports inputs whose decode yields no usable samples.
	ErrCorruptAudio = errors.New("corrupt audio")
)

// CommandRunner executes an external tool and returns its stderr output.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// Prober inspects a media file.
type Prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Options configures an Ingestor.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	WorkDir       string
	Extensions    []string
	Logger        *slog.Logger
}

// Ingestor decodes audio files into normalized PCM.
type Ingestor struct {
	ffmpegBinary  string
	ffprobeBinary string
	workDir       string
	extensions    []string
	logger        *slog.Logger
	run           CommandRunner
	probe         Prober
}

// New constructs an Ingestor.
func New(opts Options) *Ingestor {
	exts := make([]string, 0, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		if ext = strings.ToLower(strings.TrimSpace(ext)); ext != "" {
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		exts = append(exts, config.DefaultExtensions...)
	}
	ffmpeg := strings.TrimSpace(opts.FFmpegBinary)
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &Ingestor{
		ffmpegBinary:  ffmpeg,
		ffprobeBinary: strings.TrimSpace(opts.FFprobeBinary),
		workDir:       opts.WorkDir,
		extensions:    exts,
		logger:        logging.NewComponentLogger(opts.Logger, "ingest"),
		run:           defaultCommandRunner,
		probe:         ffprobe.Inspect,
	}
}

// NewFromConfig builds an Ingestor from application configuration.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Ingestor {
	return New(Options{
		FFmpegBinary:  cfg.Ingest.FFmpegBinary,
		FFprobeBinary: cfg.Ingest.FFprobeBinary,
		WorkDir:       cfg.Paths.WorkDir,
		Extensions:    cfg.Ingest.Extensions,
		Logger:        logger,
	})
}

// WithCommandRunner swaps the ffmpeg runner (for testing).
func (i *Ingestor) WithCommandRunner(run CommandRunner) *Ingestor {
	if run != nil {
		i.run = run
	}
	return i
}

// WithProber swaps the ffprobe inspection (for testing).
func (i *Ingestor) WithProber(probe Prober) *Ingestor {
	if probe != nil {
		i.probe = probe
	}
	return i
}

// Supported reports whether the path carries an accepted extension.
func (i *Ingestor) Supported(path string) bool {
	return slices.Contains(i.extensions, strings.ToLower(filepath.Ext(path)))
}

// Extensions returns the accepted extensions.
func (i *Ingestor) Extensions() []string {
	return append([]string(nil), i.extensions...)
}

// Ingest decodes path into a mono 16 kHz WAV in a fresh scratch directory.
func (i *Ingestor) Ingest(ctx context.Context, path string) (*Audio, error) {
	logger := logging.WithContext(ctx, i.logger)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrFileNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	if !i.Supported(path) {
		ext := filepath.Ext(path)
		if ext == "" {
			ext = "(none)"
		}
		return nil, fmt.Errorf("%w: extension %s is not one of %s", ErrUnsupportedFormat, ext, strings.Join(i.extensions, ", "))
	}

	probe, err := i.probe(ctx, i.ffprobeBinary, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s cannot be read as media: %w", ErrUnsupportedFormat, filepath.Base(path), err)
	}
	stream, ok := probe.PrimaryAudio()
	if !ok {
		return nil, fmt.Errorf("%w: %s has no audio stream", ErrUnsupportedFormat, filepath.Base(path))
	}

	if err := os.MkdirAll(i.workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	scratch, err := os.MkdirTemp(i.workDir, "ingest-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	audio := &Audio{Source: path, Path: filepath.Join(scratch, decodedName), Codec: stream.CodecName, dir: scratch}

	logger.Debug("decoding audio",
		logging.String("source_file", path),
		logging.String("codec", stream.CodecName),
		logging.Int("source_channels", stream.Channels),
		logging.Int("source_sample_rate", stream.SampleRateHz()),
	)
	start := time.Now()
	if stderr, err := i.run(ctx, i.ffmpegBinary, decodeArgs(path, audio.Path)...); err != nil {
		_ = audio.Cleanup()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: ffmpeg could not decode %s: %w%s", ErrCorruptAudio, filepath.Base(path), err, stderrSuffix(stderr))
	}

	header, err := inspectWAV(audio.Path)
	if err != nil {
		_ = audio.Cleanup()
		return nil, fmt.Errorf("%w: %w", ErrCorruptAudio, err)
	}
	if header.samples == 0 {
		_ = audio.Cleanup()
		return nil, fmt.Errorf("%w: %s decoded to zero samples", ErrCorruptAudio, filepath.Base(path))
	}
	audio.SampleRate = header.sampleRate
	audio.Channels = header.channels
	audio.Samples = header.samples
	audio.Peak = header.peak

	logger.Info("audio decoded",
		logging.String("source_file", path),
		logging.Float64("duration_seconds", audio.DurationSeconds()),
		logging.Int64("samples", audio.Samples),
		logging.Bool("silent", audio.Silent()),
		logging.Duration("elapsed", time.Since(start)),
	)
	return audio, nil
}

func decodeArgs(source, destination string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", fmt.Sprint(Channels),
		"-ar", fmt.Sprint(SampleRate),
		"-c:a", "pcm_s16le",
		destination,
	}
}

func stderrSuffix(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	if len(stderr) > 400 {
		stderr = stderr[len(stderr)-400:]
	}
	return ": " + stderr
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}
