package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// Conversion holds the default cue constraints applied when a caller does not
// override them.
type Conversion struct {
	Model       string  `toml:"model"`
	MaxChars    int     `toml:"max_chars"`
	MaxDuration float64 `toml:"max_duration"`
	SilenceGap  float64 `toml:"silence_gap"`
	MinDuration float64 `toml:"min_duration"`
}

// Recognition selects and tunes the speech recognition backend.
type Recognition struct {
	Backend          string `toml:"backend"`
	UVXBinary        string `toml:"uvx_binary"`
	WhisperXPackage  string `toml:"whisperx_package"`
	WhisperCPPBinary string `toml:"whispercpp_binary"`
	ModelDir         string `toml:"model_dir"`
	Device           string `toml:"device"`
	ComputeType      string `toml:"compute_type"`
	Language         string `toml:"language"`
	HFToken          string `toml:"hf_token"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// Ingest controls audio decoding.
type Ingest struct {
	FFmpegBinary  string   `toml:"ffmpeg_binary"`
	FFprobeBinary string   `toml:"ffprobe_binary"`
	Extensions    []string `toml:"extensions"`
}

// Queue contains configuration for the persistent job queue workers.
type Queue struct {
	Workers             int `toml:"workers"`
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	MaxAttempts         int `toml:"max_attempts"`
	RetryBackoffSeconds int `toml:"retry_backoff_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for audiosrt.
//
// Configuration sections by subsystem:
//   - Paths: output, scratch, queue state and log directories
//   - Conversion: default model tier and cue constraints
//   - Recognition: speech recognition backend selection
//   - Ingest: ffmpeg/ffprobe binaries and accepted extensions
//   - Queue: worker pool sizing and retry policy
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Conversion  Conversion  `toml:"conversion"`
	Recognition Recognition `toml:"recognition"`
	Ingest      Ingest      `toml:"ingest"`
	Queue       Queue       `toml:"queue"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("audiosrt.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the scratch, state and log directories. The
// output directory is created lazily by the converter since it is optional.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath returns the location of the job queue database.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StateDir, "queue.db")
}

// QueueLockPath returns the lock file guarding a single queue runner.
func (c *Config) QueueLockPath() string {
	return filepath.Join(c.Paths.StateDir, "queue.lock")
}

// ToolLogDir returns the directory that collects external tool stderr output.
func (c *Config) ToolLogDir() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "tool")
}

// RecognitionTimeout returns the upper bound for one transcription run.
func (c *Config) RecognitionTimeout() time.Duration {
	return time.Duration(c.Recognition.TimeoutSeconds) * time.Second
}

// PollInterval returns the delay between queue polls when idle.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Queue.PollIntervalSeconds) * time.Second
}

// RetryBackoff returns the base delay before a transient failure is retried.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Queue.RetryBackoffSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
