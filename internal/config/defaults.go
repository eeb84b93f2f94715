package config

const (
	defaultConfigPath         = "~/.config/audiosrt/config.toml"
	defaultWorkDir            = "~/.cache/audiosrt/work"
	defaultStateDir           = "~/.local/share/audiosrt"
	defaultLogDir             = "~/.local/share/audiosrt/logs"
	defaultModel              = "base"
	defaultMaxChars           = 50
	defaultMaxDuration        = 5.0
	defaultSilenceGap         = 0.5
	defaultMinDuration        = 0.8
	defaultBackend            = "whisperx"
	defaultUVXBinary          = "uvx"
	defaultWhisperXPackage    = "whisperx"
	defaultWhisperCPPBinary   = "whisper-cli"
	defaultModelDir           = "~/.local/share/audiosrt/models"
	defaultDevice             = "cpu"
	defaultComputeType        = "int8"
	defaultRecognitionTimeout = 7200
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultQueueWorkers       = 1
	defaultQueuePollInterval  = 5
	defaultQueueMaxAttempts   = 1
	defaultQueueRetryBackoff  = 30
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	maxQueueWorkers           = 16
	minCueChars               = 20
	maxCueChars               = 100
	minCueDuration            = 1.0
	maxCueDuration            = 10.0
)

// ModelSizes lists the accepted recognition model tiers, smallest first.
var ModelSizes = []string{"tiny", "base", "small", "medium", "large"}

// Backends lists the supported recognition backends.
var Backends = []string{"whisperx", "whispercpp"}

// DefaultExtensions is the accepted input extension allowlist.
var DefaultExtensions = []string{".mp3", ".wav", ".m4a", ".flac", ".ogg"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Conversion: Conversion{
			Model:       defaultModel,
			MaxChars:    defaultMaxChars,
			MaxDuration: defaultMaxDuration,
			SilenceGap:  defaultSilenceGap,
			MinDuration: defaultMinDuration,
		},
		Recognition: Recognition{
			Backend:          defaultBackend,
			UVXBinary:        defaultUVXBinary,
			WhisperXPackage:  defaultWhisperXPackage,
			WhisperCPPBinary: defaultWhisperCPPBinary,
			ModelDir:         defaultModelDir,
			Device:           defaultDevice,
			ComputeType:      defaultComputeType,
			TimeoutSeconds:   defaultRecognitionTimeout,
		},
		Ingest: Ingest{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Extensions:    append([]string(nil), DefaultExtensions...),
		},
		Queue: Queue{
			Workers:             defaultQueueWorkers,
			PollIntervalSeconds: defaultQueuePollInterval,
			MaxAttempts:         defaultQueueMaxAttempts,
			RetryBackoffSeconds: defaultQueueRetryBackoff,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
