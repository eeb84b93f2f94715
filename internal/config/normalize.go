package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConversion()
	if err := c.normalizeRecognition(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeConversion() {
	c.Conversion.Model = strings.ToLower(strings.TrimSpace(c.Conversion.Model))
	if c.Conversion.Model == "" {
		c.Conversion.Model = defaultModel
	}
}

func (c *Config) normalizeRecognition() error {
	c.Recognition.Backend = strings.ToLower(strings.TrimSpace(c.Recognition.Backend))
	if c.Recognition.Backend == "" {
		c.Recognition.Backend = defaultBackend
	}
	c.Recognition.UVXBinary = strings.TrimSpace(c.Recognition.UVXBinary)
	if c.Recognition.UVXBinary == "" {
		c.Recognition.UVXBinary = defaultUVXBinary
	}
	c.Recognition.WhisperXPackage = strings.TrimSpace(c.Recognition.WhisperXPackage)
	if c.Recognition.WhisperXPackage == "" {
		c.Recognition.WhisperXPackage = defaultWhisperXPackage
	}
	c.Recognition.WhisperCPPBinary = strings.TrimSpace(c.Recognition.WhisperCPPBinary)
	if c.Recognition.WhisperCPPBinary == "" {
		c.Recognition.WhisperCPPBinary = defaultWhisperCPPBinary
	}
	if value, ok := os.LookupEnv("AUDIOSRT_MODEL_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Recognition.ModelDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Recognition.ModelDir) == "" {
		c.Recognition.ModelDir = defaultModelDir
	}
	var err error
	if c.Recognition.ModelDir, err = expandPath(c.Recognition.ModelDir); err != nil {
		return fmt.Errorf("recognition.model_dir: %w", err)
	}
	c.Recognition.Device = strings.ToLower(strings.TrimSpace(c.Recognition.Device))
	if c.Recognition.Device == "" {
		c.Recognition.Device = defaultDevice
	}
	c.Recognition.ComputeType = strings.ToLower(strings.TrimSpace(c.Recognition.ComputeType))
	if c.Recognition.ComputeType == "" {
		c.Recognition.ComputeType = defaultComputeType
	}
	c.Recognition.Language = strings.ToLower(strings.TrimSpace(c.Recognition.Language))
	c.Recognition.HFToken = strings.TrimSpace(c.Recognition.HFToken)
	if c.Recognition.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Recognition.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Recognition.HFToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeIngest() {
	c.Ingest.FFmpegBinary = strings.TrimSpace(c.Ingest.FFmpegBinary)
	if c.Ingest.FFmpegBinary == "" {
		c.Ingest.FFmpegBinary = defaultFFmpegBinary
	}
	c.Ingest.FFprobeBinary = strings.TrimSpace(c.Ingest.FFprobeBinary)
	if c.Ingest.FFprobeBinary == "" {
		c.Ingest.FFprobeBinary = defaultFFprobeBinary
	}
	seen := make(map[string]struct{}, len(c.Ingest.Extensions))
	exts := make([]string, 0, len(c.Ingest.Extensions))
	for _, ext := range c.Ingest.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, DefaultExtensions...)
	}
	c.Ingest.Extensions = exts
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
