package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateConversion() error {
	if !slices.Contains(ModelSizes, c.Conversion.Model) {
		return fmt.Errorf("conversion.model must be one of %s", strings.Join(ModelSizes, ", "))
	}
	if c.Conversion.MaxChars < minCueChars || c.Conversion.MaxChars > maxCueChars {
		return fmt.Errorf("conversion.max_chars must be between %d and %d", minCueChars, maxCueChars)
	}
	if c.Conversion.MaxDuration < minCueDuration || c.Conversion.MaxDuration > maxCueDuration {
		return fmt.Errorf("conversion.max_duration must be between %.1f and %.1f", minCueDuration, maxCueDuration)
	}
	if c.Conversion.SilenceGap <= 0 {
		return errors.New("conversion.silence_gap must be positive")
	}
	if c.Conversion.MinDuration < 0 {
		return errors.New("conversion.min_duration must be non-negative")
	}
	return nil
}

func (c *Config) validateRecognition() error {
	if !slices.Contains(Backends, c.Recognition.Backend) {
		return fmt.Errorf("recognition.backend must be one of %s", strings.Join(Backends, ", "))
	}
	if c.Recognition.TimeoutSeconds <= 0 {
		return errors.New("recognition.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.Workers < 1 || c.Queue.Workers > maxQueueWorkers {
		return fmt.Errorf("queue.workers must be between 1 and %d", maxQueueWorkers)
	}
	if c.Queue.PollIntervalSeconds <= 0 {
		return errors.New("queue.poll_interval_seconds must be positive")
	}
	if c.Queue.MaxAttempts < 1 {
		return errors.New("queue.max_attempts must be at least 1")
	}
	if c.Queue.RetryBackoffSeconds < 0 {
		return errors.New("queue.retry_backoff_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
