package convert

import (
	"fmt"
	"math"
	"strings"

	"audiosrt/internal/config"
	"audiosrt/internal/recognition"
	"audiosrt/internal/segment"
)

// Cue limit bounds accepted by Validate.
const (
	MinMaxChars    = 20
	MaxMaxChars    = 100
	MinMaxDuration = 1.0
	MaxMaxDuration = 10.0
)

// Options carries the per-conversion settings.
type Options struct {
	ModelSize   string
	MaxChars    int
	MaxDuration float64
	// OutputDir overrides where the .srt is written; empty means next to
	// the input.
	OutputDir string
	// OutputFile names the .srt for a single conversion and takes
	// precedence over OutputDir.
	OutputFile string
	// SilenceGap and MinDuration fall back to segment defaults when zero.
	SilenceGap  float64
	MinDuration float64
}

// OptionsFromConfig derives conversion options from application settings.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ModelSize:   cfg.Conversion.Model,
		MaxChars:    cfg.Conversion.MaxChars,
		MaxDuration: cfg.Conversion.MaxDuration,
		OutputDir:   cfg.Paths.OutputDir,
		SilenceGap:  cfg.Conversion.SilenceGap,
		MinDuration: cfg.Conversion.MinDuration,
	}
}

// Validate checks the options, returning a ConfigError on the first problem.
func (o Options) Validate() error {
	if _, err := recognition.ParseModelSize(o.ModelSize); err != nil {
		return configError(err)
	}
	if o.MaxChars < MinMaxChars || o.MaxChars > MaxMaxChars {
		return configError(fmt.Errorf("max chars %d outside %d..%d", o.MaxChars, MinMaxChars, MaxMaxChars))
	}
	if math.IsNaN(o.MaxDuration) || o.MaxDuration < MinMaxDuration || o.MaxDuration > MaxMaxDuration {
		return configError(fmt.Errorf("max duration %g outside %g..%g seconds", o.MaxDuration, MinMaxDuration, MaxMaxDuration))
	}
	if o.SilenceGap < 0 || o.MinDuration < 0 || math.IsNaN(o.SilenceGap) || math.IsNaN(o.MinDuration) {
		return configError(fmt.Errorf("silence gap and min duration must not be negative"))
	}
	return nil
}

// Destination returns where the subtitle for input is written.
func (o Options) Destination(input string) string {
	if file := strings.TrimSpace(o.OutputFile); file != "" {
		return file
	}
	return OutputPath(input, o.OutputDir)
}

func (o Options) segmentOptions() segment.Options {
	opts := segment.DefaultOptions(o.MaxChars, o.MaxDuration)
	if o.SilenceGap > 0 {
		opts.SilenceGap = o.SilenceGap
	}
	if o.MinDuration > 0 {
		opts.MinDuration = o.MinDuration
	}
	return opts
}

func configError(err error) *Error {
	return newError(ConfigError, StageValidate, "", err)
}
