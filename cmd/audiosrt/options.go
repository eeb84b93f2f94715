package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"audiosrt/internal/config"
	"audiosrt/internal/convert"
)

// optionFlags are the per-conversion overrides shared by convert, batch and
// queue add. Unset flags fall back to the [conversion] config section.
type optionFlags struct {
	model       string
	maxChars    int
	maxDuration float64
	outputDir   string
	outputFile  string
}

// register adds the shared flags. dirShorthand is the one-letter alias for
// --output-dir; convert leaves it empty because -o names its output file.
func (o *optionFlags) register(flags *pflag.FlagSet, dirShorthand string) {
	flags.StringVarP(&o.model, "model", "m", "", "Model size: tiny, base, small, medium or large")
	flags.IntVar(&o.maxChars, "max-chars", 0, "Maximum characters per cue (20-100)")
	flags.Float64Var(&o.maxDuration, "max-duration", 0, "Maximum cue duration in seconds (1-10)")
	flags.StringVarP(&o.outputDir, "output-dir", dirShorthand, "", "Directory for generated .srt files (default: next to the input)")
}

func (o *optionFlags) resolve(cmd *cobra.Command, cfg *config.Config) (convert.Options, error) {
	opts := convert.OptionsFromConfig(cfg)
	flags := cmd.Flags()
	if flags.Changed("model") {
		opts.ModelSize = strings.ToLower(strings.TrimSpace(o.model))
	}
	if flags.Changed("max-chars") {
		opts.MaxChars = o.maxChars
	}
	if flags.Changed("max-duration") {
		opts.MaxDuration = o.maxDuration
	}
	if flags.Changed("output-dir") {
		dir, err := config.ExpandPath(strings.TrimSpace(o.outputDir))
		if err != nil {
			return opts, fmt.Errorf("resolve output dir: %w", err)
		}
		opts.OutputDir = dir
	}
	if flags.Changed("output") {
		file, err := config.ExpandPath(strings.TrimSpace(o.outputFile))
		if err != nil {
			return opts, fmt.Errorf("resolve output file: %w", err)
		}
		opts.OutputFile = file
	}
	return opts, opts.Validate()
}

// printHint writes the operator hint for conversion failures to stderr.
func printHint(cmd *cobra.Command, err error) {
	if hint := convert.KindOf(err).Hint(); hint != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Hint: %s\n", hint)
	}
}
