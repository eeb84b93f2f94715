package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var flags optionFlags
	var revealOutput bool

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Transcribe one audio file into an .srt next to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := flags.resolve(cmd, cfg)
			if err != nil {
				printHint(cmd, err)
				return err
			}
			conv, err := ctx.converter()
			if err != nil {
				return fmt.Errorf("initialize converter: %w", err)
			}

			result, err := conv.Run(cmd.Context(), args[0], opts)
			if err != nil {
				printHint(cmd, err)
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated subtitle: %s\n", result.OutputPath)
			if revealOutput {
				if err := ctx.revealer.Reveal(result.OutputPath); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warn: %v\n", err)
				}
			}
			return nil
		},
	}

	flags.register(cmd.Flags(), "")
	cmd.Flags().StringVarP(&flags.outputFile, "output", "o", "", "Write the subtitle to this file instead of <name>.srt")
	cmd.MarkFlagsMutuallyExclusive("output", "output-dir")
	cmd.Flags().BoolVar(&revealOutput, "reveal", false, "Show the generated file in the file manager")
	return cmd
}
