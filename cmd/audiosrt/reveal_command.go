package main

import (
	"github.com/spf13/cobra"
)

func newRevealCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "reveal <path>",
		Short:       "Show a file in the platform file manager",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.revealer.Reveal(args[0])
		},
	}
}
