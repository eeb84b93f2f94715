package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"audiosrt/internal/config"
	"audiosrt/internal/deps"
	"audiosrt/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and directory access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			statuses := preflight.CheckSystemDeps(cfg)
			fmt.Fprint(out, renderTable(
				[]string{"Dependency", "Command", "Available", "Detail"},
				buildDepRows(statuses),
				nil,
			))
			results := preflight.RunAll(cmd.Context(), cfg)
			fmt.Fprint(out, renderTable(
				[]string{"Check", "Passed", "Detail"},
				buildCheckRows(results),
				nil,
			))
			return readinessError(statuses, results)
		},
	}
}

func buildDepRows(statuses []deps.Status) [][]string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		detail := s.Detail
		if s.Available {
			detail = s.Path
		}
		name := s.Name
		if s.Optional {
			name += " (optional)"
		}
		rows = append(rows, []string{name, s.Command, yesNo(s.Available), detail})
	}
	return rows
}

func buildCheckRows(results []preflight.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Name, yesNo(r.Passed), r.Detail})
	}
	return rows
}

func readinessError(statuses []deps.Status, results []preflight.Result) error {
	var problems []string
	for _, s := range deps.MissingRequired(statuses) {
		problems = append(problems, fmt.Sprintf("%s: %s", s.Name, s.Detail))
	}
	for _, r := range preflight.Failed(results) {
		problems = append(problems, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.New("not ready: " + strings.Join(problems, "; "))
}

// checkReadiness runs the same checks as the deps command without output.
func checkReadiness(ctx context.Context, cfg *config.Config) error {
	return readinessError(preflight.CheckSystemDeps(cfg), preflight.RunAll(ctx, cfg))
}
