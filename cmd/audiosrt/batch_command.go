package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"audiosrt/internal/convert"
	"audiosrt/internal/ingest"
	"audiosrt/internal/workflow"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var flags optionFlags
	var workers int
	var recursive bool

	cmd := &cobra.Command{
		Use:   "batch <dir|files...>",
		Short: "Convert every supported audio file in directories or a file list",
		Args:  cobra.MinimumNArgs(1),
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
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			supported := ingest.NewFromConfig(cfg, logger).Supported
			paths, err := collectInputs(args, recursive, supported)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return errors.New("no supported audio files found")
			}

			conv, err := ctx.converter()
			if err != nil {
				return fmt.Errorf("initialize converter: %w", err)
			}

			results := workflow.RunBatch(cmd.Context(), conv, paths, opts, workers, logger)
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable(
				[]string{"File", "Status", "Cues", "Output"},
				buildBatchRows(results),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))

			failed := 0
			for _, r := range results {
				if !r.Succeeded() {
					failed++
				}
			}
			fmt.Fprintf(out, "Converted %d of %d files (%d failed)\n", len(results)-failed, len(results), failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}

	flags.register(cmd.Flags(), "o")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of files converted concurrently")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	return cmd
}

// collectInputs expands directory arguments into the supported files they
// contain. File arguments pass through unfiltered so unsupported or missing
// files show up as failures.
func collectInputs(args []string, recursive bool, supported func(string) bool) ([]string, error) {
	var paths []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			add(arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && !recursive {
					return fs.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && supported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", arg, err)
		}
		slices.Sort(found)
		for _, path := range found {
			add(path)
		}
	}
	return paths, nil
}

func buildBatchRows(results []workflow.BatchResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r.Succeeded() {
			rows = append(rows, []string{
				filepath.Base(r.Source),
				"ok",
				strconv.Itoa(r.Result.Cues),
				r.Result.OutputPath,
			})
			continue
		}
		status := string(convert.KindOf(r.Err))
		if status == "" {
			status = "failed"
		}
		rows = append(rows, []string{filepath.Base(r.Source), status, "", r.Err.Error()})
	}
	return rows
}
