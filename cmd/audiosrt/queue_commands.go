package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"audiosrt/internal/queue"
	"audiosrt/internal/workflow"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the persistent conversion queue",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRunCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var flags optionFlags

	cmd := &cobra.Command{
		Use:   "add <files...>",
		Short: "Queue audio files for conversion",
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
			return ctx.withStore(func(store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, path := range args {
					job, err := store.Add(cmd.Context(), queue.Spec{
						SourcePath:  path,
						Model:       opts.ModelSize,
						MaxChars:    opts.MaxChars,
						MaxDuration: opts.MaxDuration,
						OutputDir:   opts.OutputDir,
					})
					if errors.Is(err, queue.ErrDuplicate) {
						fmt.Fprintf(out, "Skipped %s: already queued as job #%d (%s)\n", job.SourcePath, job.ID, job.Status)
						continue
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued job #%d: %s\n", job.ID, job.SourcePath)
				}
				return nil
			})
		},
	}

	flags.register(cmd.Flags(), "o")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(listStatuses))
			for _, value := range listStatuses {
				status, err := queue.ParseStatus(value)
				if err != nil {
					return err
				}
				statuses = append(statuses, status)
			}
			return ctx.withStore(func(store *queue.Store) error {
				jobs, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, buildJobViews(jobs))
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Source", "Status", "Model", "Attempts", "Result"},
					buildQueueListRows(jobs),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show job counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				if health.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Status", "Count"},
					buildQueueStatusRows(health),
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [ids...]",
		Short: "Return failed jobs to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid job id %q", arg)
				}
				ids = append(ids, id)
			}
			return ctx.withStore(func(store *queue.Store) error {
				count, err := store.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed jobs\n", count)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove jobs that are not being processed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				out := cmd.OutOrStdout()
				if completedOnly {
					removed, err := store.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d completed jobs\n", removed)
					return nil
				}
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d jobs\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completedOnly, "completed", false, "Only remove completed jobs")
	return cmd
}

func newQueueRunCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var drain bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process queued jobs with the worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := checkReadiness(cmd.Context(), cfg); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			conv, err := ctx.converter()
			if err != nil {
				return fmt.Errorf("initialize converter: %w", err)
			}
			return ctx.withStore(func(store *queue.Store) error {
				pool := workflow.NewPool(cfg, store, conv, logger).WithWorkers(workers)
				summary, err := pool.Run(cmd.Context(), drain)
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %d, failed %d, retried %d\n",
					summary.Completed, summary.Failed, summary.Retried)
				return err
			})
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker count (default from queue.workers)")
	cmd.Flags().BoolVar(&drain, "drain", false, "Exit once no pending jobs remain")
	return cmd
}
