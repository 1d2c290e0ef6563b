package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"reel/internal/api"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add FILE [FILE...]",
		Short: "Queue files for conversion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					absPath, err := filepath.Abs(arg)
					if err != nil {
						return fmt.Errorf("resolve %q: %w", arg, err)
					}
					queued, err := client.Enqueue(cmd.Context(), absPath)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued #%d %s -> %s\n", queued.TaskID, queued.Title, queued.CachePath)
				}
				return nil
			})
		},
	}
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the live queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Queue(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderQueueTable(resp.Items))
				fmt.Fprintf(out, "%d pending, %d processing, %d completed, %d failed (%d total)\n",
					resp.Counts.Pending, resp.Counts.Processing,
					resp.Counts.Completed, resp.Counts.Failed, resp.Counts.Total)
				return nil
			})
		},
	}

	queueCmd.AddCommand(newQueueClearCommand(ctx))
	return queueCmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all queue items (history is preserved)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.ClearQueue(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d queue items\n", resp.Removed)
				return nil
			})
		},
	}
}

func renderQueueTable(items []api.QueueItem) string {
	if len(items) == 0 {
		return "Queue is empty"
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			item.Title,
			filepath.Base(item.SourcePath),
			item.Status,
		})
	}
	return renderTable([]string{"ID", "Title", "Source", "Status"}, rows, 0)
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show processed conversions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.History(cmd.Context())
				if err != nil {
					return err
				}
				records := resp.Records
				if limit > 0 && len(records) > limit {
					records = records[:limit]
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderHistoryTable(records))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most N records")
	return cmd
}

func renderHistoryTable(records []api.HistoryRecord) string {
	if len(records) == 0 {
		return "No conversions recorded yet"
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		outcome := "failed"
		if rec.Success {
			outcome = "ok"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", rec.TaskID),
			rec.Title,
			filepath.Base(rec.SourcePath),
			outcome,
			rec.FinishedAt,
		})
	}
	return renderTable([]string{"Task", "Title", "Source", "Outcome", "Finished"}, rows, 0)
}
