package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reel/internal/api"
)

func newWorkersCommand(ctx *commandContext) *cobra.Command {
	workersCmd := &cobra.Command{
		Use:   "workers",
		Short: "Inspect and resize the worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Workers(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Target workers: %d\n", resp.TargetWorkers)
				fmt.Fprintln(out, renderWorkerTable(resp.Workers))
				return nil
			})
		},
	}

	workersCmd.AddCommand(newWorkersSetCommand(ctx))
	return workersCmd
}

func newWorkersSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set COUNT",
		Short: "Change the target worker count",
		Long: "Change the target worker count. The pool grows or shrinks on its next pass;\n" +
			"workers finishing a conversion retire only after completing it. Zero idles the pool.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid worker count %q", args[0])
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.SetTargetWorkers(cmd.Context(), target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Target workers set to %d\n", resp.Target)
				return nil
			})
		},
	}
}
