package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reel/internal/daemon"
	"reel/internal/logging"
	"reel/internal/preflight"
	"reel/internal/queue"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon utilities",
	}

	daemonCmd.AddCommand(newDaemonRunCommand(ctx))
	return daemonCmd
}

// newDaemonRunCommand runs the daemon in the foreground, equivalent to the
// reeld binary but reachable from the CLI.
func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("prepare directories: %w", err)
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			if failed := preflight.Failures(preflight.Run(cfg)); len(failed) > 0 {
				for _, res := range failed {
					fmt.Fprintf(cmd.ErrOrStderr(), "preflight: %s: %s\n", res.Name, res.Detail)
				}
				return fmt.Errorf("%d preflight checks failed", len(failed))
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}

			d, err := daemon.New(cfg, store, logger)
			if err != nil {
				_ = store.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}

			<-signalCtx.Done()
			logger.Info("shutting down")
			return nil
		},
	}
}
