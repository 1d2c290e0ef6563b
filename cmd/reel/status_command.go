package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"reel/internal/api"
)

const (
	ansiReset = "\x1b[0m"
	ansiBlue  = "\x1b[34m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, queue, and worker status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				writeHeader(out, "Daemon", colorize)
				fmt.Fprintf(out, "  Running:        %s\n", yesNo(status.Running))
				fmt.Fprintf(out, "  PID:            %d\n", status.PID)
				fmt.Fprintf(out, "  Target workers: %d\n", status.TargetWorkers)
				fmt.Fprintf(out, "  Queue database: %s\n", status.QueueDBPath)

				writeHeader(out, "Queue", colorize)
				fmt.Fprintln(out, renderTable(
					[]string{"Pending", "Processing", "Completed", "Failed", "Total"},
					[][]string{{
						fmt.Sprintf("%d", status.Queue.Pending),
						fmt.Sprintf("%d", status.Queue.Processing),
						fmt.Sprintf("%d", status.Queue.Completed),
						fmt.Sprintf("%d", status.Queue.Failed),
						fmt.Sprintf("%d", status.Queue.Total),
					}},
					0, 1, 2, 3, 4,
				))

				writeHeader(out, "Workers", colorize)
				fmt.Fprintln(out, renderWorkerTable(status.Workers))

				if failed := failedChecks(status.Checks); len(failed) > 0 {
					writeHeader(out, "Checks", colorize)
					for _, check := range failed {
						fmt.Fprintf(out, "  FAIL %s: %s\n", check.Name, check.Detail)
					}
				}
				return nil
			})
		},
	}
}

func failedChecks(checks []api.CheckResult) []api.CheckResult {
	var failed []api.CheckResult
	for _, check := range checks {
		if !check.Passed {
			failed = append(failed, check)
		}
	}
	return failed
}

func renderWorkerTable(workers []api.WorkerStatus) string {
	if len(workers) == 0 {
		return "  (no workers running)"
	}
	rows := make([][]string, 0, len(workers))
	for _, w := range workers {
		rows = append(rows, []string{
			fmt.Sprintf("%d", w.ID),
			w.Name,
			workerState(w),
			w.CurrentFile,
			workerProgress(w),
		})
	}
	return renderTable([]string{"ID", "Name", "State", "File", "Progress"}, rows, 0, 4)
}

func workerState(w api.WorkerStatus) string {
	if w.Idle {
		return "idle"
	}
	return "converting"
}

func workerProgress(w api.WorkerStatus) string {
	if w.Progress == nil {
		return ""
	}
	parts := []string{fmt.Sprintf("%.1f%%", w.Progress.Percent)}
	if w.Progress.FPS > 0 {
		parts = append(parts, fmt.Sprintf("%.0f fps", w.Progress.FPS))
	}
	if w.Progress.Speed > 0 {
		parts = append(parts, fmt.Sprintf("%.2fx", w.Progress.Speed))
	}
	return strings.Join(parts, " @ ")
}

func writeHeader(out io.Writer, title string, colorize bool) {
	line := fmt.Sprintf("== %s ==", title)
	if colorize {
		line = ansiBlue + line + ansiReset
	}
	fmt.Fprintln(out, line)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
