package engine

import (
	"context"

	"reel/internal/task"
)

// Engine describes the conversion behaviour the worker pool depends on.
//
// GenerateParameters returns the argument list for converting the task's
// source. An empty list means the source already satisfies the target and no
// conversion is needed. Convert runs the conversion and reports live progress
// through the callback; the boolean result is the task's terminal outcome.
type Engine interface {
	GenerateParameters(ctx context.Context, t *task.Task) ([]string, error)
	Convert(ctx context.Context, source, destination string, params []string, progress func(task.Progress)) (bool, error)
}
