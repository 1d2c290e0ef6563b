package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"reel/internal/engine"
	"reel/internal/logging"
	"reel/internal/task"
)

// Worker is a single execution unit. It polls the handoff slot for work,
// runs conversions to completion, and pushes every claimed task to the
// completions queue exactly once, successful or not.
type Worker struct {
	id           int
	name         string
	handoff      *Handoff
	completions  *Completions
	engine       engine.Engine
	logger       *slog.Logger
	pollInterval time.Duration

	idle    atomic.Bool
	current atomic.Pointer[task.Task]

	retire     chan struct{}
	retireOnce sync.Once
	done       chan struct{}
}

func newWorker(id int, handoff *Handoff, completions *Completions, eng engine.Engine, logger *slog.Logger, pollInterval time.Duration) *Worker {
	name := fmt.Sprintf("worker-%d", id)
	w := &Worker{
		id:           id,
		name:         name,
		handoff:      handoff,
		completions:  completions,
		engine:       eng,
		logger:       logger.With(logging.Int(logging.FieldWorkerID, id)),
		pollInterval: pollInterval,
		retire:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	w.idle.Store(true)
	return w
}

func (w *Worker) ID() int      { return w.id }
func (w *Worker) Name() string { return w.name }

// Idle reports whether the worker is currently between tasks.
func (w *Worker) Idle() bool { return w.idle.Load() }

// SignalRetire asks the worker to exit after its current task, if any.
// Retirement is one-shot and irreversible.
func (w *Worker) SignalRetire() {
	w.retireOnce.Do(func() { close(w.retire) })
}

// Retiring reports whether retirement has been signaled.
func (w *Worker) Retiring() bool {
	select {
	case <-w.retire:
		return true
	default:
		return false
	}
}

// Alive reports whether the worker's run loop is still executing.
func (w *Worker) Alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Status snapshots the worker's externally visible state. Progress and the
// current file are populated only while a task is owned.
func (w *Worker) Status() WorkerStatus {
	st := WorkerStatus{
		ID:   w.id,
		Name: w.name,
		Idle: w.idle.Load(),
	}
	if t := w.current.Load(); t != nil {
		p := t.ProgressSnapshot()
		st.RunID = t.RunID
		st.CurrentFile = t.SourceBasename()
		st.Progress = &p
	}
	return st
}

// Run executes the worker loop until retirement is signaled or the context is
// canceled. A task claimed before either signal is always finished first.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	w.logger.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping", logging.String("reason", "context canceled"))
			return
		case <-w.retire:
			w.logger.Info("worker retired")
			return
		default:
		}

		t, ok := w.handoff.TryTake()
		if !ok {
			select {
			case <-ctx.Done():
				w.logger.Info("worker stopping", logging.String("reason", "context canceled"))
				return
			case <-w.retire:
				w.logger.Info("worker retired")
				return
			case <-time.After(w.pollInterval):
			}
			continue
		}
		w.process(ctx, t)
	}
}

func (w *Worker) process(ctx context.Context, t *task.Task) {
	w.idle.Store(false)
	w.current.Store(t)
	defer func() {
		// Push before clearing so a task never vanishes between claim and
		// report, then release ownership and go idle.
		w.completions.Push(t)
		w.current.Store(nil)
		w.idle.Store(true)
	}()

	log := w.logger.With(
		logging.String(logging.FieldRunID, t.RunID),
		logging.Int64(logging.FieldTaskID, t.ID),
	)
	log.Info("processing task", logging.String("source", t.SourceBasename()))

	t.Success = w.execute(ctx, log, t)
	if t.Success {
		log.Info("task finished", logging.String("outcome", "success"))
	} else {
		log.Warn("task finished", logging.String("outcome", "failure"))
	}
}

// execute runs the conversion and reports the outcome. Panics from the engine
// are recovered and counted as failure so the claimed task still reaches the
// completions queue.
func (w *Worker) execute(ctx context.Context, log *slog.Logger, t *task.Task) (success bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("conversion panicked",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldEventType, "conversion_panicked"),
				logging.String(logging.FieldErrorHint, "verify the source file is intact and re-queue it"))
			success = false
		}
	}()

	params, err := w.engine.GenerateParameters(ctx, t)
	if err != nil {
		log.Error("parameter generation failed", logging.Error(err),
			logging.String(logging.FieldEventType, "parameter_generation_failed"),
			logging.String(logging.FieldErrorHint, "verify ffprobe can read the source file"))
		return false
	}
	if len(params) == 0 {
		log.Info("no conversion required", logging.String("source", t.SourceBasename()))
		return true
	}
	t.Parameters = params

	ok, err := w.engine.Convert(ctx, t.SourcePath, t.CachePath, params, t.SetProgress)
	if err != nil {
		log.Error("conversion failed", logging.Error(err),
			logging.String(logging.FieldEventType, "conversion_failed"),
			logging.String(logging.FieldErrorHint, "run ffmpeg with the logged parameters to reproduce"))
	}
	return ok
}
