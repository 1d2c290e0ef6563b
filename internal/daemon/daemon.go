// Package daemon wires the queue store, conversion engine, and worker pool
// into a single-instance background service with an HTTP control surface.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"reel/internal/config"
	"reel/internal/engine"
	"reel/internal/logging"
	"reel/internal/pool"
	"reel/internal/preflight"
	"reel/internal/queue"
	"reel/internal/task"
)

var convertibleExtensions = map[string]struct{}{
	".avi":  {},
	".flv":  {},
	".m4v":  {},
	".mkv":  {},
	".mov":  {},
	".mp4":  {},
	".mpeg": {},
	".mpg":  {},
	".ts":   {},
	".webm": {},
	".wmv":  {},
}

// Daemon coordinates the worker pool and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store
	pool   *pool.Supervisor

	target atomic.Int64

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	api     *apiServer
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	QueueDBPath   string
	LockFilePath  string
	TargetWorkers int
	Workers       []pool.WorkerStatus
	Queue         queue.Stats
	Checks        []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "reeld.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.target.Store(int64(cfg.Workers.Count))

	eng := engine.NewFFmpeg(cfg.Engine)
	d.pool = pool.NewSupervisor(store, eng, logger, d.TargetWorkers, pool.TimingsFromConfig(cfg.Workers))

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Start acquires the daemon lock, recovers interrupted work, and launches the
// worker pool and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reel daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Items left processing by a previous crash go back to pending so they
	// are picked up again.
	if reset, err := d.store.ResetStuckProcessing(runCtx); err != nil {
		d.logger.Warn("failed to reset interrupted items", logging.Error(err))
	} else if reset > 0 {
		d.logger.Info("reset interrupted items to pending", logging.Int64("count", reset))
	}

	if err := d.pool.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start worker pool: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.pool.Stop()
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("reel daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("target_workers", d.TargetWorkers()),
	)
	return nil
}

// Stop shuts down the API server and worker pool and releases the lock.
// In-flight conversions finish before Stop returns.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pool.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("reel daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// TargetWorkers returns the pool's current target concurrency.
func (d *Daemon) TargetWorkers() int {
	return int(d.target.Load())
}

// SetTargetWorkers changes the target concurrency. The pool converges on the
// new value on its next reconcile pass; zero idles the pool.
func (d *Daemon) SetTargetWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("target workers must be zero or positive, got %d", n)
	}
	previous := d.target.Swap(int64(n))
	if previous != int64(n) {
		d.logger.Info("target workers changed",
			logging.Int64("previous", previous),
			logging.Int("target", n),
		)
	}
	return nil
}

// WorkerStatuses snapshots all live workers ordered by id.
func (d *Daemon) WorkerStatuses() []pool.WorkerStatus {
	return d.pool.WorkerStatuses()
}

// History returns the processed-task history log, newest first.
func (d *Daemon) History(ctx context.Context) ([]queue.Record, error) {
	return d.store.History(ctx)
}

// QueueStats returns queue counts per lifecycle state.
func (d *Daemon) QueueStats(ctx context.Context) (queue.Stats, error) {
	return d.store.Stats(ctx)
}

// ListQueue returns live queue items, optionally filtered by status.
func (d *Daemon) ListQueue(ctx context.Context, statuses ...queue.Status) ([]queue.Item, error) {
	return d.store.List(ctx, statuses...)
}

// ClearQueue removes all queue items. History is preserved.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	removed, err := d.store.Clear(ctx)
	if err == nil && removed > 0 {
		d.logger.Info("queue cleared", logging.Int64("removed", removed))
	}
	return removed, err
}

// AddFile enqueues a file for conversion.
func (d *Daemon) AddFile(ctx context.Context, sourcePath string) (*task.Task, error) {
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source path %q is a directory", absPath)
	}
	ext := strings.ToLower(filepath.Ext(info.Name()))
	if _, ok := convertibleExtensions[ext]; !ok {
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}
	t, err := d.store.NewFile(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("enqueue file: %w", err)
	}
	d.logger.Info("file queued",
		logging.Int64(logging.FieldTaskID, t.ID),
		logging.String("source", absPath),
	)
	return t, nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		QueueDBPath:   d.store.Path(),
		LockFilePath:  d.lockPath,
		TargetWorkers: d.TargetWorkers(),
		Workers:       d.pool.WorkerStatuses(),
		Queue:         stats,
		Checks:        preflight.Run(d.cfg),
	}
}
