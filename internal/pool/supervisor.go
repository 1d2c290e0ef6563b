package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"reel/internal/config"
	"reel/internal/engine"
	"reel/internal/logging"
	"reel/internal/queue"
	"reel/internal/task"
)

// JobQueue is the persistent queue surface the supervisor drives. It is
// satisfied by *queue.Store.
type JobQueue interface {
	NextIncoming(ctx context.Context) (*task.Task, error)
	IncomingEmpty(ctx context.Context) (bool, error)
	MarkProcessed(ctx context.Context, t *task.Task) error
	History(ctx context.Context) ([]queue.Record, error)
}

// Timings collects the supervisor's loop cadences. Tests shrink these to keep
// scenarios fast; production values come from configuration.
type Timings struct {
	// Tick is the supervisor loop interval.
	Tick time.Duration
	// IdleBackoff is the longer pause taken when no worker has idle capacity.
	IdleBackoff time.Duration
	// WorkerPoll is how often an idle worker rechecks the handoff slot.
	WorkerPoll time.Duration
	// DrainPace spaces out consecutive completion reconciliations.
	DrainPace time.Duration
}

func TimingsFromConfig(cfg config.Workers) Timings {
	return Timings{
		Tick:        time.Duration(cfg.TickInterval) * time.Second,
		IdleBackoff: time.Duration(cfg.IdleBackoff) * time.Second,
		WorkerPoll:  time.Duration(cfg.PollInterval) * time.Second,
		DrainPace:   time.Duration(cfg.DrainPaceMS) * time.Millisecond,
	}
}

func (t Timings) withDefaults() Timings {
	if t.Tick <= 0 {
		t.Tick = time.Second
	}
	if t.IdleBackoff <= 0 {
		t.IdleBackoff = 5 * time.Second
	}
	if t.WorkerPoll <= 0 {
		t.WorkerPoll = 5 * time.Second
	}
	if t.DrainPace <= 0 {
		t.DrainPace = 200 * time.Millisecond
	}
	return t
}

// Supervisor owns the worker registry and the supervisor loop. Worker ids are
// kept dense in [0, target): growth fills the lowest missing ids, shrink
// retires the highest ids first.
type Supervisor struct {
	jobs    JobQueue
	engine  engine.Engine
	logger  *slog.Logger
	target  func() int
	timings Timings

	handoff     *Handoff
	completions *Completions

	mu      sync.Mutex
	workers map[int]*Worker

	workerWG     sync.WaitGroup
	workerCtx    context.Context
	workerCancel context.CancelFunc

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	loopWG  sync.WaitGroup
}

// NewSupervisor builds a supervisor. target is read on every reconcile pass,
// so concurrency changes take effect without restarting the pool.
func NewSupervisor(jobs JobQueue, eng engine.Engine, logger *slog.Logger, target func() int, timings Timings) *Supervisor {
	// Workers get their own context so canceling the supervisor loop never
	// preempts an in-flight conversion; retirement signals stop them instead.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	return &Supervisor{
		jobs:         jobs,
		engine:       eng,
		logger:       logging.WithComponent(logger, "pool"),
		target:       target,
		timings:      timings.withDefaults(),
		handoff:      NewHandoff(),
		completions:  NewCompletions(),
		workers:      make(map[int]*Worker),
		workerCtx:    workerCtx,
		workerCancel: workerCancel,
	}
}

// Start launches the supervisor loop. It returns an error if already running.
func (s *Supervisor) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running {
		return fmt.Errorf("supervisor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.loopWG.Add(1)
	go func() {
		defer s.loopWG.Done()
		s.run(runCtx)
	}()
	return nil
}

// Stop shuts the pool down gracefully: the supervisor loop is canceled,
// every worker is signaled to retire, in-flight conversions run to
// completion, and remaining completions are drained to the job queue.
func (s *Supervisor) Stop() {
	s.runMu.Lock()
	if s.running {
		s.running = false
		s.cancel()
	}
	s.runMu.Unlock()
	s.loopWG.Wait()

	s.logger.Info("retiring all workers")
	s.mu.Lock()
	for _, w := range s.workers {
		w.SignalRetire()
	}
	s.mu.Unlock()
	s.workerWG.Wait()
	s.workerCancel()

	s.drainCompletions(context.Background())
	s.logger.Info("supervisor stopped")
}

func (s *Supervisor) run(ctx context.Context) {
	s.logger.Info("supervisor loop started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.timings.Tick):
		}

		s.Reconcile()

		if !s.hasIdleCapacity() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.timings.IdleBackoff):
			}
			continue
		}

		s.drainCompletions(ctx)
		s.dispatch(ctx)
	}
}

// Reconcile converges the worker registry on the current target: dead workers
// are reaped, missing ids in [0, target) are spawned, and ids at or above the
// target are signaled to retire.
func (s *Supervisor) Reconcile() {
	target := s.target()
	if target < 0 {
		target = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, w := range s.workers {
		if !w.Alive() {
			delete(s.workers, id)
		}
	}

	for id := 0; id < target; id++ {
		if _, ok := s.workers[id]; ok {
			continue
		}
		s.spawnLocked(id)
	}

	for id, w := range s.workers {
		if id >= target && !w.Retiring() {
			s.logger.Info("retiring worker", logging.Int(logging.FieldWorkerID, id))
			w.SignalRetire()
		}
	}
}

func (s *Supervisor) spawnLocked(id int) {
	w := newWorker(id, s.handoff, s.completions, s.engine, s.logger, s.timings.WorkerPoll)
	s.workers[id] = w
	s.workerWG.Add(1)
	go func() {
		defer s.workerWG.Done()
		w.Run(s.workerCtx)
	}()
	s.logger.Info("spawned worker", logging.Int(logging.FieldWorkerID, id))
}

func (s *Supervisor) hasIdleCapacity() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workers {
		if w.Alive() && w.Idle() && !w.Retiring() {
			return true
		}
	}
	return false
}

// drainCompletions pops finished tasks and records their outcomes. A failed
// reconciliation is logged and skipped so one bad record cannot wedge the
// drain.
func (s *Supervisor) drainCompletions(ctx context.Context) {
	for {
		t, ok := s.completions.TryPop()
		if !ok {
			return
		}
		log := s.logger.With(
			logging.String(logging.FieldRunID, t.RunID),
			logging.Int64(logging.FieldTaskID, t.ID),
		)
		if err := s.jobs.MarkProcessed(ctx, t); err != nil {
			log.Error("failed to record task outcome", logging.Error(err))
		} else {
			log.Info("recorded task outcome", logging.Bool("success", t.Success))
		}
		select {
		case <-ctx.Done():
			// Keep draining without pacing so shutdown reports everything.
		case <-time.After(s.timings.DrainPace):
		}
	}
}

// dispatch moves pending items from the job queue into the handoff slot until
// the queue is empty, the slot stays full, or the context is canceled.
func (s *Supervisor) dispatch(ctx context.Context) {
	for ctx.Err() == nil {
		empty, err := s.jobs.IncomingEmpty(ctx)
		if err != nil {
			s.logger.Error("failed to check pending items", logging.Error(err))
			return
		}
		if empty {
			return
		}

		s.Reconcile()
		if s.handoff.Full() {
			return
		}

		t, err := s.jobs.NextIncoming(ctx)
		if err != nil {
			s.logger.Error("failed to claim pending item", logging.Error(err))
			return
		}
		if t == nil {
			return
		}
		t.RunID = uuid.NewString()
		s.logger.Info("dispatching task",
			logging.String(logging.FieldRunID, t.RunID),
			logging.Int64(logging.FieldTaskID, t.ID),
			logging.String("source", t.SourceBasename()),
		)
		if err := s.handoff.Put(ctx, t); err != nil {
			return
		}
	}
}

// WorkerStatuses snapshots all live workers ordered by id.
func (s *Supervisor) WorkerStatuses() []WorkerStatus {
	s.mu.Lock()
	workers := make([]*Worker, 0, len(s.workers))
	for _, w := range s.workers {
		if w.Alive() {
			workers = append(workers, w)
		}
	}
	s.mu.Unlock()

	sort.Slice(workers, func(i, j int) bool { return workers[i].ID() < workers[j].ID() })
	statuses := make([]WorkerStatus, 0, len(workers))
	for _, w := range workers {
		statuses = append(statuses, w.Status())
	}
	return statuses
}

// History passes through to the job queue's history log.
func (s *Supervisor) History(ctx context.Context) ([]queue.Record, error) {
	return s.jobs.History(ctx)
}

// PendingCompletions reports how many finished tasks await reconciliation.
func (s *Supervisor) PendingCompletions() int {
	return s.completions.Len()
}
