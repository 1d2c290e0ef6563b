package pool

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"reel/internal/queue"
	"reel/internal/task"
)

func testTimings() Timings {
	return Timings{
		Tick:        5 * time.Millisecond,
		IdleBackoff: 10 * time.Millisecond,
		WorkerPoll:  5 * time.Millisecond,
		DrainPace:   time.Millisecond,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// fakeEngine converts by sleeping for a per-source duration. Sources listed in
// fail return an error, sources in panics panic mid-conversion, and sources in
// noop produce an empty parameter list.
type fakeEngine struct {
	mu         sync.Mutex
	durations  map[string]time.Duration
	fail       map[string]bool
	panics     map[string]bool
	noop       map[string]bool
	gate       chan struct{}
	converted  []string
	generated  []string
	defaultDur time.Duration
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		durations:  make(map[string]time.Duration),
		fail:       make(map[string]bool),
		panics:     make(map[string]bool),
		noop:       make(map[string]bool),
		defaultDur: 5 * time.Millisecond,
	}
}

func (e *fakeEngine) GenerateParameters(_ context.Context, t *task.Task) ([]string, error) {
	name := t.SourceBasename()
	e.mu.Lock()
	e.generated = append(e.generated, name)
	noop := e.noop[name]
	e.mu.Unlock()
	if noop {
		return nil, nil
	}
	return []string{"-c:v", "libx265", "-c:a", "copy"}, nil
}

func (e *fakeEngine) Convert(ctx context.Context, source, _ string, _ []string, progress func(task.Progress)) (bool, error) {
	name := filepath.Base(source)
	e.mu.Lock()
	dur, ok := e.durations[name]
	gate := e.gate
	e.mu.Unlock()
	if !ok {
		dur = e.defaultDur
	}

	if progress != nil {
		progress(task.Progress{Percent: 50, Frame: 120})
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	select {
	case <-time.After(dur):
	case <-ctx.Done():
		return false, ctx.Err()
	}

	e.mu.Lock()
	e.converted = append(e.converted, name)
	panicked := e.panics[name]
	failed := e.fail[name]
	e.mu.Unlock()

	if panicked {
		panic("encoder blew up: " + name)
	}
	if failed {
		return false, errors.New("encoder exited with status 1")
	}
	return true, nil
}

func (e *fakeEngine) convertedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.converted)
}

// fakeJobs is an in-memory JobQueue recording how often each task is marked
// processed.
type fakeJobs struct {
	mu      sync.Mutex
	pending []*task.Task
	marked  []*task.Task
	markOf  map[int64]int
	history []queue.Record
	nextID  int64
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{markOf: make(map[int64]int)}
}

func (q *fakeJobs) add(sources ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, src := range sources {
		q.nextID++
		q.pending = append(q.pending, &task.Task{
			ID:         q.nextID,
			SourcePath: filepath.Join("/library", src),
			CachePath:  filepath.Join("/cache", src),
			CreatedAt:  time.Now(),
		})
	}
}

func (q *fakeJobs) NextIncoming(context.Context) (*task.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, nil
	}
	t := q.pending[0]
	q.pending = q.pending[1:]
	return t, nil
}

func (q *fakeJobs) IncomingEmpty(context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) == 0, nil
}

func (q *fakeJobs) MarkProcessed(_ context.Context, t *task.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.marked = append(q.marked, t)
	q.markOf[t.ID]++
	q.history = append(q.history, queue.Record{
		TaskID:     t.ID,
		RunID:      t.RunID,
		SourcePath: t.SourcePath,
		Success:    t.Success,
		FinishedAt: time.Now(),
	})
	return nil
}

func (q *fakeJobs) History(context.Context) ([]queue.Record, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]queue.Record, len(q.history))
	copy(out, q.history)
	return out, nil
}

func (q *fakeJobs) markedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.marked)
}

// markedNames returns source basenames in the order tasks were marked
// processed, which is completion order.
func (q *fakeJobs) markedNames() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.marked))
	for _, t := range q.marked {
		out = append(out, t.SourceBasename())
	}
	return out
}

func (q *fakeJobs) outcomes() map[string]bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[string]bool, len(q.marked))
	for _, t := range q.marked {
		out[t.SourceBasename()] = t.Success
	}
	return out
}

func (q *fakeJobs) verifyMarkedOnce(t *testing.T) {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, n := range q.markOf {
		if n != 1 {
			t.Errorf("task %d marked processed %d times, want exactly once", id, n)
		}
	}
	for _, rec := range q.history {
		if rec.RunID == "" {
			t.Errorf("task %d recorded without a run id", rec.TaskID)
		}
	}
}

func sourceName(i int) string {
	return fmt.Sprintf("clip-%02d.avi", i)
}
