package pool

import (
	"context"
	"sync"

	"reel/internal/task"
)

// Handoff is the single-slot buffer between the supervisor and the workers.
// With capacity 1 the supervisor holds at most one dispatched task that no
// worker has claimed yet, so a shrinking pool never strands a backlog of
// claimed-but-unstarted work.
type Handoff struct {
	slot chan *task.Task
}

func NewHandoff() *Handoff {
	return &Handoff{slot: make(chan *task.Task, 1)}
}

// Put places a task into the slot, blocking until the slot is free or the
// context is canceled.
func (h *Handoff) Put(ctx context.Context, t *task.Task) error {
	select {
	case h.slot <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryTake claims the slotted task without blocking. Workers poll this between
// idle backoffs rather than parking on the channel, so retirement signals are
// observed promptly.
func (h *Handoff) TryTake() (*task.Task, bool) {
	select {
	case t := <-h.slot:
		return t, true
	default:
		return nil, false
	}
}

// Full reports whether the slot is occupied. The supervisor checks this
// before pulling the next item from the job queue so a stalled pool does not
// cause it to claim work it cannot place.
func (h *Handoff) Full() bool {
	return len(h.slot) == 1
}

// Completions is the unbounded finished-task queue. Workers push in whatever
// order conversions complete; the supervisor pops without blocking during its
// drain pass.
type Completions struct {
	mu    sync.Mutex
	tasks []*task.Task
}

func NewCompletions() *Completions {
	return &Completions{}
}

func (c *Completions) Push(t *task.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, t)
}

// TryPop removes and returns the oldest completion, or (nil, false) when the
// queue is empty.
func (c *Completions) TryPop() (*task.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tasks) == 0 {
		return nil, false
	}
	t := c.tasks[0]
	c.tasks = c.tasks[1:]
	return t, true
}

func (c *Completions) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}
