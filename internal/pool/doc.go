// Package pool implements the conversion worker pool: a supervisor that sizes
// a set of workers against a runtime-adjustable target, dispatches tasks from
// the job queue through a capacity-1 handoff slot, and reconciles finished
// work back to the queue.
//
// The handoff slot is the pool's admission valve: the supervisor can never run
// more than one task ahead of the workers. Completions flow back through an
// unbounded queue in whatever order conversions actually finish; callers must
// not assume FIFO completion.
//
// Shutdown is graceful and signal-all-then-wait: Stop cancels the supervisor
// loop, signals retirement to every worker, waits for in-flight conversions to
// finish, then drains remaining completions so finished work is always
// reported. Workers are never preempted mid-conversion.
package pool
