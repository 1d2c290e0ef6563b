package pool

import "reel/internal/task"

// WorkerStatus is the externally visible snapshot of one execution unit.
// RunID, CurrentFile, and Progress are populated only while the worker owns a
// task.
type WorkerStatus struct {
	ID          int
	Name        string
	Idle        bool
	RunID       string
	CurrentFile string
	Progress    *task.Progress
}
