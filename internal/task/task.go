package task

import (
	"path/filepath"
	"sync"
	"time"
)

// Progress is a point-in-time snapshot of a running conversion.
type Progress struct {
	Duration   time.Duration
	SourceFPS  float64
	Elapsed    time.Duration
	OutTime    time.Duration
	Percent    float64
	Frame      int64
	FPS        float64
	Speed      float64
	Bitrate    string
	OutputSize int64
}

// Task is one unit of conversion work.
//
// Ownership moves exactly once along the pipeline: the job queue creates the
// task, a single worker owns it from claim until the completion push, then the
// supervisor reads it and reports it back to the job queue. Only the owning
// worker's engine writes the progress snapshot; Status readers take a copy
// through ProgressSnapshot.
type Task struct {
	ID         int64
	RunID      string
	SourcePath string
	CachePath  string
	Title      string
	Parameters []string
	Success    bool
	CreatedAt  time.Time

	mu       sync.RWMutex
	progress Progress
}

// SourceBasename returns the file name portion of the source path.
func (t *Task) SourceBasename() string {
	if t == nil || t.SourcePath == "" {
		return ""
	}
	return filepath.Base(t.SourcePath)
}

// SetProgress replaces the live progress snapshot.
func (t *Task) SetProgress(p Progress) {
	t.mu.Lock()
	t.progress = p
	t.mu.Unlock()
}

// ProgressSnapshot returns a copy of the live progress snapshot.
func (t *Task) ProgressSnapshot() Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress
}
