package task_test

import (
	"sync"
	"testing"
	"time"

	"reel/internal/task"
)

func TestSourceBasename(t *testing.T) {
	tsk := &task.Task{SourcePath: "/media/incoming/show.s01e01.mkv"}
	if got := tsk.SourceBasename(); got != "show.s01e01.mkv" {
		t.Fatalf("unexpected basename: %q", got)
	}

	var nilTask *task.Task
	if got := nilTask.SourceBasename(); got != "" {
		t.Fatalf("nil task should have empty basename, got %q", got)
	}
}

func TestProgressSnapshotIsCopy(t *testing.T) {
	tsk := &task.Task{}
	tsk.SetProgress(task.Progress{Percent: 40, Frame: 1200})

	snap := tsk.ProgressSnapshot()
	snap.Percent = 99

	if got := tsk.ProgressSnapshot().Percent; got != 40 {
		t.Fatalf("snapshot mutation leaked into task: %v", got)
	}
}

func TestConcurrentProgressAccess(t *testing.T) {
	tsk := &task.Task{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tsk.SetProgress(task.Progress{Percent: float64(n), Elapsed: time.Duration(n) * time.Second})
		}(i)
		go func() {
			defer wg.Done()
			_ = tsk.ProgressSnapshot()
		}()
	}
	wg.Wait()
}
