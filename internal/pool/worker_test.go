package pool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reel/internal/logging"
	"reel/internal/task"
)

type workerHarness struct {
	worker      *Worker
	handoff     *Handoff
	completions *Completions
	engine      *fakeEngine
	cancel      context.CancelFunc
}

func startWorker(t *testing.T, eng *fakeEngine) *workerHarness {
	t.Helper()
	h := NewHandoff()
	c := NewCompletions()
	w := newWorker(0, h, c, eng, logging.NewNop(), 2*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		w.SignalRetire()
		cancel()
	})
	return &workerHarness{worker: w, handoff: h, completions: c, engine: eng, cancel: cancel}
}

func (h *workerHarness) give(t *testing.T, tk *task.Task) {
	t.Helper()
	if err := h.handoff.Put(context.Background(), tk); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestWorkerProcessesTask(t *testing.T) {
	h := startWorker(t, newFakeEngine())
	tk := &task.Task{ID: 7, RunID: "run-7", SourcePath: "/library/clip.avi"}
	h.give(t, tk)

	waitFor(t, "completion", func() bool { return h.completions.Len() == 1 })
	got, _ := h.completions.TryPop()
	if got != tk {
		t.Fatal("completed task should be the claimed task")
	}
	if !got.Success {
		t.Fatal("conversion should succeed")
	}

	waitFor(t, "worker to go idle", h.worker.Idle)
	st := h.worker.Status()
	if st.RunID != "" || st.CurrentFile != "" || st.Progress != nil {
		t.Fatalf("idle status should carry no task details, got %+v", st)
	}
}

func TestWorkerStatusWhileConverting(t *testing.T) {
	eng := newFakeEngine()
	eng.gate = make(chan struct{})
	h := startWorker(t, eng)
	h.give(t, &task.Task{ID: 3, RunID: "run-3", SourcePath: "/library/movie.mkv"})

	waitFor(t, "progress to be reported", func() bool {
		st := h.worker.Status()
		return st.Progress != nil
	})
	st := h.worker.Status()
	if st.Name != "worker-0" {
		t.Fatalf("Name = %q, want worker-0", st.Name)
	}
	if st.Idle {
		t.Fatal("status should report busy")
	}
	if st.RunID != "run-3" || st.CurrentFile != "movie.mkv" {
		t.Fatalf("status = %+v, want run-3 / movie.mkv", st)
	}
	if st.Progress == nil || st.Progress.Percent != 50 {
		t.Fatalf("status should carry the live progress snapshot, got %+v", st.Progress)
	}

	close(eng.gate)
	waitFor(t, "completion", func() bool { return h.completions.Len() == 1 })
}

func TestWorkerRetireFinishesCurrentTask(t *testing.T) {
	eng := newFakeEngine()
	eng.gate = make(chan struct{})
	h := startWorker(t, eng)
	h.give(t, &task.Task{ID: 5, SourcePath: "/library/clip.avi"})

	waitFor(t, "worker to go busy", func() bool { return !h.worker.Idle() })
	h.worker.SignalRetire()
	if !h.worker.Alive() {
		t.Fatal("worker must not exit while owning a task")
	}

	close(eng.gate)
	waitFor(t, "completion", func() bool { return h.completions.Len() == 1 })
	got, _ := h.completions.TryPop()
	if !got.Success {
		t.Fatal("in-flight conversion should finish successfully despite retirement")
	}
	waitFor(t, "worker to exit", func() bool { return !h.worker.Alive() })
}

func TestWorkerRetireWhileIdle(t *testing.T) {
	h := startWorker(t, newFakeEngine())
	h.worker.SignalRetire()
	waitFor(t, "worker to exit", func() bool { return !h.worker.Alive() })
}

func TestWorkerPanicReportsFailure(t *testing.T) {
	eng := newFakeEngine()
	eng.panics["bad.avi"] = true
	h := startWorker(t, eng)
	h.give(t, &task.Task{ID: 1, SourcePath: "/library/bad.avi"})

	waitFor(t, "completion", func() bool { return h.completions.Len() == 1 })
	got, _ := h.completions.TryPop()
	if got.Success {
		t.Fatal("panicked conversion should be reported as failure")
	}
	if !h.worker.Alive() {
		t.Fatal("worker should survive an engine panic")
	}

	// The loop keeps serving after the panic.
	h.give(t, &task.Task{ID: 2, SourcePath: "/library/good.avi"})
	waitFor(t, "second completion", func() bool { return h.completions.Len() == 1 })
	got, _ = h.completions.TryPop()
	if !got.Success {
		t.Fatal("follow-up conversion should succeed")
	}
}

func TestWorkerFailureLogsCarryDiagnostics(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "worker.json")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	eng := newFakeEngine()
	eng.fail["broken.avi"] = true
	handoff := NewHandoff()
	completions := NewCompletions()
	w := newWorker(0, handoff, completions, eng, logger, 2*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		w.SignalRetire()
		cancel()
	})

	if err := handoff.Put(context.Background(), &task.Task{ID: 4, SourcePath: "/library/broken.avi"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	waitFor(t, "completion", func() bool { return completions.Len() == 1 })

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, `"event_type":"conversion_failed"`) {
		t.Fatalf("failure record missing event_type attr: %q", line)
	}
	if !strings.Contains(line, `"error_hint"`) {
		t.Fatalf("failure record missing error_hint attr: %q", line)
	}
}

func TestWorkerEmptyParametersIsNoopSuccess(t *testing.T) {
	eng := newFakeEngine()
	eng.noop["done.mkv"] = true
	h := startWorker(t, eng)
	h.give(t, &task.Task{ID: 9, SourcePath: "/library/done.mkv"})

	waitFor(t, "completion", func() bool { return h.completions.Len() == 1 })
	got, _ := h.completions.TryPop()
	if !got.Success {
		t.Fatal("empty parameter list should complete as success")
	}
	if eng.convertedCount() != 0 {
		t.Fatal("no conversion should run for an empty parameter list")
	}
}
