package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/logging"
)

func TestNewConsoleWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "reel.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	worker := logging.WithComponent(logger, "worker-0")
	worker.Info("picked up job", logging.String("source", "/media/input file.mkv"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "INFO worker-0: picked up job") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, `source="/media/input file.mkv"`) {
		t.Fatalf("expected quoted source attr, got %q", line)
	}
}

func TestNewConsoleFiltersBelowLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "reel.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "warn",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "suppressed") {
		t.Fatalf("info record should be filtered, got %q", content)
	}
	if !strings.Contains(string(content), "kept") {
		t.Fatalf("warn record missing from %q", content)
	}
}

func TestNewJSONFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "reel.json")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("job finished", logging.Int(logging.FieldWorkerID, 2))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"worker_id":2`) {
		t.Fatalf("expected worker_id attr in %q", content)
	}
	if !strings.Contains(string(content), `"msg":"job finished"`) {
		t.Fatalf("expected msg key in %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should not panic", logging.Error(nil))
}
