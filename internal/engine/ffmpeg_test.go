package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"reel/internal/config"
	"reel/internal/task"
)

func testEngineConfig() config.Engine {
	return config.Engine{
		FFmpegBinary:    "ffmpeg",
		FFprobeBinary:   "ffprobe",
		TargetContainer: "mkv",
		VideoCodec:      "libx265",
		AudioCodec:      "copy",
	}
}

func TestGenerateParametersSkipsMatchingContainer(t *testing.T) {
	eng := NewFFmpeg(testEngineConfig())
	params, err := eng.GenerateParameters(context.Background(), &task.Task{SourcePath: "/media/movie.mkv"})
	if err != nil {
		t.Fatalf("GenerateParameters returned error: %v", err)
	}
	if params != nil {
		t.Fatalf("expected no-op for matching container, got %v", params)
	}
}

func TestGenerateParametersBuildsCodecArgs(t *testing.T) {
	cfg := testEngineConfig()
	cfg.ExtraArgs = []string{"-preset", "slow"}
	eng := NewFFmpeg(cfg)

	params, err := eng.GenerateParameters(context.Background(), &task.Task{SourcePath: "/media/movie.avi"})
	if err != nil {
		t.Fatalf("GenerateParameters returned error: %v", err)
	}
	want := []string{"-c:v", "libx265", "-c:a", "copy", "-preset", "slow"}
	if len(params) != len(want) {
		t.Fatalf("unexpected params: %v", params)
	}
	for i := range want {
		if params[i] != want[i] {
			t.Fatalf("param %d: got %q want %q", i, params[i], want[i])
		}
	}
}

func TestGenerateParametersRejectsEmptySource(t *testing.T) {
	eng := NewFFmpeg(testEngineConfig())
	if _, err := eng.GenerateParameters(context.Background(), &task.Task{}); err == nil {
		t.Fatal("expected error for empty source path")
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"25/1", 25},
		{"24000/1001", 23.976023976023978},
		{"30", 30},
		{"0/0", 0},
		{"garbage", 0},
	}
	for _, tc := range cases {
		if got := parseFrameRate(tc.in); got != tc.want {
			t.Fatalf("parseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestProgressParserEmitsPerBlock(t *testing.T) {
	parser := newProgressParser(sourceInfo{duration: 100 * time.Second, sourceFPS: 25}, time.Now())

	lines := []string{
		"frame=600",
		"fps=48.2",
		"bitrate=3200.1kbits/s",
		"total_size=10485760",
		"out_time_us=25000000",
		"speed=1.92x",
	}
	for _, line := range lines {
		if _, ok := parser.feed(line); ok {
			t.Fatalf("line %q should not complete a block", line)
		}
	}

	snapshot, ok := parser.feed("progress=continue")
	if !ok {
		t.Fatal("expected snapshot at end of progress block")
	}
	if snapshot.Frame != 600 || snapshot.FPS != 48.2 || snapshot.Speed != 1.92 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if snapshot.OutputSize != 10485760 {
		t.Fatalf("unexpected output size: %d", snapshot.OutputSize)
	}
	if snapshot.OutTime != 25*time.Second {
		t.Fatalf("unexpected out time: %v", snapshot.OutTime)
	}
	if snapshot.Percent != 25 {
		t.Fatalf("unexpected percent: %v", snapshot.Percent)
	}
	if snapshot.SourceFPS != 25 || snapshot.Duration != 100*time.Second {
		t.Fatalf("probe info missing from snapshot: %+v", snapshot)
	}
}

func TestProgressParserEndForcesFullPercent(t *testing.T) {
	parser := newProgressParser(sourceInfo{duration: 100 * time.Second}, time.Now())
	parser.feed("out_time_us=99000000")
	snapshot, ok := parser.feed("progress=end")
	if !ok {
		t.Fatal("expected snapshot for end block")
	}
	if snapshot.Percent != 100 {
		t.Fatalf("expected 100%% at end, got %v", snapshot.Percent)
	}
}

func TestProgressParserWithoutDuration(t *testing.T) {
	parser := newProgressParser(sourceInfo{}, time.Now())
	parser.feed("out_time_us=5000000")
	snapshot, ok := parser.feed("progress=continue")
	if !ok {
		t.Fatal("expected snapshot")
	}
	if snapshot.Percent != 0 {
		t.Fatalf("percent should stay zero without duration, got %v", snapshot.Percent)
	}
}

func stubCommand(t *testing.T, mode string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func TestConvertReportsProgressAndSucceeds(t *testing.T) {
	captured := stubCommand(t, "success")

	eng := NewFFmpeg(testEngineConfig())
	destination := filepath.Join(t.TempDir(), "out", "movie.mkv")

	var updates []task.Progress
	ok, err := eng.Convert(context.Background(), "/media/movie.avi", destination, []string{"-c:v", "libx265"}, func(p task.Progress) {
		updates = append(updates, p)
	})
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected success")
	}
	if len(updates) == 0 {
		t.Fatal("expected at least one progress update")
	}
	last := updates[len(updates)-1]
	if last.Frame != 2400 {
		t.Fatalf("unexpected final frame: %d", last.Frame)
	}

	if findArg(*captured, "-progress") == -1 {
		t.Fatalf("expected -progress flag in args %v", *captured)
	}
	if (*captured)[len(*captured)-1] != destination {
		t.Fatalf("expected destination as final arg, got %v", *captured)
	}
}

func TestConvertFailureReturnsError(t *testing.T) {
	stubCommand(t, "failure")

	eng := NewFFmpeg(testEngineConfig())
	destination := filepath.Join(t.TempDir(), "movie.mkv")

	ok, err := eng.Convert(context.Background(), "/media/movie.avi", destination, nil, nil)
	if err == nil {
		t.Fatal("expected error from failing conversion")
	}
	if ok {
		t.Fatal("expected failure outcome")
	}
}

func TestConvertRequiresPaths(t *testing.T) {
	eng := NewFFmpeg(testEngineConfig())
	if _, err := eng.Convert(context.Background(), "", "/tmp/out.mkv", nil, nil); err == nil {
		t.Fatal("expected error for empty source")
	}
	if _, err := eng.Convert(context.Background(), "/media/in.avi", "", nil, nil); err == nil {
		t.Fatal("expected error for empty destination")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "success":
		fmt.Println("frame=1200")
		fmt.Println("fps=50.0")
		fmt.Println("out_time_us=30000000")
		fmt.Println("speed=2.0x")
		fmt.Println("progress=continue")
		fmt.Println("frame=2400")
		fmt.Println("out_time_us=60000000")
		fmt.Println("progress=end")
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "conversion failed")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
