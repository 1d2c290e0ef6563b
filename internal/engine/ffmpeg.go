package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reel/internal/config"
	"reel/internal/task"
)

var commandContext = exec.CommandContext

// FFmpeg converts media files by driving the ffmpeg command line.
type FFmpeg struct {
	binary          string
	probeBinary     string
	targetContainer string
	videoCodec      string
	audioCodec      string
	extraArgs       []string
}

// Option configures the FFmpeg engine.
type Option func(*FFmpeg)

// WithBinary overrides the ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// WithProbeBinary overrides the ffprobe binary name.
func WithProbeBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.probeBinary = binary
		}
	}
}

// NewFFmpeg constructs an engine from the [engine] config section.
func NewFFmpeg(cfg config.Engine, opts ...Option) *FFmpeg {
	engine := &FFmpeg{
		binary:          cfg.FFmpegBinary,
		probeBinary:     cfg.FFprobeBinary,
		targetContainer: cfg.TargetContainer,
		videoCodec:      cfg.VideoCodec,
		audioCodec:      cfg.AudioCodec,
		extraArgs:       append([]string(nil), cfg.ExtraArgs...),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// GenerateParameters builds the ffmpeg argument list for the task's source.
// A source already in the target container needs no conversion and yields nil.
func (f *FFmpeg) GenerateParameters(_ context.Context, t *task.Task) ([]string, error) {
	if t == nil || strings.TrimSpace(t.SourcePath) == "" {
		return nil, errors.New("task has no source path")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(t.SourcePath), "."))
	if ext == f.targetContainer && len(f.extraArgs) == 0 {
		return nil, nil
	}
	params := []string{"-c:v", f.videoCodec, "-c:a", f.audioCodec}
	params = append(params, f.extraArgs...)
	return params, nil
}

// Convert runs ffmpeg against the source and streams progress updates parsed
// from the machine-readable `-progress` output.
func (f *FFmpeg) Convert(ctx context.Context, source, destination string, params []string, progress func(task.Progress)) (bool, error) {
	if source == "" {
		return false, errors.New("source path required")
	}
	if destination == "" {
		return false, errors.New("destination path required")
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return false, fmt.Errorf("ensure destination directory: %w", err)
	}

	info := f.probe(ctx, source)

	args := []string{"-y", "-nostdin", "-loglevel", "error", "-i", source, "-progress", "pipe:1"}
	args = append(args, params...)
	args = append(args, destination)

	cmd := commandContext(ctx, f.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return false, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = nil

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("start ffmpeg: %w", err)
	}

	parser := newProgressParser(info, started)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if snapshot, ok := parser.feed(scanner.Text()); ok && progress != nil {
			progress(snapshot)
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return false, fmt.Errorf("read ffmpeg progress: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return false, fmt.Errorf("ffmpeg: %w", err)
	}
	return true, nil
}

// sourceInfo carries the probed attributes needed to derive percent complete.
type sourceInfo struct {
	duration  time.Duration
	sourceFPS float64
}

// probe reads duration and frame rate from ffprobe. Probe failures are not
// fatal; percent complete simply stays at zero without a known duration.
func (f *FFmpeg) probe(ctx context.Context, source string) sourceInfo {
	cmd := commandContext(ctx, f.probeBinary,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "format=duration:stream=r_frame_rate",
		"-of", "default=noprint_wrappers=1",
		source,
	)
	output, err := cmd.Output()
	if err != nil {
		return sourceInfo{}
	}

	var info sourceInfo
	for _, line := range strings.Split(string(output), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch key {
		case "duration":
			if seconds, err := strconv.ParseFloat(value, 64); err == nil && seconds > 0 {
				info.duration = time.Duration(seconds * float64(time.Second))
			}
		case "r_frame_rate":
			info.sourceFPS = parseFrameRate(value)
		}
	}
	return info
}

// parseFrameRate converts ffprobe's rational frame rate (e.g. "24000/1001").
func parseFrameRate(value string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(value), "/")
	if !found {
		if rate, err := strconv.ParseFloat(value, 64); err == nil {
			return rate
		}
		return 0
	}
	numerator, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	denominator, err := strconv.ParseFloat(den, 64)
	if err != nil || denominator == 0 {
		return 0
	}
	return numerator / denominator
}

var _ Engine = (*FFmpeg)(nil)
