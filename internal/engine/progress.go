package engine

import (
	"strconv"
	"strings"
	"time"

	"reel/internal/task"
)

// progressParser accumulates ffmpeg's key=value progress stream and emits a
// snapshot at the end of each block (the "progress=" line).
type progressParser struct {
	info    sourceInfo
	started time.Time
	pending task.Progress
}

func newProgressParser(info sourceInfo, started time.Time) *progressParser {
	return &progressParser{info: info, started: started}
}

func (p *progressParser) feed(line string) (task.Progress, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return task.Progress{}, false
	}
	value = strings.TrimSpace(value)

	switch key {
	case "frame":
		if frame, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.pending.Frame = frame
		}
	case "fps":
		if fps, err := strconv.ParseFloat(value, 64); err == nil {
			p.pending.FPS = fps
		}
	case "bitrate":
		if value != "N/A" {
			p.pending.Bitrate = value
		}
	case "total_size":
		if size, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.pending.OutputSize = size
		}
	case "out_time_us", "out_time_ms":
		// ffmpeg emits microseconds under both keys.
		if micros, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.pending.OutTime = time.Duration(micros) * time.Microsecond
		}
	case "speed":
		if speed, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil {
			p.pending.Speed = speed
		}
	case "progress":
		snapshot := p.pending
		snapshot.Duration = p.info.duration
		snapshot.SourceFPS = p.info.sourceFPS
		snapshot.Elapsed = time.Since(p.started)
		if p.info.duration > 0 {
			percent := float64(snapshot.OutTime) / float64(p.info.duration) * 100
			if percent > 100 || value == "end" {
				percent = 100
			}
			snapshot.Percent = percent
		} else if value == "end" {
			snapshot.Percent = 100
		}
		return snapshot, true
	}
	return task.Progress{}, false
}
