package api

import (
	"reel/internal/pool"
	"reel/internal/preflight"
	"reel/internal/queue"
	"reel/internal/task"
)

// FromWorkerStatus converts a pool snapshot into its transport form.
func FromWorkerStatus(st pool.WorkerStatus) WorkerStatus {
	out := WorkerStatus{
		ID:          st.ID,
		Name:        st.Name,
		Idle:        st.Idle,
		RunID:       st.RunID,
		CurrentFile: st.CurrentFile,
	}
	if st.Progress != nil {
		out.Progress = fromProgress(*st.Progress)
	}
	return out
}

// FromWorkerStatuses converts a slice of pool snapshots.
func FromWorkerStatuses(statuses []pool.WorkerStatus) []WorkerStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]WorkerStatus, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, FromWorkerStatus(st))
	}
	return out
}

func fromProgress(p task.Progress) *ConversionProgress {
	return &ConversionProgress{
		Percent:         p.Percent,
		Frame:           p.Frame,
		FPS:             p.FPS,
		Speed:           p.Speed,
		Bitrate:         p.Bitrate,
		OutTimeSeconds:  p.OutTime.Seconds(),
		DurationSeconds: p.Duration.Seconds(),
		ElapsedSeconds:  p.Elapsed.Seconds(),
		OutputSize:      p.OutputSize,
	}
}

// FromRecord converts a history entry into its transport form.
func FromRecord(rec queue.Record) HistoryRecord {
	out := HistoryRecord{
		ID:         rec.ID,
		TaskID:     rec.TaskID,
		RunID:      rec.RunID,
		SourcePath: rec.SourcePath,
		CachePath:  rec.CachePath,
		Title:      rec.Title,
		Success:    rec.Success,
	}
	if !rec.FinishedAt.IsZero() {
		out.FinishedAt = rec.FinishedAt.Format(dateTimeFormat)
	}
	return out
}

// FromRecords converts a slice of history entries.
func FromRecords(records []queue.Record) []HistoryRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]HistoryRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out
}

// FromItem converts a live queue row into its transport form.
func FromItem(item queue.Item) QueueItem {
	out := QueueItem{
		ID:         item.ID,
		SourcePath: item.SourcePath,
		CachePath:  item.CachePath,
		Title:      item.Title,
		Status:     string(item.Status),
	}
	if !item.CreatedAt.IsZero() {
		out.CreatedAt = item.CreatedAt.Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		out.UpdatedAt = item.UpdatedAt.Format(dateTimeFormat)
	}
	return out
}

// FromItems converts a slice of live queue rows.
func FromItems(items []queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// FromStats converts queue counts into their transport form.
func FromStats(stats queue.Stats) QueueStats {
	return QueueStats{
		Pending:    stats.Pending,
		Processing: stats.Processing,
		Completed:  stats.Completed,
		Failed:     stats.Failed,
		Total:      stats.Total(),
	}
}

// FromCheckResults converts environment check outcomes into their transport form.
func FromCheckResults(results []preflight.Result) []CheckResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]CheckResult, 0, len(results))
	for _, res := range results {
		out = append(out, CheckResult{Name: res.Name, Passed: res.Passed, Detail: res.Detail})
	}
	return out
}
