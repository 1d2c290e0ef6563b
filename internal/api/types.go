package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ConversionProgress is the transport form of a live conversion snapshot.
type ConversionProgress struct {
	Percent         float64 `json:"percent"`
	Frame           int64   `json:"frame"`
	FPS             float64 `json:"fps"`
	Speed           float64 `json:"speed"`
	Bitrate         string  `json:"bitrate,omitempty"`
	OutTimeSeconds  float64 `json:"outTimeSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`
	ElapsedSeconds  float64 `json:"elapsedSeconds"`
	OutputSize      int64   `json:"outputSize"`
}

// WorkerStatus describes one execution unit in a transport-friendly format.
type WorkerStatus struct {
	ID          int                 `json:"id"`
	Name        string              `json:"name"`
	Idle        bool                `json:"idle"`
	RunID       string              `json:"runId,omitempty"`
	CurrentFile string              `json:"currentFile,omitempty"`
	Progress    *ConversionProgress `json:"progress,omitempty"`
}

// WorkerListResponse wraps the pool's worker snapshots.
type WorkerListResponse struct {
	TargetWorkers int            `json:"targetWorkers"`
	Workers       []WorkerStatus `json:"workers"`
}

// HistoryRecord describes one processed-task history entry.
type HistoryRecord struct {
	ID         int64  `json:"id"`
	TaskID     int64  `json:"taskId"`
	RunID      string `json:"runId"`
	SourcePath string `json:"sourcePath"`
	CachePath  string `json:"cachePath,omitempty"`
	Title      string `json:"title,omitempty"`
	Success    bool   `json:"success"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// HistoryResponse wraps the processed-task history log.
type HistoryResponse struct {
	Records []HistoryRecord `json:"records"`
}

// QueueStats provides queue counts keyed by lifecycle state.
type QueueStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// QueueItem describes one live queue row in a transport-friendly format.
type QueueItem struct {
	ID         int64  `json:"id"`
	SourcePath string `json:"sourcePath"`
	CachePath  string `json:"cachePath"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// QueueListResponse wraps the live queue plus its summary counts.
type QueueListResponse struct {
	Counts QueueStats  `json:"counts"`
	Items  []QueueItem `json:"items"`
}

// ClearQueueResponse reports how many queue items were removed.
type ClearQueueResponse struct {
	Removed int64 `json:"removed"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	QueueDBPath   string         `json:"queueDbPath"`
	LockFilePath  string         `json:"lockFilePath"`
	TargetWorkers int            `json:"targetWorkers"`
	Workers       []WorkerStatus `json:"workers"`
	Queue         QueueStats     `json:"queue"`
	Checks        []CheckResult  `json:"checks"`
}

// CheckResult reports the outcome of one environment check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// EnqueueRequest asks the daemon to queue a file for conversion.
type EnqueueRequest struct {
	Path string `json:"path"`
}

// EnqueueResponse reports the queued task.
type EnqueueResponse struct {
	TaskID    int64  `json:"taskId"`
	Title     string `json:"title"`
	CachePath string `json:"cachePath"`
}

// TargetWorkersRequest changes the pool's target concurrency.
type TargetWorkersRequest struct {
	Target int `json:"target"`
}

// TargetWorkersResponse echoes the accepted target.
type TargetWorkersResponse struct {
	Target int `json:"target"`
}
