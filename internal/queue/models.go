package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Item is one row of the live queue.
type Item struct {
	ID         int64
	SourcePath string
	CachePath  string
	Title      string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Record is one entry in the processed-task history log.
type Record struct {
	ID         int64
	TaskID     int64
	RunID      string
	SourcePath string
	CachePath  string
	Title      string
	Success    bool
	FinishedAt time.Time
}

// Stats counts queue items per status.
type Stats struct {
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

// Total returns the number of items across all statuses.
func (s Stats) Total() int {
	return s.Pending + s.Processing + s.Completed + s.Failed
}
