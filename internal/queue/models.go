package queue

import (
	"fmt"
	"strings"
	"time"
)

// TaskType identifies which converter tool a queue item runs.
type TaskType string

const (
	TaskEncode   TaskType = "encode"
	TaskTrim     TaskType = "trim"
	TaskExtract  TaskType = "extract"
	TaskGif      TaskType = "gif"
	TaskDownload TaskType = "download"
)

var taskTypeSet = map[TaskType]struct{}{
	TaskEncode:   {},
	TaskTrim:     {},
	TaskExtract:  {},
	TaskGif:      {},
	TaskDownload: {},
}

// ParseTaskType validates a task type string.
func ParseTaskType(raw string) (TaskType, error) {
	task := TaskType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := taskTypeSet[task]; !ok {
		return "", fmt.Errorf("unknown task type %q", raw)
	}
	return task, nil
}

// Status tracks a queue item through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var statusSet = map[Status]struct{}{
	StatusPending:   {},
	StatusRunning:   {},
	StatusCompleted: {},
	StatusFailed:    {},
}

// ParseStatus validates a status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := statusSet[status]; !ok {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return status, nil
}

// Item is one queued conversion task.
type Item struct {
	ID            int64
	Title         string
	TaskType      TaskType
	SourcePath    string
	SourceURL     string
	OptionsJSON   string
	Status        Status
	Progress      float64
	ProgressStage string
	Speed         float64
	ErrorMessage  string
	OutputPath    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	LastHeartbeat *time.Time
}

// Editable reports whether the item's options may still be changed. Failed
// items are editable so a fix can be applied before retrying.
func (i *Item) Editable() bool {
	return i.Status == StatusPending || i.Status == StatusFailed
}

// InitProgress resets the progress fields for a fresh run.
func (i *Item) InitProgress(stage string) {
	i.Progress = 0
	i.ProgressStage = stage
	i.Speed = 0
	i.ErrorMessage = ""
}

// SetProgress records task progress, clamped to [0, 100].
func (i *Item) SetProgress(percent float64, stage string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	i.Progress = percent
	if stage != "" {
		i.ProgressStage = stage
	}
}

// SetFailed marks the item failed with a message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
}

// Stats summarizes queue contents by status.
type Stats struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
}

// HealthSummary describes database liveness for status reporting.
type HealthSummary struct {
	Healthy bool
	Detail  string
}
