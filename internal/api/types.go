// Package api defines the transport DTOs shared by the JSON-RPC socket,
// the HTTP endpoints, and the websocket event stream.
package api

import (
	"encoding/json"
	"time"

	"mediabox/internal/queue"
)

const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	TaskType     string          `json:"taskType"`
	SourcePath   string          `json:"sourcePath,omitempty"`
	SourceURL    string          `json:"sourceUrl,omitempty"`
	Options      json.RawMessage `json:"options,omitempty"`
	Status       string          `json:"status"`
	Progress     QueueProgress   `json:"progress"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	OutputPath   string          `json:"outputPath,omitempty"`
	CreatedAt    string          `json:"createdAt,omitempty"`
	UpdatedAt    string          `json:"updatedAt,omitempty"`
	StartedAt    string          `json:"startedAt,omitempty"`
	CompletedAt  string          `json:"completedAt,omitempty"`
}

// QueueProgress captures progress information for a queue entry.
type QueueProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Speed   float64 `json:"speed,omitempty"`
}

// FromQueueItem converts a queue model into its DTO.
func FromQueueItem(item *queue.Item) QueueItem {
	dto := QueueItem{
		ID:         item.ID,
		Title:      item.Title,
		TaskType:   string(item.TaskType),
		SourcePath: item.SourcePath,
		SourceURL:  item.SourceURL,
		Status:     string(item.Status),
		Progress: QueueProgress{
			Stage:   item.ProgressStage,
			Percent: item.Progress,
			Speed:   item.Speed,
		},
		ErrorMessage: item.ErrorMessage,
		OutputPath:   item.OutputPath,
		CreatedAt:    formatTime(item.CreatedAt),
		UpdatedAt:    formatTime(item.UpdatedAt),
	}
	if item.OptionsJSON != "" {
		dto.Options = json.RawMessage(item.OptionsJSON)
	}
	if item.StartedAt != nil {
		dto.StartedAt = formatTime(*item.StartedAt)
	}
	if item.CompletedAt != nil {
		dto.CompletedAt = formatTime(*item.CompletedAt)
	}
	return dto
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// HandlerHealth mirrors readiness reporting for task handlers.
type HandlerHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes queue processing state.
type WorkflowStatus struct {
	Running       bool            `json:"running"`
	Halted        bool            `json:"halted"`
	HaltReason    string          `json:"haltReason,omitempty"`
	QueueStats    map[string]int  `json:"queueStats"`
	LastError     string          `json:"lastError,omitempty"`
	ActiveItem    *QueueItem      `json:"activeItem,omitempty"`
	HandlerHealth []HandlerHealth `json:"handlerHealth"`
}

// DaemonStatus aggregates daemon runtime information.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Database     DatabaseHealth     `json:"database"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// DatabaseHealth reports queue database liveness.
type DatabaseHealth struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Event is one websocket push message. Lifecycle events carry the item;
// item_progress events carry a progress sample.
type Event struct {
	Type     string          `json:"type"`
	Item     *QueueItem      `json:"item,omitempty"`
	Progress *ProgressSample `json:"progress,omitempty"`
}

// ProgressSample is a live progress update for a running item.
type ProgressSample struct {
	ItemID  int64   `json:"item_id"`
	Percent float64 `json:"percent"`
	Stage   string  `json:"stage,omitempty"`
	Speed   float64 `json:"speed,omitempty"`
}
