package ipc

import (
	"encoding/json"

	"mediabox/internal/api"
	"mediabox/internal/media/ffmpeg"
	"mediabox/internal/media/ffprobe"
	"mediabox/internal/presets"
)

// QueueItem mirrors the HTTP API queue DTO for internal IPC callers.
type QueueItem = api.QueueItem

// HandlerHealth describes readiness of a task handler.
type HandlerHealth = api.HandlerHealth

// DependencyStatus describes availability of an external dependency.
type DependencyStatus = api.DependencyStatus

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	Halted        bool               `json:"halted"`
	HaltReason    string             `json:"halt_reason"`
	QueueStats    map[string]int     `json:"queue_stats"`
	LastError     string             `json:"last_error"`
	ActiveItem    *QueueItem         `json:"active_item"`
	LockPath      string             `json:"lock_path"`
	QueueDBPath   string             `json:"queue_db_path"`
	DBHealthy     bool               `json:"db_healthy"`
	DBDetail      string             `json:"db_detail"`
	HandlerHealth []HandlerHealth    `json:"handler_health"`
	Dependencies  []DependencyStatus `json:"dependencies"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest fetches a single queue item by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single queue entry.
type QueueDescribeResponse struct {
	Item QueueItem `json:"item"`
}

// QueueAddRequest enqueues a new conversion task.
type QueueAddRequest struct {
	TaskType   string          `json:"task_type"`
	SourcePath string          `json:"source_path"`
	SourceURL  string          `json:"source_url"`
	Options    json.RawMessage `json:"options"`
}

// QueueAddResponse contains the created entry.
type QueueAddResponse struct {
	Item QueueItem `json:"item"`
}

// QueueUpdateOptionsRequest replaces the options of a pending item.
type QueueUpdateOptionsRequest struct {
	ID      int64           `json:"id"`
	Options json.RawMessage `json:"options"`
}

// QueueUpdateOptionsResponse contains the updated entry.
type QueueUpdateOptionsResponse struct {
	Item QueueItem `json:"item"`
}

// QueueRemoveRequest deletes a queue item.
type QueueRemoveRequest struct {
	ID int64 `json:"id"`
}

// QueueRemoveResponse reports removal.
type QueueRemoveResponse struct {
	Removed bool `json:"removed"`
}

// QueueClearRequest removes all non-running items.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearCompletedRequest removes completed items.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed items.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueRetryRequest resets failed items back to pending.
type QueueRetryRequest struct{}

// QueueRetryResponse reports number of retried items.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueCancelRequest aborts the running task.
type QueueCancelRequest struct{}

// QueueCancelResponse reports whether a task was cancelled.
type QueueCancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// QueuePauseRequest halts automatic queue advancement.
type QueuePauseRequest struct {
	Reason string `json:"reason"`
}

// QueuePauseResponse acknowledges the pause.
type QueuePauseResponse struct {
	Paused bool `json:"paused"`
}

// QueueResumeRequest restarts automatic queue advancement.
type QueueResumeRequest struct{}

// QueueResumeResponse acknowledges the resume.
type QueueResumeResponse struct {
	Resumed bool `json:"resumed"`
}

// InspectRequest probes a media file.
type InspectRequest struct {
	Path string `json:"path"`
}

// InspectResponse carries the probe summary.
type InspectResponse struct {
	Metadata ffprobe.VideoMetadata `json:"metadata"`
}

// MetadataSaveRequest rewrites a media file's container tags in place.
type MetadataSaveRequest struct {
	Path string              `json:"path"`
	Tags ffmpeg.MetadataTags `json:"tags"`
}

// MetadataSaveResponse acknowledges the rewrite.
type MetadataSaveResponse struct {
	Saved bool `json:"saved"`
}

// PDFExportRequest renders a PDF's pages as images.
type PDFExportRequest struct {
	Path      string `json:"path"`
	OutputDir string `json:"output_dir"`
	Format    string `json:"format"`
}

// PDFExportResponse carries the folder the pages were written to.
type PDFExportResponse struct {
	Folder string `json:"folder"`
}

// PresetListRequest lists saved presets, optionally filtered by task type.
type PresetListRequest struct {
	TaskType string `json:"task_type"`
}

// PresetListResponse contains saved presets.
type PresetListResponse struct {
	Presets []presets.Preset `json:"presets"`
}

// PresetSaveRequest creates or replaces a named preset.
type PresetSaveRequest struct {
	Name     string          `json:"name"`
	TaskType string          `json:"task_type"`
	Options  json.RawMessage `json:"options"`
}

// PresetSaveResponse contains the stored preset.
type PresetSaveResponse struct {
	Preset presets.Preset `json:"preset"`
}

// PresetDeleteRequest removes a named preset.
type PresetDeleteRequest struct {
	Name string `json:"name"`
}

// PresetDeleteResponse reports deletion.
type PresetDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// LogTailRequest fetches daemon log lines. A negative offset requests the
// last Limit lines.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int64 `json:"wait_millis"`
}

// LogTailResponse carries log lines and the offset for the next call.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// DepsStatusRequest checks external binary availability.
type DepsStatusRequest struct{}

// DepsStatusResponse lists dependency availability.
type DepsStatusResponse struct {
	Dependencies []DependencyStatus `json:"dependencies"`
}
