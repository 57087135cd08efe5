// Package daemon coordinates the queue store, workflow manager, preview
// generator, and the two control surfaces (unix socket RPC and the local
// HTTP API). It enforces single-instance execution through a lock file.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"mediabox/internal/config"
	"mediabox/internal/deps"
	"mediabox/internal/handlers"
	"mediabox/internal/logging"
	"mediabox/internal/media/ffmpeg"
	"mediabox/internal/media/ffprobe"
	"mediabox/internal/preflight"
	"mediabox/internal/presets"
	"mediabox/internal/preview"
	"mediabox/internal/queue"
	"mediabox/internal/stage"
	"mediabox/internal/staging"
	"mediabox/internal/workflow"
)

type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	probe    *ffprobe.Client
	previews *preview.Generator
	runner   *ffmpeg.Runner
	presets  *presets.Store
	hub      *Hub

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	Workflow     workflow.Status
	Database     queue.HealthSummary
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, probe *ffprobe.Client, previews *preview.Generator, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		workflow: wf,
		probe:    probe,
		previews: previews,
		presets:  presets.NewStore(cfg.PresetsPath()),
		hub:      NewHub(logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Option customizes daemon construction.
type Option func(*Daemon)

// WithHub wires a pre-built event hub instead of a fresh one. The caller uses
// this when the hub must exist before the workflow manager is constructed.
func WithHub(hub *Hub) Option {
	return func(d *Daemon) {
		if hub != nil {
			d.hub = hub
		}
	}
}

// WithRunner wires the shared ffmpeg runner so the daemon can run direct
// conversions such as metadata rewrites outside the queue.
func WithRunner(runner *ffmpeg.Runner) Option {
	return func(d *Daemon) {
		d.runner = runner
	}
}

// Hub exposes the event hub so the workflow manager can publish to it.
func (d *Daemon) Hub() *Hub {
	return d.hub
}

// Presets exposes the named-preset store.
func (d *Daemon) Presets() *presets.Store {
	return d.presets
}

// Start launches the workflow manager and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mediabox daemon instance is already running")
	}

	// Reclaim disk left behind by a previous run before processing resumes.
	staging.SweepWorkDir(d.cfg.Paths.WorkDir, d.cfg.StaleWorkAge(), d.logger)
	staging.SweepPartialDownloads(d.cfg.Download.Dir, d.cfg.StaleWorkAge(), d.logger)

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.workflow.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("mediabox daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if d.api != nil {
		d.api.stop()
	}
	d.hub.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("mediabox daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Enqueue validates a new conversion task and adds it to the queue.
func (d *Daemon) Enqueue(ctx context.Context, task queue.TaskType, sourcePath, sourceURL string, options json.RawMessage) (*queue.Item, error) {
	var title string
	switch {
	case task == queue.TaskDownload:
		trimmed := strings.TrimSpace(sourceURL)
		if trimmed == "" {
			return nil, errors.New("download tasks require a source url")
		}
		sourceURL = trimmed
		sourcePath = ""
		title = trimmed
	default:
		trimmed := strings.TrimSpace(sourcePath)
		if trimmed == "" {
			return nil, errors.New("source path is required")
		}
		absPath, err := filepath.Abs(trimmed)
		if err != nil {
			return nil, fmt.Errorf("resolve source path: %w", err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("stat source file: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("source path %q is a directory", absPath)
		}
		sourcePath = absPath
		title = filepath.Base(absPath)
	}

	optionsJSON := ""
	if len(options) > 0 {
		if !json.Valid(options) {
			return nil, errors.New("options must be valid JSON")
		}
		if err := handlers.ValidateOptions(task, options); err != nil {
			return nil, err
		}
		optionsJSON = string(options)
	}

	item, err := d.store.NewTask(ctx, title, task, sourcePath, sourceURL, optionsJSON)
	if err != nil {
		return nil, err
	}
	d.logger.Info("task queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldTaskType, string(task)))
	return item, nil
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// DescribeItem returns a single queue item.
func (d *Daemon) DescribeItem(ctx context.Context, id int64) (*queue.Item, error) {
	return d.store.GetByID(ctx, id)
}

// UpdateItemOptions replaces the options payload of an editable item. The
// payload is validated against the item's task type before it is stored.
func (d *Daemon) UpdateItemOptions(ctx context.Context, id int64, options json.RawMessage) (*queue.Item, error) {
	if len(options) > 0 && !json.Valid(options) {
		return nil, errors.New("options must be valid JSON")
	}
	item, err := d.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(options) > 0 {
		if err := handlers.ValidateOptions(item.TaskType, options); err != nil {
			return nil, err
		}
	}
	return d.store.UpdateOptions(ctx, id, string(options))
}

// RemoveItem deletes a queue item. The active item must be cancelled first.
func (d *Daemon) RemoveItem(ctx context.Context, id int64) error {
	item, err := d.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item.Status == queue.StatusRunning {
		return fmt.Errorf("%w: cancel the running item before removing it", queue.ErrNotEditable)
	}
	return d.store.Remove(ctx, id)
}

// ClearQueue removes all non-running queue items.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.ClearAll(ctx)
}

// ClearCompleted removes only completed queue items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed queue items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// RetryFailed resets failed items back to pending and resumes processing.
func (d *Daemon) RetryFailed(ctx context.Context) (int64, error) {
	count, err := d.store.RetryFailed(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		d.workflow.Resume()
	}
	return count, nil
}

// CancelActive aborts the currently running task, if any.
func (d *Daemon) CancelActive(context.Context) bool {
	return d.workflow.CancelActive()
}

// PauseQueue halts automatic queue advancement.
func (d *Daemon) PauseQueue(reason string) {
	if strings.TrimSpace(reason) == "" {
		reason = "paused by operator"
	}
	d.workflow.Pause(reason)
}

// ResumeQueue restarts automatic queue advancement.
func (d *Daemon) ResumeQueue() {
	d.workflow.Resume()
}

// HandlerHealth reports readiness of every registered task handler.
func (d *Daemon) HandlerHealth(ctx context.Context) []stage.Health {
	return d.workflow.Health(ctx)
}

// QueueStats returns aggregate queue counts.
func (d *Daemon) QueueStats(ctx context.Context) (queue.Stats, error) {
	return d.store.Stats(ctx)
}

// Previews returns the thumbnail and waveform generator.
func (d *Daemon) Previews() *preview.Generator {
	return d.previews
}

// InspectMedia probes a media file and returns its summary metadata.
func (d *Daemon) InspectMedia(ctx context.Context, path string) (*ffprobe.VideoMetadata, error) {
	if d.probe == nil {
		return nil, errors.New("media prober unavailable")
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("path is required")
	}
	return d.probe.VideoMetadata(ctx, trimmed)
}

// SaveMetadata rewrites a media file's container tags in place through a
// stream-copy into a temp sibling.
func (d *Daemon) SaveMetadata(ctx context.Context, path string, tags ffmpeg.MetadataTags) error {
	if d.runner == nil {
		return errors.New("ffmpeg runner unavailable")
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return errors.New("path is required")
	}
	if _, err := os.Stat(trimmed); err != nil {
		return fmt.Errorf("stat source file: %w", err)
	}
	return ffmpeg.SaveMetadata(ctx, d.runner, trimmed, tags)
}

// ExportPDFPages renders a PDF's pages as images into a folder next to the
// requested output directory and returns the folder path.
func (d *Daemon) ExportPDFPages(ctx context.Context, path, outputDir, format string) (string, error) {
	if d.runner == nil {
		return "", errors.New("ffmpeg runner unavailable")
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is required")
	}
	if _, err := os.Stat(trimmed); err != nil {
		return "", fmt.Errorf("stat source file: %w", err)
	}
	return ffmpeg.ExportPDFPages(ctx, d.runner, trimmed, strings.TrimSpace(outputDir), format)
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.cfg.LogPath()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.cfg.QueueDBPath(),
		LockFilePath: d.lockPath,
		Workflow:     d.workflow.Status(),
		Database:     d.store.CheckHealth(ctx),
		Dependencies: preflight.CheckSystemDeps(d.cfg),
	}
}
