// Package handlers implements the per-task stage handlers: encode, trim,
// audio extraction, gif conversion, and URL download.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"mediabox/internal/config"
	"mediabox/internal/logging"
	"mediabox/internal/media/ffmpeg"
	"mediabox/internal/media/ffprobe"
	"mediabox/internal/queue"
	"mediabox/internal/services"
)

// progressWriteInterval limits how often handler progress hits the database.
const progressWriteInterval = 2 * time.Second

// ProgressFunc receives throttled progress samples for live event fan-out.
type ProgressFunc func(itemID int64, percent float64, stage string, speed float64)

// Env bundles the dependencies every handler needs. Events may be nil when
// no subscriber transport is attached.
type Env struct {
	Config *config.Config
	Store  *queue.Store
	Probe  *ffprobe.Client
	Runner *ffmpeg.Runner
	Logger *slog.Logger
	Events ProgressFunc
}

func (e Env) logger(component string) *slog.Logger {
	logger := e.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return logging.WithComponent(logger, component)
}

// decodeOptions parses an item's options payload into dst.
func decodeOptions(item *queue.Item, dst any) error {
	raw := item.OptionsJSON
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return services.Wrap(services.ErrValidation, "handlers", "decode options",
			fmt.Sprintf("item %d options are malformed", item.ID), err)
	}
	return nil
}

// requireSource confirms the item's source file exists.
func requireSource(item *queue.Item) error {
	if item.SourcePath == "" {
		return services.Wrap(services.ErrValidation, "handlers", "check source",
			"item has no source path", nil)
	}
	if _, err := os.Stat(item.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "handlers", "check source",
			fmt.Sprintf("source %s is not accessible", item.SourcePath), err)
	}
	return nil
}

// resolveOutput applies the overwrite policy to a candidate output path.
func resolveOutput(cfg *config.Config, candidate string) string {
	if cfg.Output.OverwriteExisting {
		return candidate
	}
	return ffmpeg.UniqueOutputName(candidate)
}

// progressSink throttles database progress writes and mirrors each written
// sample to subscribers. The final 100 percent sample always lands.
type progressSink struct {
	mu     sync.Mutex
	store  *queue.Store
	notify ProgressFunc
	itemID int64
	stage  string
	last   time.Time
}

func newProgressSink(env Env, itemID int64, stageName string) *progressSink {
	return &progressSink{store: env.Store, notify: env.Events, itemID: itemID, stage: stageName}
}

func (p *progressSink) ffmpegProgress(ctx context.Context) ffmpeg.ProgressFunc {
	return func(sample ffmpeg.Progress) {
		p.record(ctx, sample.Percent, sample.Speed)
	}
}

func (p *progressSink) record(ctx context.Context, percent, speed float64) {
	p.mu.Lock()
	now := time.Now()
	if percent < 100 && now.Sub(p.last) < progressWriteInterval {
		p.mu.Unlock()
		return
	}
	p.last = now
	p.mu.Unlock()
	// Progress writes are advisory; a failed write must not kill the task.
	_ = p.store.UpdateProgress(ctx, p.itemID, percent, p.stage, speed)
	if p.notify != nil {
		p.notify(p.itemID, percent, p.stage, speed)
	}
}
