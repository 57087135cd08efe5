package handlers

import (
	"context"
	"log/slog"

	"mediabox/internal/logging"
	"mediabox/internal/queue"
	"mediabox/internal/services"
	"mediabox/internal/services/ytdlp"
	"mediabox/internal/stage"
	"mediabox/internal/textutil"
)

// Download fetches media from a URL via yt-dlp.
type Download struct {
	env    Env
	client *ytdlp.Client
	logger *slog.Logger
}

// NewDownload constructs the download handler.
func NewDownload(env Env, client *ytdlp.Client) *Download {
	return &Download{env: env, client: client, logger: env.logger("download")}
}

// Prepare validates the URL. The final path is only known after yt-dlp
// finishes, so Prepare records the destination directory. When metadata is
// reachable the item title switches from the raw URL to the media title.
func (h *Download) Prepare(ctx context.Context, item *queue.Item) error {
	if err := ytdlp.ValidateURL(item.SourceURL); err != nil {
		return err
	}
	var opts ytdlp.DownloadOptions
	if err := decodeOptions(item, &opts); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	if info, err := h.client.Info(ctx, item.SourceURL); err == nil {
		title := info.Title
		if info.IsPlaylist() && len(info.Entries) > 0 {
			// Downloads stay single-video; the first entry names the item.
			title = info.Entries[0].Title
		}
		if title = textutil.SanitizeFileName(title); title != "" {
			item.Title = title
		}
		h.logger.Debug("media info resolved",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String("title", title),
			logging.String("duration", ytdlp.DurationString(info.Duration)))
	} else if ctx.Err() != nil {
		return ctx.Err()
	}

	item.OutputPath = h.env.Config.Download.Dir
	return nil
}

// Execute runs the download, rewriting OutputPath to the final file.
func (h *Download) Execute(ctx context.Context, item *queue.Item) error {
	var opts ytdlp.DownloadOptions
	if err := decodeOptions(item, &opts); err != nil {
		return err
	}

	h.logger.Info("download starting",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("url", item.SourceURL))

	sink := newProgressSink(h.env, item.ID, "downloading")
	finalPath, err := h.client.Download(ctx, item.SourceURL, h.env.Config.Download.Dir, opts,
		func(percent float64) { sink.record(ctx, percent, 0) })
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "download", "run yt-dlp", "", err)
	}

	item.OutputPath = finalPath
	return nil
}

// HealthCheck reports handler readiness.
func (h *Download) HealthCheck(context.Context) stage.Health {
	return binaryHealth("download", h.env.Config.Tools.YtDlp)
}
