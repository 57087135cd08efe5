package main

import (
	"log/slog"

	"mediabox/internal/config"
	"mediabox/internal/handlers"
	"mediabox/internal/media/ffmpeg"
	"mediabox/internal/media/ffprobe"
	"mediabox/internal/queue"
	"mediabox/internal/services/ytdlp"
	"mediabox/internal/stage"
	"mediabox/internal/workflow"
)

type handlerRegistrar interface {
	Register(queue.TaskType, stage.Handler)
}

func registerHandlers(reg handlerRegistrar, cfg *config.Config, store *queue.Store, logger *slog.Logger, progress handlers.ProgressFunc) {
	if reg == nil || cfg == nil {
		return
	}

	env := handlers.Env{
		Config: cfg,
		Store:  store,
		Probe:  ffprobe.New(cfg.Tools.FFprobe),
		Runner: ffmpeg.NewRunner(cfg.Tools.FFmpeg, cfg.Encoding.WorkPriority, logger),
		Logger: logger,
		Events: progress,
	}

	downloader := ytdlp.New(cfg.Tools.YtDlp,
		ytdlp.WithUserAgent(cfg.Download.UserAgent),
		ytdlp.WithForceIPv4(cfg.Download.ForceIPv4),
		ytdlp.WithLogger(logger))

	reg.Register(queue.TaskEncode, handlers.NewEncode(env))
	reg.Register(queue.TaskTrim, handlers.NewTrim(env))
	reg.Register(queue.TaskExtract, handlers.NewExtract(env))
	reg.Register(queue.TaskGif, handlers.NewGif(env))
	reg.Register(queue.TaskDownload, handlers.NewDownload(env, downloader))
}

var _ handlerRegistrar = (*workflow.Manager)(nil)
