package handlers

import (
	"context"
	"log/slog"

	"mediabox/internal/logging"
	"mediabox/internal/media/ffmpeg"
	"mediabox/internal/queue"
	"mediabox/internal/services"
	"mediabox/internal/stage"
	"mediabox/internal/trim"
)

// Trim cuts a clip out of a video using the saved selection.
type Trim struct {
	env    Env
	logger *slog.Logger
}

// NewTrim constructs the trim handler.
func NewTrim(env Env) *Trim {
	return &Trim{env: env, logger: env.logger("trim")}
}

func (h *Trim) options(item *queue.Item) (ffmpeg.TrimOptions, error) {
	var opts ffmpeg.TrimOptions
	if err := decodeOptions(item, &opts); err != nil {
		return opts, err
	}
	if err := opts.Validate(); err != nil {
		return opts, services.Wrap(services.ErrValidation, "trim", "validate options", "", err)
	}
	return opts, nil
}

// Prepare validates the selection against the real media duration and
// resolves the output path.
func (h *Trim) Prepare(ctx context.Context, item *queue.Item) error {
	if err := requireSource(item); err != nil {
		return err
	}
	opts, err := h.options(item)
	if err != nil {
		return err
	}

	meta, err := h.env.Probe.VideoMetadata(ctx, item.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "trim", "probe source", "", err)
	}
	selection := trim.Selection{Start: opts.Start, End: opts.End, Duration: meta.Duration}
	if err := selection.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "trim", "validate selection",
			"selection exceeds media bounds", err)
	}

	candidate := ffmpeg.OutputName(h.env.Config.Paths.OutputDir, item.SourcePath, "_trimmed", "mp4")
	item.OutputPath = resolveOutput(h.env.Config, candidate)
	return nil
}

// Execute performs the cut.
func (h *Trim) Execute(ctx context.Context, item *queue.Item) error {
	opts, err := h.options(item)
	if err != nil {
		return err
	}
	args, err := ffmpeg.BuildTrimArgs(item.SourcePath, item.OutputPath, opts)
	if err != nil {
		return services.Wrap(services.ErrValidation, "trim", "build arguments", "", err)
	}

	h.logger.Info("trim starting",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.Float64("start", opts.Start),
		logging.Float64("end", opts.End))

	sink := newProgressSink(h.env, item.ID, "trimming")
	if err := h.env.Runner.Run(ctx, args, opts.End-opts.Start, item.OutputPath, sink.ffmpegProgress(ctx)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "trim", "run ffmpeg", "", err)
	}
	return nil
}

// HealthCheck reports handler readiness.
func (h *Trim) HealthCheck(context.Context) stage.Health {
	return binaryHealth("trim", h.env.Config.Tools.FFmpeg)
}
