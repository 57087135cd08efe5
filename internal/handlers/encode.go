package handlers

import (
	"context"
	"log/slog"
	"strings"

	"mediabox/internal/logging"
	"mediabox/internal/media/ffmpeg"
	"mediabox/internal/queue"
	"mediabox/internal/services"
	"mediabox/internal/stage"
)

// Encode re-encodes a video with the requested codecs and resolution.
type Encode struct {
	env    Env
	logger *slog.Logger
}

// NewEncode constructs the encode handler.
func NewEncode(env Env) *Encode {
	return &Encode{env: env, logger: env.logger("encode")}
}

func (h *Encode) options(item *queue.Item) (ffmpeg.EncodeOptions, error) {
	opts := ffmpeg.EncodeOptions{
		Preset:  h.env.Config.Encoding.DefaultPreset,
		CRF:     h.env.Config.Encoding.DefaultCRF,
		Threads: h.env.Config.Encoding.Threads,
	}
	if err := decodeOptions(item, &opts); err != nil {
		return opts, err
	}
	if err := opts.Validate(); err != nil {
		return opts, services.Wrap(services.ErrValidation, "encode", "validate options", "", err)
	}
	return opts, nil
}

// Prepare validates options and resolves the output path.
func (h *Encode) Prepare(_ context.Context, item *queue.Item) error {
	if err := requireSource(item); err != nil {
		return err
	}
	opts, err := h.options(item)
	if err != nil {
		return err
	}

	ext := strings.ToLower(strings.TrimSpace(opts.Container))
	if ext == "" {
		ext = "mp4"
	}
	candidate := ffmpeg.OutputName(h.env.Config.Paths.OutputDir, item.SourcePath, h.env.Config.Output.Suffix, ext)
	item.OutputPath = resolveOutput(h.env.Config, candidate)
	return nil
}

// Execute runs the encode with stderr progress feeding the queue.
func (h *Encode) Execute(ctx context.Context, item *queue.Item) error {
	opts, err := h.options(item)
	if err != nil {
		return err
	}
	args, err := ffmpeg.BuildEncodeArgs(item.SourcePath, item.OutputPath, opts)
	if err != nil {
		return services.Wrap(services.ErrValidation, "encode", "build arguments", "", err)
	}

	meta, err := h.env.Probe.VideoMetadata(ctx, item.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "encode", "probe source", "", err)
	}

	h.logger.Info("encode starting",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("codec", opts.VideoCodec),
		logging.String("output", item.OutputPath))

	sink := newProgressSink(h.env, item.ID, "encoding")
	if err := h.env.Runner.Run(ctx, args, meta.Duration, item.OutputPath, sink.ffmpegProgress(ctx)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "encode", "run ffmpeg", "", err)
	}
	return nil
}

// HealthCheck reports handler readiness.
func (h *Encode) HealthCheck(context.Context) stage.Health {
	return binaryHealth("encode", h.env.Config.Tools.FFmpeg)
}
