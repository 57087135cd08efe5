package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mediabox/internal/language"
	"mediabox/internal/logging"
	"mediabox/internal/media/ffmpeg"
	"mediabox/internal/queue"
	"mediabox/internal/services"
	"mediabox/internal/stage"
)

// Extract pulls the audio track out of a video.
type Extract struct {
	env    Env
	logger *slog.Logger
}

// NewExtract constructs the extract handler.
func NewExtract(env Env) *Extract {
	return &Extract{env: env, logger: env.logger("extract")}
}

func (h *Extract) options(item *queue.Item) (ffmpeg.ExtractOptions, error) {
	var opts ffmpeg.ExtractOptions
	if err := decodeOptions(item, &opts); err != nil {
		return opts, err
	}
	if err := opts.Validate(); err != nil {
		return opts, services.Wrap(services.ErrValidation, "extract", "validate options", "", err)
	}
	return opts, nil
}

// Prepare confirms the source actually carries audio and resolves the
// output path.
func (h *Extract) Prepare(ctx context.Context, item *queue.Item) error {
	if err := requireSource(item); err != nil {
		return err
	}
	opts, err := h.options(item)
	if err != nil {
		return err
	}

	hasAudio, err := h.env.Probe.HasAudioStream(ctx, item.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "probe source", "", err)
	}
	if !hasAudio {
		return services.Wrap(services.ErrValidation, "extract", "probe source",
			"source has no audio stream", nil)
	}
	if _, err := h.resolveStream(ctx, item.SourcePath, &opts); err != nil {
		return err
	}

	candidate := ffmpeg.OutputName(h.env.Config.Paths.OutputDir, item.SourcePath, "_audio", ffmpeg.ExtractExtension(opts.Format))
	item.OutputPath = resolveOutput(h.env.Config, candidate)
	return nil
}

// resolveStream maps an options language tag to the ordinal of the matching
// audio stream, mutating opts.Stream. It reports the languages it saw so
// callers can build a useful error.
func (h *Extract) resolveStream(ctx context.Context, path string, opts *ffmpeg.ExtractOptions) (int, error) {
	if strings.TrimSpace(opts.Language) == "" {
		if opts.Stream != nil {
			return *opts.Stream, nil
		}
		return 0, nil
	}
	want := language.ToISO3(opts.Language)
	report, err := h.env.Probe.Inspect(ctx, path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "extract", "probe streams", "", err)
	}

	ordinal := 0
	var seen []string
	for _, stream := range report.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		tag := language.ExtractFromTags(stream.Tags)
		if language.ToISO3(tag) == want {
			opts.Stream = &ordinal
			return ordinal, nil
		}
		if tag != "" {
			seen = append(seen, language.DisplayName(tag))
		}
		ordinal++
	}

	detail := fmt.Sprintf("no %s audio stream in %s", language.DisplayName(opts.Language), path)
	if len(seen) > 0 {
		detail += fmt.Sprintf(" (found: %s)", strings.Join(seen, ", "))
	}
	return 0, services.Wrap(services.ErrValidation, "extract", "select audio stream", detail, nil)
}

// Execute runs the extraction.
func (h *Extract) Execute(ctx context.Context, item *queue.Item) error {
	opts, err := h.options(item)
	if err != nil {
		return err
	}
	if _, err := h.resolveStream(ctx, item.SourcePath, &opts); err != nil {
		return err
	}
	args, err := ffmpeg.BuildExtractArgs(item.SourcePath, item.OutputPath, opts)
	if err != nil {
		return services.Wrap(services.ErrValidation, "extract", "build arguments", "", err)
	}

	meta, err := h.env.Probe.VideoMetadata(ctx, item.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "probe source", "", err)
	}

	h.logger.Info("extract starting",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("format", opts.Format))

	sink := newProgressSink(h.env, item.ID, "extracting")
	if err := h.env.Runner.Run(ctx, args, meta.Duration, item.OutputPath, sink.ffmpegProgress(ctx)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "extract", "run ffmpeg", "", err)
	}
	return nil
}

// HealthCheck reports handler readiness.
func (h *Extract) HealthCheck(context.Context) stage.Health {
	return binaryHealth("extract", h.env.Config.Tools.FFmpeg)
}
