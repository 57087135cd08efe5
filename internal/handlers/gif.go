package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"mediabox/internal/logging"
	"mediabox/internal/media/ffmpeg"
	"mediabox/internal/queue"
	"mediabox/internal/services"
	"mediabox/internal/stage"
)

// gifOptions covers both gif modes: a video clip conversion, or stitching a
// list of still images into an animation.
type gifOptions struct {
	ffmpeg.GifOptions
	Images        []string `json:"images"`
	FrameDuration float64  `json:"frame_duration"`
}

func (o *gifOptions) imageMode() bool {
	return len(o.Images) > 0
}

// Gif converts video clips or image sequences to animated gifs.
type Gif struct {
	env    Env
	logger *slog.Logger
}

// NewGif constructs the gif handler.
func NewGif(env Env) *Gif {
	return &Gif{env: env, logger: env.logger("gif")}
}

func (h *Gif) options(item *queue.Item) (gifOptions, error) {
	var opts gifOptions
	if err := decodeOptions(item, &opts); err != nil {
		return opts, err
	}
	if opts.imageMode() {
		imageOpts := ffmpeg.ImageGifOptions{FrameDuration: opts.FrameDuration, Width: opts.Width, Loop: opts.Loop}
		if err := imageOpts.Validate(); err != nil {
			return opts, services.Wrap(services.ErrValidation, "gif", "validate options", "", err)
		}
		return opts, nil
	}
	if err := opts.GifOptions.Validate(); err != nil {
		return opts, services.Wrap(services.ErrValidation, "gif", "validate options", "", err)
	}
	return opts, nil
}

// Prepare validates inputs and resolves the output path. Video conversions
// produce <stem>_converted.gif, image sequences <stem>_animated.gif.
func (h *Gif) Prepare(_ context.Context, item *queue.Item) error {
	opts, err := h.options(item)
	if err != nil {
		return err
	}

	if opts.imageMode() {
		for _, image := range opts.Images {
			if _, err := os.Stat(image); err != nil {
				return services.Wrap(services.ErrValidation, "gif", "check images",
					fmt.Sprintf("image %s is not accessible", image), err)
			}
		}
		candidate := ffmpeg.OutputName(h.env.Config.Paths.OutputDir, opts.Images[0], "_animated", "gif")
		item.OutputPath = resolveOutput(h.env.Config, candidate)
		return nil
	}

	if err := requireSource(item); err != nil {
		return err
	}
	candidate := ffmpeg.OutputName(h.env.Config.Paths.OutputDir, item.SourcePath, "_converted", "gif")
	item.OutputPath = resolveOutput(h.env.Config, candidate)
	return nil
}

// Execute renders the gif.
func (h *Gif) Execute(ctx context.Context, item *queue.Item) error {
	opts, err := h.options(item)
	if err != nil {
		return err
	}

	sink := newProgressSink(h.env, item.ID, "rendering gif")

	if opts.imageMode() {
		return h.executeImages(ctx, item, opts, sink)
	}

	args, err := ffmpeg.BuildGifArgs(item.SourcePath, item.OutputPath, opts.GifOptions)
	if err != nil {
		return services.Wrap(services.ErrValidation, "gif", "build arguments", "", err)
	}

	total := opts.End - opts.Start
	if total <= 0 {
		meta, err := h.env.Probe.VideoMetadata(ctx, item.SourcePath)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "gif", "probe source", "", err)
		}
		total = meta.Duration - opts.Start
	}

	h.logger.Info("gif conversion starting",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("output", item.OutputPath))

	if err := h.env.Runner.Run(ctx, args, total, item.OutputPath, sink.ffmpegProgress(ctx)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "gif", "run ffmpeg", "", err)
	}
	return nil
}

func (h *Gif) executeImages(ctx context.Context, item *queue.Item, opts gifOptions, sink *progressSink) error {
	list, err := os.CreateTemp(h.env.Config.Paths.WorkDir, "gif-frames-*.txt")
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "gif", "write frame list", "", err)
	}
	listPath := list.Name()
	defer os.Remove(listPath)

	if _, err := list.WriteString(ffmpeg.ConcatList(opts.Images, opts.FrameDuration)); err != nil {
		list.Close()
		return services.Wrap(services.ErrExternalTool, "gif", "write frame list", "", err)
	}
	if err := list.Close(); err != nil {
		return services.Wrap(services.ErrExternalTool, "gif", "write frame list", "", err)
	}

	imageOpts := ffmpeg.ImageGifOptions{FrameDuration: opts.FrameDuration, Width: opts.Width, Loop: opts.Loop}
	args, err := ffmpeg.BuildImageGifArgs(listPath, item.OutputPath, imageOpts)
	if err != nil {
		return services.Wrap(services.ErrValidation, "gif", "build arguments", "", err)
	}

	h.logger.Info("image gif starting",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.Int("frames", len(opts.Images)))

	total := opts.FrameDuration * float64(len(opts.Images))
	if err := h.env.Runner.Run(ctx, args, total, item.OutputPath, sink.ffmpegProgress(ctx)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "gif", "run ffmpeg", "", err)
	}
	return nil
}

// HealthCheck reports handler readiness.
func (h *Gif) HealthCheck(context.Context) stage.Health {
	return binaryHealth("gif", h.env.Config.Tools.FFmpeg)
}
