package handlers

import (
	"encoding/json"

	"mediabox/internal/media/ffmpeg"
	"mediabox/internal/queue"
	"mediabox/internal/services"
	"mediabox/internal/services/ytdlp"
)

// ValidateOptions decodes raw as the options payload for task and applies the
// same checks the handler runs in Prepare. The control surfaces call it so a
// malformed payload is rejected at enqueue or edit time instead of surfacing
// as a failure when the item finally runs.
func ValidateOptions(task queue.TaskType, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	decode := func(dst any) error {
		if err := json.Unmarshal(raw, dst); err != nil {
			return services.Wrap(services.ErrValidation, "handlers", "decode options", "", err)
		}
		return nil
	}
	switch task {
	case queue.TaskEncode:
		var opts ffmpeg.EncodeOptions
		if err := decode(&opts); err != nil {
			return err
		}
		return opts.Validate()
	case queue.TaskTrim:
		var opts ffmpeg.TrimOptions
		if err := decode(&opts); err != nil {
			return err
		}
		return opts.Validate()
	case queue.TaskExtract:
		var opts ffmpeg.ExtractOptions
		if err := decode(&opts); err != nil {
			return err
		}
		return opts.Validate()
	case queue.TaskGif:
		var opts gifOptions
		if err := decode(&opts); err != nil {
			return err
		}
		if opts.imageMode() {
			imageOpts := ffmpeg.ImageGifOptions{FrameDuration: opts.FrameDuration, Width: opts.Width, Loop: opts.Loop}
			return imageOpts.Validate()
		}
		return opts.GifOptions.Validate()
	case queue.TaskDownload:
		var opts ytdlp.DownloadOptions
		if err := decode(&opts); err != nil {
			return err
		}
		return opts.Validate()
	}
	return nil
}
