package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// BuildEncodeArgs assembles the ffmpeg argument list for a re-encode.
func BuildEncodeArgs(source, output string, opts EncodeOptions) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	args := []string{"-y", "-i", source}
	for _, track := range opts.AudioTracks {
		args = append(args, "-i", track)
	}
	for _, track := range opts.SubtitleTracks {
		args = append(args, "-i", track)
	}
	if extra := len(opts.AudioTracks) + len(opts.SubtitleTracks); extra > 0 {
		// Extra inputs disable ffmpeg's default stream selection, so the
		// source's streams have to be mapped explicitly too.
		args = append(args, "-map", "0:v:0")
		if !opts.RemoveAudio {
			args = append(args, "-map", "0:a?")
		}
		args = append(args, "-map", "0:s?")
		for i := 1; i <= extra; i++ {
			args = append(args, "-map", strconv.Itoa(i))
		}
	}

	videoEncoder, _ := VideoEncoder(opts.VideoCodec)
	args = append(args, "-c:v", videoEncoder)

	if videoEncoder != "copy" {
		if scale, _ := ScaleFilter(opts.Resolution); scale != "" {
			args = append(args, "-vf", scale)
		}
		if opts.FrameRate > 0 {
			args = append(args, "-r", formatFloat(opts.FrameRate))
		}
		if opts.VideoBitrate != "" {
			args = append(args, "-b:v", opts.VideoBitrate)
		} else if usesCRF(videoEncoder) {
			crf := opts.CRF
			if crf == 0 {
				crf = 23
			}
			args = append(args, "-crf", strconv.Itoa(crf))
		}
		if opts.Preset != "" && supportsPreset(videoEncoder) {
			args = append(args, "-preset", opts.Preset)
		}
	}

	if opts.RemoveAudio {
		args = append(args, "-an")
	} else {
		audioEncoder, _ := AudioEncoder(opts.AudioCodec)
		args = append(args, "-c:a", audioEncoder)
		if audioEncoder != "copy" && opts.AudioBitrate != "" {
			args = append(args, "-b:a", opts.AudioBitrate)
		}
	}

	if len(opts.SubtitleTracks) > 0 {
		args = append(args, "-c:s", SubtitleCodec(output))
	}

	if opts.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(opts.Threads))
	}
	if opts.CustomArgs != "" {
		args = append(args, strings.Fields(opts.CustomArgs)...)
	}

	args = append(args, output)
	return args, nil
}

// SubtitleCodec picks the subtitle codec by output container: mp4 and mov
// need mov_text, everything else keeps the source codec.
func SubtitleCodec(output string) string {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".") {
	case "mp4", "mov":
		return "mov_text"
	default:
		return "copy"
	}
}

// BuildTrimArgs assembles arguments for cutting a clip. Stream copy keeps
// -ss before the input for fast keyframe seeking; re-encode places it after
// for frame accuracy.
func BuildTrimArgs(source, output string, opts TrimOptions) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	duration := opts.End - opts.Start
	var args []string
	if opts.Reencode {
		args = []string{"-y", "-i", source,
			"-ss", formatFloat(opts.Start),
			"-t", formatFloat(duration),
			"-c:v", "libx264", "-crf", "18", "-preset", "fast",
			"-c:a", "aac",
		}
	} else {
		args = []string{"-y",
			"-ss", formatFloat(opts.Start),
			"-i", source,
			"-t", formatFloat(duration),
			"-c", "copy",
			"-avoid_negative_ts", "make_zero",
		}
	}
	args = append(args, output)
	return args, nil
}

// BuildExtractArgs assembles arguments for pulling the audio track.
func BuildExtractArgs(source, output string, opts ExtractOptions) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	args := []string{"-y", "-i", source, "-vn"}
	if opts.Stream != nil {
		// An explicit choice always maps, including stream 0: ffmpeg's
		// default would otherwise pick the stream with the most channels.
		args = append(args, "-map", fmt.Sprintf("0:a:%d", *opts.Stream))
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" || format == "copy" {
		args = append(args, "-c:a", "copy")
	} else {
		encoder, _ := AudioEncoder(format)
		args = append(args, "-c:a", encoder)
		if opts.SampleRate != 0 {
			args = append(args, "-ar", strconv.Itoa(opts.SampleRate))
		}
		if format == "flac" && opts.FLACLevel != nil {
			args = append(args, "-compression_level", strconv.Itoa(*opts.FLACLevel))
		}
		if format == "mp3" && strings.EqualFold(opts.MP3Mode, "vbr") {
			if opts.MP3Quality != nil {
				args = append(args, "-q:a", strconv.Itoa(*opts.MP3Quality))
			}
		} else if opts.Bitrate != "" {
			args = append(args, "-b:a", opts.Bitrate)
		}
	}
	args = append(args, output)
	return args, nil
}

// ExtractExtension returns the container extension for an audio format.
func ExtractExtension(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "mp3":
		return "mp3"
	case "opus":
		return "opus"
	case "flac":
		return "flac"
	case "wav":
		return "wav"
	case "ac3":
		return "ac3"
	default:
		return "m4a"
	}
}

// BuildGifArgs assembles a single-pass video-to-gif conversion using the
// palettegen/paletteuse filter chain.
func BuildGifArgs(source, output string, opts GifOptions) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	fps := opts.FrameRate
	if fps == 0 {
		fps = 15
	}
	width := opts.Width
	if width == 0 {
		width = 480
	}

	// Filter order: crop, then retiming, then fps and scale, then the
	// palette pass.
	var stages []string
	if opts.Crop != nil {
		stages = append(stages, fmt.Sprintf("crop=%d:%d:%d:%d",
			opts.Crop.W, opts.Crop.H, opts.Crop.X, opts.Crop.Y))
	}
	if opts.Speed != 0 && opts.Speed != 1 {
		stages = append(stages, "setpts=PTS/"+formatFloat(opts.Speed))
	}
	stages = append(stages,
		"fps="+formatFloat(fps),
		fmt.Sprintf("scale=%d:-2:flags=lanczos", width))
	filter := strings.Join(stages, ",") + ",split[a][b];[a]palettegen[p];[b][p]paletteuse"

	args := []string{"-y"}
	if opts.Start > 0 {
		args = append(args, "-ss", formatFloat(opts.Start))
	}
	args = append(args, "-i", source)
	if opts.End > opts.Start {
		args = append(args, "-t", formatFloat(opts.End-opts.Start))
	}
	args = append(args, "-filter_complex", filter)
	loop := "0"
	if !opts.Loop {
		loop = "-1"
	}
	args = append(args, "-loop", loop, output)
	return args, nil
}

// BuildImageGifArgs assembles an image-sequence-to-gif conversion using the
// concat demuxer. listPath is a concat list file naming each image with its
// display duration.
func BuildImageGifArgs(listPath, output string, opts ImageGifOptions) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	width := opts.Width
	if width == 0 {
		width = 480
	}
	filter := fmt.Sprintf(
		"scale=%d:-2:flags=lanczos,split[a][b];[a]palettegen[p];[b][p]paletteuse",
		width)

	loop := "0"
	if !opts.Loop {
		loop = "-1"
	}
	return []string{"-y",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-filter_complex", filter,
		"-loop", loop,
		output,
	}, nil
}

// ConcatList renders the concat demuxer list for an image sequence. The
// final frame is repeated without a duration so it is not dropped.
func ConcatList(images []string, frameDuration float64) string {
	var b strings.Builder
	for _, image := range images {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(image, "'", `'\''`))
		fmt.Fprintf(&b, "duration %s\n", formatFloat(frameDuration))
	}
	if len(images) > 0 {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(images[len(images)-1], "'", `'\''`))
	}
	return b.String()
}

func usesCRF(encoder string) bool {
	switch encoder {
	case "libx264", "libx265", "libvpx-vp9":
		return true
	default:
		return false
	}
}

func supportsPreset(encoder string) bool {
	switch encoder {
	case "libx264", "libx265", "h264_nvenc", "hevc_nvenc":
		return true
	default:
		return false
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
