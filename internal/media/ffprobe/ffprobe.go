package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// commandContext is swapped in tests to stub the ffprobe binary.
var commandContext = exec.CommandContext

// Client wraps an ffprobe binary.
type Client struct {
	binary string
}

// New returns a Client using the given binary path, defaulting to "ffprobe".
func New(binary string) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	return &Client{binary: binary}
}

// Report is the parsed ffprobe output for one file.
type Report struct {
	Format  Format   `json:"format"`
	Streams []Stream `json:"streams"`
}

// Format mirrors ffprobe's format section.
type Format struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

// Stream mirrors one entry of ffprobe's streams section.
type Stream struct {
	Index      int               `json:"index"`
	CodecType  string            `json:"codec_type"`
	CodecName  string            `json:"codec_name"`
	Profile    string            `json:"profile"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	PixFmt     string            `json:"pix_fmt"`
	RFrameRate string            `json:"r_frame_rate"`
	SampleRate string            `json:"sample_rate"`
	Channels   int               `json:"channels"`
	BitRate    string            `json:"bit_rate"`
	Duration   string            `json:"duration"`
	Tags       map[string]string `json:"tags"`
}

// Inspect runs ffprobe against path and returns the full report.
func (c *Client) Inspect(ctx context.Context, path string) (*Report, error) {
	cmd := commandContext(ctx, c.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	var report Report
	if err := json.Unmarshal(output, &report); err != nil {
		return nil, fmt.Errorf("parse ffprobe output for %s: %w", path, err)
	}
	return &report, nil
}

// DurationSeconds returns the container duration.
func (r *Report) DurationSeconds() float64 {
	if v, err := strconv.ParseFloat(r.Format.Duration, 64); err == nil {
		return v
	}
	for _, stream := range r.Streams {
		if v, err := strconv.ParseFloat(stream.Duration, 64); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

// VideoStream returns the first video stream, or nil.
func (r *Report) VideoStream() *Stream {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "video" {
			return &r.Streams[i]
		}
	}
	return nil
}

// HasAudio reports whether the file contains at least one audio stream.
func (r *Report) HasAudio() bool {
	for _, stream := range r.Streams {
		if stream.CodecType == "audio" {
			return true
		}
	}
	return false
}

// FrameRate returns the video frame rate, or 0 when absent.
func (r *Report) FrameRate() float64 {
	video := r.VideoStream()
	if video == nil {
		return 0
	}
	return parseFrameRate(video.RFrameRate)
}

func parseFrameRate(raw string) float64 {
	num, den, ok := strings.Cut(raw, "/")
	if !ok {
		v, _ := strconv.ParseFloat(raw, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// VideoMetadata is the summary surfaced by the inspect tool and used when
// sizing previews.
type VideoMetadata struct {
	Path        string  `json:"path"`
	Duration    float64 `json:"duration"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	FrameRate   float64 `json:"frame_rate"`
	VideoCodec  string  `json:"video_codec"`
	AudioCodec  string  `json:"audio_codec"`
	AudioTracks int     `json:"audio_tracks"`
	SizeBytes   int64   `json:"size_bytes"`
	Container   string  `json:"container"`
}

// VideoMetadata probes path and condenses the report.
func (c *Client) VideoMetadata(ctx context.Context, path string) (*VideoMetadata, error) {
	report, err := c.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}

	meta := &VideoMetadata{
		Path:      path,
		Duration:  report.DurationSeconds(),
		FrameRate: report.FrameRate(),
		Container: report.Format.FormatName,
	}
	if size, err := strconv.ParseInt(report.Format.Size, 10, 64); err == nil {
		meta.SizeBytes = size
	}
	if video := report.VideoStream(); video != nil {
		meta.Width = video.Width
		meta.Height = video.Height
		meta.VideoCodec = video.CodecName
	}
	for _, stream := range report.Streams {
		if stream.CodecType == "audio" {
			meta.AudioTracks++
			if meta.AudioCodec == "" {
				meta.AudioCodec = stream.CodecName
			}
		}
	}
	return meta, nil
}

// HasAudioStream reports whether the file has audio without a full inspect.
func (c *Client) HasAudioStream(ctx context.Context, path string) (bool, error) {
	cmd := commandContext(ctx, c.binary,
		"-v", "quiet",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("ffprobe audio check %s: %w", path, err)
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// ImageInfo holds dimensions for a still image input.
type ImageInfo struct {
	Width  int
	Height int
}

// ImageInfo probes a single image's dimensions.
func (c *Client) ImageInfo(ctx context.Context, path string) (*ImageInfo, error) {
	cmd := commandContext(ctx, c.binary,
		"-v", "quiet",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe image %s: %w", path, err)
	}
	fields := strings.Split(strings.TrimSpace(string(output)), ",")
	if len(fields) < 2 {
		return nil, fmt.Errorf("ffprobe image %s: unexpected output %q", path, output)
	}
	width, err1 := strconv.Atoi(strings.TrimSpace(fields[0]))
	height, err2 := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("ffprobe image %s: unexpected output %q", path, output)
	}
	return &ImageInfo{Width: width, Height: height}, nil
}
