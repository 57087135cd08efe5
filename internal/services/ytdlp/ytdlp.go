// Package ytdlp wraps the yt-dlp binary for media info lookups and
// downloads with parsed progress.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"mediabox/internal/logging"
	"mediabox/internal/services"
)

// commandContext is swapped in tests to stub the yt-dlp binary.
var commandContext = exec.CommandContext

var (
	downloadPattern = regexp.MustCompile(`\[download\]\s+(\d+\.?\d*)%`)
	bitratePattern  = regexp.MustCompile(`^\d+[kKmM]$`)
)

// Client wraps a yt-dlp binary.
type Client struct {
	binary    string
	userAgent string
	forceIPv4 bool
	logger    *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithUserAgent sets a custom user agent for requests.
func WithUserAgent(agent string) Option {
	return func(c *Client) { c.userAgent = agent }
}

// WithForceIPv4 pins requests to IPv4.
func WithForceIPv4(force bool) Option {
	return func(c *Client) { c.forceIPv4 = force }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client using the given binary path, defaulting to "yt-dlp".
func New(binary string, opts ...Option) *Client {
	client := &Client{binary: binary, logger: logging.NewNop()}
	if strings.TrimSpace(client.binary) == "" {
		client.binary = "yt-dlp"
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// MediaInfo is the subset of yt-dlp's JSON dump surfaced to clients. A
// playlist dump carries Entries instead of per-video fields.
type MediaInfo struct {
	Type       string          `json:"_type"`
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Uploader   string          `json:"uploader"`
	Duration   float64         `json:"duration"`
	Thumbnail  string          `json:"thumbnail"`
	WebpageURL string          `json:"webpage_url"`
	Extractor  string          `json:"extractor"`
	Formats    []Format        `json:"formats"`
	Entries    []PlaylistEntry `json:"entries"`
}

// IsPlaylist reports whether the dump describes a playlist.
func (m *MediaInfo) IsPlaylist() bool {
	return m.Type == "playlist"
}

// PlaylistEntry is one video of a flat playlist dump.
type PlaylistEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

// Format is one downloadable rendition reported by yt-dlp.
type Format struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	FilesizeApprox float64 `json:"filesize_approx"`
}

// DurationString renders a duration in seconds as M:SS, or H:MM:SS past the
// hour mark.
func DurationString(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ValidateURL rejects anything that is not an absolute http(s) URL.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return services.Wrap(services.ErrValidation, "ytdlp", "validate", "invalid url", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return services.Wrap(services.ErrValidation, "ytdlp", "validate",
			fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}
	if parsed.Host == "" {
		return services.Wrap(services.ErrValidation, "ytdlp", "validate", "url has no host", nil)
	}
	return nil
}

// Info fetches metadata for a URL without downloading. Playlists are dumped
// flat so entry listings stay cheap.
func (c *Client) Info(ctx context.Context, rawURL string) (*MediaInfo, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	args := append(c.commonArgs(),
		"--dump-single-json", "--no-download", "--no-warnings", "--flat-playlist",
		rawURL)
	cmd := commandContext(ctx, c.binary, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ytdlp", "info", "yt-dlp failed", err)
	}

	var info MediaInfo
	if err := json.Unmarshal(bytes.TrimSpace(output), &info); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ytdlp", "info", "parse yt-dlp output", err)
	}
	return &info, nil
}

// DownloadOptions shapes a download: container and quality selection for
// video mode, target format for audio-extract mode, and an optional
// re-encode applied through yt-dlp's ffmpeg postprocessor.
type DownloadOptions struct {
	Format       string `json:"format,omitempty"`
	Quality      string `json:"quality,omitempty"`
	FormatID     string `json:"format_id,omitempty"`
	Mode         string `json:"mode,omitempty"`
	AudioFormat  string `json:"audio_format,omitempty"`
	AudioBitrate string `json:"audio_bitrate,omitempty"`
	VideoCodec   string `json:"video_codec,omitempty"`
	VideoBitrate string `json:"video_bitrate,omitempty"`
	FrameRate    string `json:"frame_rate,omitempty"`
	FileName     string `json:"file_name,omitempty"`
}

// Validate checks the mode, quality, and re-encode fields.
func (o *DownloadOptions) Validate() error {
	switch o.Mode {
	case "", "video", "audio":
	default:
		return services.Wrap(services.ErrValidation, "ytdlp", "validate",
			fmt.Sprintf("unknown download mode %q", o.Mode), nil)
	}
	if o.Quality != "" && o.Quality != "best" {
		if _, err := strconv.Atoi(o.Quality); err != nil {
			return services.Wrap(services.ErrValidation, "ytdlp", "validate",
				fmt.Sprintf("quality %q must be \"best\" or a maximum height", o.Quality), nil)
		}
	}
	switch o.VideoCodec {
	case "", "copy", "h264", "h265", "vp9", "av1":
	default:
		return services.Wrap(services.ErrValidation, "ytdlp", "validate",
			fmt.Sprintf("unsupported video codec %q", o.VideoCodec), nil)
	}
	if o.VideoBitrate != "" && o.VideoBitrate != "none" && !bitratePattern.MatchString(o.VideoBitrate) {
		return services.Wrap(services.ErrValidation, "ytdlp", "validate",
			fmt.Sprintf("invalid video bitrate %q", o.VideoBitrate), nil)
	}
	return nil
}

// formatArgs builds the format selection and postprocessing flags.
func (o *DownloadOptions) formatArgs() []string {
	if o.Mode == "audio" {
		format := o.AudioFormat
		if format == "" {
			format = "mp3"
		}
		args := []string{"-x", "--audio-format", format}
		if o.AudioBitrate != "" {
			args = append(args, "--audio-quality", o.AudioBitrate)
		}
		return args
	}

	var args []string
	switch o.Format {
	case "mp4", "mkv", "mov", "webm":
		args = append(args, "--merge-output-format", o.Format)
	}
	switch {
	case o.FormatID != "":
		selector := o.FormatID
		if !strings.Contains(selector, "+") {
			selector += "+bestaudio/best"
		}
		args = append(args, "-f", selector)
	case o.Quality == "" || o.Quality == "best":
		args = append(args, "-f", "bestvideo+bestaudio/best")
	default:
		args = append(args, "-f", heightSelector(o.Quality, o.Format))
	}
	if post := o.postprocessorArgs(); len(post) > 0 {
		args = append(args, "--postprocessor-args", "ffmpeg:"+strings.Join(post, " "))
	}
	return args
}

// heightSelector prefers a rendition at or below the requested height,
// trying the requested container first and degrading through looser matches.
func heightSelector(height, container string) string {
	if container == "" {
		container = "mp4"
	}
	return fmt.Sprintf(
		"bv*[height<=%[1]s][ext=%[2]s]+ba/b[height<=%[1]s][ext=%[2]s]/bv*[height<=%[1]s]+ba/b[height<=%[1]s]/best",
		height, container)
}

// postprocessorArgs returns the ffmpeg re-encode flags, or nil when the
// downloaded streams can be kept as-is.
func (o *DownloadOptions) postprocessorArgs() []string {
	var args []string
	switch o.VideoCodec {
	case "h264":
		args = append(args, "-c:v", "libx264")
	case "h265":
		args = append(args, "-c:v", "libx265")
	case "vp9":
		args = append(args, "-c:v", "libvpx-vp9")
	case "av1":
		args = append(args, "-c:v", "libaom-av1")
	}
	if o.VideoBitrate != "" && o.VideoBitrate != "none" {
		args = append(args, "-b:v", o.VideoBitrate)
	}
	if o.FrameRate != "" && o.FrameRate != "none" {
		args = append(args, "-r", o.FrameRate)
	}
	if len(args) == 0 {
		return nil
	}
	return append(args, "-c:a", "copy")
}

// outputTemplate names the destination file. A fixed file name keeps its
// extension placeholder so audio-extract mode can swap containers.
func (o *DownloadOptions) outputTemplate(destDir string) string {
	if o.FileName != "" {
		return destDir + "/" + strings.ReplaceAll(o.FileName, ".", "_") + ".%(ext)s"
	}
	return destDir + "/%(title)s.%(ext)s"
}

// ProgressFunc receives download percentages in [0, 100].
type ProgressFunc func(percent float64)

// Download fetches the URL into destDir and returns the final file path.
func (c *Client) Download(ctx context.Context, rawURL, destDir string, opts DownloadOptions, onProgress ProgressFunc) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}

	args := append(c.commonArgs(),
		"--newline",
		"--no-playlist",
		"--print", "after_move:filepath",
		"-o", opts.outputTemplate(destDir),
	)
	args = append(args, opts.formatArgs()...)
	args = append(args, rawURL)

	cmd := commandContext(ctx, c.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ytdlp", "download", "stdout pipe", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ytdlp", "download", "start yt-dlp", err)
	}

	var finalPath string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if m := downloadPattern.FindStringSubmatch(line); m != nil {
			if percent, err := strconv.ParseFloat(m[1], 64); err == nil && onProgress != nil {
				onProgress(percent)
			}
			continue
		}
		if path, ok := alreadyDownloadedPath(line); ok {
			finalPath = path
			continue
		}
		if !strings.HasPrefix(line, "[") {
			// The after_move:filepath print is the bare destination path.
			finalPath = line
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.Wrap(services.ErrExternalTool, "ytdlp", "download", "yt-dlp failed", err)
	}
	if finalPath == "" {
		return "", services.Wrap(services.ErrExternalTool, "ytdlp", "download", "yt-dlp did not report an output path", nil)
	}

	c.logger.Info("download finished", logging.String("path", finalPath))
	if onProgress != nil {
		onProgress(100)
	}
	return finalPath, nil
}

// alreadyDownloadedPath recognizes yt-dlp's notice for a file that exists
// from an earlier run, in which case no after_move print is emitted.
func alreadyDownloadedPath(line string) (string, bool) {
	const suffix = " has already been downloaded"
	if !strings.HasPrefix(line, "[download] ") || !strings.HasSuffix(line, suffix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(line, "[download] "), suffix), true
}

func (c *Client) commonArgs() []string {
	var args []string
	if c.userAgent != "" {
		args = append(args, "--user-agent", c.userAgent)
	}
	if c.forceIPv4 {
		args = append(args, "--force-ipv4")
	}
	return args
}
