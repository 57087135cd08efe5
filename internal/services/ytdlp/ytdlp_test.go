package ytdlp

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"mediabox/internal/services"
)

func stubCommand(t *testing.T, script string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	t.Cleanup(func() { commandContext = original })
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://example.com/watch?v=abc"); err != nil {
		t.Errorf("valid url rejected: %v", err)
	}
	for _, raw := range []string{"ftp://example.com/x", "file:///etc/passwd", "not a url", "https://"} {
		err := ValidateURL(raw)
		if err == nil {
			t.Errorf("ValidateURL(%q) accepted", raw)
			continue
		}
		if !errors.Is(err, services.ErrValidation) {
			t.Errorf("ValidateURL(%q) marker = %v", raw, err)
		}
	}
}

func TestInfo(t *testing.T) {
	stubCommand(t, `printf '{"id":"abc123","title":"Demo Clip","duration":95.5,"extractor":"youtube"}'`)

	info, err := New("").Info(context.Background(), "https://example.com/watch?v=abc123")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Title != "Demo Clip" || info.Duration != 95.5 {
		t.Errorf("info = %+v", info)
	}
}

func TestDownloadParsesProgressAndPath(t *testing.T) {
	stubCommand(t, `
		printf '[download]   1.0%% of 10.00MiB\n'
		printf '[download]  55.5%% of 10.00MiB\n'
		printf '/downloads/Demo Clip.mp4\n'
	`)

	var samples []float64
	path, err := New("yt-dlp").Download(context.Background(),
		"https://example.com/watch?v=abc", "/downloads", DownloadOptions{}, func(p float64) {
			samples = append(samples, p)
		})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != "/downloads/Demo Clip.mp4" {
		t.Errorf("path = %q", path)
	}
	if len(samples) != 3 || samples[1] != 55.5 || samples[2] != 100 {
		t.Errorf("samples = %v", samples)
	}
}

func TestDownloadFailure(t *testing.T) {
	stubCommand(t, `printf 'ERROR: unsupported url\n' >&2; exit 1`)

	_, err := New("yt-dlp").Download(context.Background(),
		"https://example.com/bad", "/downloads", DownloadOptions{}, nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestInfoParsesPlaylist(t *testing.T) {
	stubCommand(t, `printf '{"_type":"playlist","title":"Mix","entries":[{"id":"a","title":"One","duration":60},{"id":"b","title":"Two","duration":90}]}'`)

	info, err := New("").Info(context.Background(), "https://example.com/playlist?list=xyz")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if !info.IsPlaylist() {
		t.Fatal("playlist dump not recognized")
	}
	if len(info.Entries) != 2 || info.Entries[1].Title != "Two" {
		t.Errorf("entries = %+v", info.Entries)
	}
}

func TestDownloadDetectsExistingFile(t *testing.T) {
	stubCommand(t, `printf '[download] /downloads/Demo Clip.mp4 has already been downloaded\n'`)

	path, err := New("yt-dlp").Download(context.Background(),
		"https://example.com/watch?v=abc", "/downloads", DownloadOptions{}, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != "/downloads/Demo Clip.mp4" {
		t.Errorf("path = %q", path)
	}
}

func TestDownloadOptionsFormatArgs(t *testing.T) {
	cases := []struct {
		name string
		opts DownloadOptions
		want []string
	}{
		{
			"default best",
			DownloadOptions{},
			[]string{"-f bestvideo+bestaudio/best"},
		},
		{
			"height capped with container",
			DownloadOptions{Format: "mkv", Quality: "1080"},
			[]string{
				"--merge-output-format mkv",
				"-f bv*[height<=1080][ext=mkv]+ba/b[height<=1080][ext=mkv]/bv*[height<=1080]+ba/b[height<=1080]/best",
			},
		},
		{
			"explicit format id gains audio",
			DownloadOptions{FormatID: "137"},
			[]string{"-f 137+bestaudio/best"},
		},
		{
			"combined format id kept",
			DownloadOptions{FormatID: "137+140"},
			[]string{"-f 137+140"},
		},
		{
			"audio extract mode",
			DownloadOptions{Mode: "audio", AudioFormat: "opus", AudioBitrate: "192k"},
			[]string{"-x --audio-format opus --audio-quality 192k"},
		},
		{
			"re-encode postprocessor",
			DownloadOptions{VideoCodec: "h265", VideoBitrate: "2500k", FrameRate: "30"},
			[]string{"--postprocessor-args ffmpeg:-c:v libx265 -b:v 2500k -r 30 -c:a copy"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			joined := strings.Join(tc.opts.formatArgs(), " ")
			for _, fragment := range tc.want {
				if !strings.Contains(joined, fragment) {
					t.Errorf("missing %q in %q", fragment, joined)
				}
			}
		})
	}
}

func TestDownloadOptionsValidate(t *testing.T) {
	good := []DownloadOptions{
		{},
		{Mode: "audio", AudioFormat: "mp3"},
		{Quality: "720", Format: "mp4"},
		{Quality: "best", VideoCodec: "vp9", VideoBitrate: "1500k"},
	}
	for _, opts := range good {
		if err := opts.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v", opts, err)
		}
	}

	bad := []DownloadOptions{
		{Mode: "podcast"},
		{Quality: "ultra"},
		{VideoCodec: "divx"},
		{VideoBitrate: "fast"},
	}
	for _, opts := range bad {
		if err := opts.Validate(); !errors.Is(err, services.ErrValidation) {
			t.Errorf("Validate(%+v) = %v, want ErrValidation", opts, err)
		}
	}
}

func TestDurationString(t *testing.T) {
	cases := map[float64]string{
		0:    "0:00",
		95.5: "1:35",
		3600: "1:00:00",
		5025: "1:23:45",
	}
	for seconds, want := range cases {
		if got := DurationString(seconds); got != want {
			t.Errorf("DurationString(%v) = %q, want %q", seconds, got, want)
		}
	}
}
