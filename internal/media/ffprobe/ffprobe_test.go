package ffprobe

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"
)

const sampleReport = `{
  "format": {
    "filename": "clip.mp4",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "duration": "12.480000",
    "size": "1048576"
  },
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "channels": 2},
    {"index": 2, "codec_type": "audio", "codec_name": "ac3", "channels": 6}
  ]
}`

func stubOutput(t *testing.T, output string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "printf '%s' "+shellQuote(output))
	}
	t.Cleanup(func() { commandContext = original })
}

func shellQuote(s string) string {
	return "'" + s + "'"
}

func TestVideoMetadata(t *testing.T) {
	stubOutput(t, sampleReport)

	meta, err := New("").VideoMetadata(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatalf("VideoMetadata: %v", err)
	}
	if meta.Width != 1920 || meta.Height != 1080 {
		t.Errorf("dimensions = %dx%d", meta.Width, meta.Height)
	}
	if meta.Duration != 12.48 {
		t.Errorf("duration = %f", meta.Duration)
	}
	if meta.VideoCodec != "h264" || meta.AudioCodec != "aac" {
		t.Errorf("codecs = %s/%s", meta.VideoCodec, meta.AudioCodec)
	}
	if meta.AudioTracks != 2 {
		t.Errorf("audio tracks = %d", meta.AudioTracks)
	}
	if meta.SizeBytes != 1048576 {
		t.Errorf("size = %d", meta.SizeBytes)
	}
}

func TestReportHelpers(t *testing.T) {
	var report Report
	if err := json.Unmarshal([]byte(sampleReport), &report); err != nil {
		t.Fatal(err)
	}
	if !report.HasAudio() {
		t.Error("HasAudio = false")
	}
	if got := report.FrameRate(); got < 29.9 || got > 30.0 {
		t.Errorf("FrameRate = %f", got)
	}
	video := report.VideoStream()
	if video == nil || video.CodecName != "h264" {
		t.Errorf("VideoStream = %+v", video)
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"30/1", 30},
		{"24000/1001", 23.976023976023978},
		{"25", 25},
		{"0/0", 0},
		{"garbage", 0},
	}
	for _, tc := range cases {
		if got := parseFrameRate(tc.raw); got != tc.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestImageInfo(t *testing.T) {
	stubOutput(t, "640,480")

	info, err := New("ffprobe").ImageInfo(context.Background(), "frame.png")
	if err != nil {
		t.Fatalf("ImageInfo: %v", err)
	}
	if info.Width != 640 || info.Height != 480 {
		t.Errorf("info = %+v", info)
	}
}

func TestHasAudioStream(t *testing.T) {
	stubOutput(t, "1")
	ok, err := New("ffprobe").HasAudioStream(context.Background(), "clip.mp4")
	if err != nil || !ok {
		t.Fatalf("HasAudioStream = %v, %v", ok, err)
	}

	stubOutput(t, "")
	ok, err = New("ffprobe").HasAudioStream(context.Background(), "silent.mp4")
	if err != nil || ok {
		t.Fatalf("HasAudioStream silent = %v, %v", ok, err)
	}
}
