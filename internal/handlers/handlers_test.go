package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mediabox/internal/config"
	"mediabox/internal/media/ffmpeg"
	"mediabox/internal/media/ffprobe"
	"mediabox/internal/queue"
	"mediabox/internal/services"
	"mediabox/internal/services/ytdlp"
)

func testEnv(t *testing.T) Env {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()

	store, err := queue.OpenAt(filepath.Join(cfg.Paths.WorkDir, "queue.db"), 50)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return Env{Config: cfg, Store: store}
}

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake media"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEncodePrepareResolvesOutput(t *testing.T) {
	env := testEnv(t)
	source := writeSource(t, t.TempDir(), "My Clip.mkv")

	item := &queue.Item{ID: 1, SourcePath: source, OptionsJSON: `{"video_codec":"h264","container":"mp4"}`}
	if err := NewEncode(env).Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	want := filepath.Join(env.Config.Paths.OutputDir, "My Clip_converted.mp4")
	if item.OutputPath != want {
		t.Errorf("output = %q, want %q", item.OutputPath, want)
	}
}

func TestEncodePrepareAvoidsCollisions(t *testing.T) {
	env := testEnv(t)
	source := writeSource(t, t.TempDir(), "clip.mp4")
	existing := filepath.Join(env.Config.Paths.OutputDir, "clip_converted.mp4")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	item := &queue.Item{ID: 1, SourcePath: source}
	if err := NewEncode(env).Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if item.OutputPath == existing {
		t.Error("output collides with existing file")
	}

	env.Config.Output.OverwriteExisting = true
	if err := NewEncode(env).Prepare(context.Background(), item); err != nil {
		t.Fatal(err)
	}
	if item.OutputPath != existing {
		t.Errorf("overwrite mode output = %q, want %q", item.OutputPath, existing)
	}
}

func TestEncodePrepareRejectsMissingSource(t *testing.T) {
	env := testEnv(t)
	item := &queue.Item{ID: 1, SourcePath: filepath.Join(t.TempDir(), "gone.mp4")}
	err := NewEncode(env).Prepare(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestEncodePrepareRejectsBadOptions(t *testing.T) {
	env := testEnv(t)
	source := writeSource(t, t.TempDir(), "clip.mp4")

	for _, options := range []string{`{"video_codec":"divx"}`, `not json`} {
		item := &queue.Item{ID: 1, SourcePath: source, OptionsJSON: options}
		if err := NewEncode(env).Prepare(context.Background(), item); !errors.Is(err, services.ErrValidation) {
			t.Errorf("options %q: err = %v, want ErrValidation", options, err)
		}
	}
}

func TestGifPrepareImageMode(t *testing.T) {
	env := testEnv(t)
	dir := t.TempDir()
	a := writeSource(t, dir, "frame1.png")
	writeSource(t, dir, "frame2.png")

	item := &queue.Item{ID: 1, OptionsJSON: `{"images":["` + a + `","` + filepath.Join(dir, "frame2.png") + `"],"frame_duration":0.5}`}
	if err := NewGif(env).Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	want := filepath.Join(env.Config.Paths.OutputDir, "frame1_animated.gif")
	if item.OutputPath != want {
		t.Errorf("output = %q, want %q", item.OutputPath, want)
	}
}

func TestGifPrepareRejectsMissingImage(t *testing.T) {
	env := testEnv(t)
	item := &queue.Item{ID: 1, OptionsJSON: `{"images":["/nope/frame.png"],"frame_duration":0.5}`}
	if err := NewGif(env).Prepare(context.Background(), item); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestGifPrepareVideoMode(t *testing.T) {
	env := testEnv(t)
	source := writeSource(t, t.TempDir(), "clip.mp4")

	item := &queue.Item{ID: 1, SourcePath: source, OptionsJSON: `{"start":1,"end":3,"frame_rate":15}`}
	if err := NewGif(env).Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	want := filepath.Join(env.Config.Paths.OutputDir, "clip_converted.gif")
	if item.OutputPath != want {
		t.Errorf("output = %q, want %q", item.OutputPath, want)
	}
}

// stubProbe writes a fake ffprobe that prints report regardless of arguments.
func stubProbe(t *testing.T, report string) *ffprobe.Client {
	t.Helper()
	script := filepath.Join(t.TempDir(), "ffprobe")
	body := "#!/bin/sh\ncat <<'EOF'\n" + report + "\nEOF\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return ffprobe.New(script)
}

const multiAudioReport = `{
  "format": {"duration": "120.0", "size": "1000000"},
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "tags": {"language": "eng"}},
    {"index": 2, "codec_type": "audio", "codec_name": "ac3", "tags": {"language": "fra"}}
  ]
}`

func TestExtractResolveStreamByLanguage(t *testing.T) {
	env := testEnv(t)
	env.Probe = stubProbe(t, multiAudioReport)
	source := writeSource(t, t.TempDir(), "movie.mkv")
	handler := NewExtract(env)

	opts := ffmpeg.ExtractOptions{Format: "mp3", Language: "french"}
	ordinal, err := handler.resolveStream(context.Background(), source, &opts)
	if err != nil {
		t.Fatalf("resolveStream: %v", err)
	}
	if ordinal != 1 || opts.Stream == nil || *opts.Stream != 1 {
		t.Errorf("ordinal = %d, opts.Stream = %v, want 1", ordinal, opts.Stream)
	}

	opts = ffmpeg.ExtractOptions{Format: "mp3", Language: "ja"}
	if _, err := handler.resolveStream(context.Background(), source, &opts); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	// No language requested leaves the explicit stream choice alone.
	second := 1
	opts = ffmpeg.ExtractOptions{Stream: &second}
	if ordinal, err := handler.resolveStream(context.Background(), source, &opts); err != nil || ordinal != 1 {
		t.Fatalf("ordinal = %d, err = %v", ordinal, err)
	}
}

func TestExtractPrepareChecksAudio(t *testing.T) {
	env := testEnv(t)
	env.Probe = stubProbe(t, `{"format":{"duration":"10.0"},"streams":[{"index":0,"codec_type":"video"}]}`)
	source := writeSource(t, t.TempDir(), "silent.mp4")

	item := &queue.Item{ID: 1, SourcePath: source, OptionsJSON: `{"format":"mp3"}`}
	if err := NewExtract(env).Prepare(context.Background(), item); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestDownloadPrepareValidatesURL(t *testing.T) {
	env := testEnv(t)
	handler := NewDownload(env, ytdlp.New("yt-dlp"))

	good := &queue.Item{ID: 1, SourceURL: "https://example.com/watch?v=x"}
	if err := handler.Prepare(context.Background(), good); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if good.OutputPath != env.Config.Download.Dir {
		t.Errorf("output = %q, want download dir", good.OutputPath)
	}

	bad := &queue.Item{ID: 2, SourceURL: "ftp://example.com/x"}
	if err := handler.Prepare(context.Background(), bad); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestValidateOptionsPerTask(t *testing.T) {
	cases := []struct {
		name    string
		task    queue.TaskType
		raw     string
		wantErr bool
	}{
		{"encode defaults", queue.TaskEncode, `{}`, false},
		{"encode bad crf", queue.TaskEncode, `{"crf":99}`, true},
		{"encode bad codec", queue.TaskEncode, `{"video_codec":"divx"}`, true},
		{"trim range", queue.TaskTrim, `{"start":1,"end":5}`, false},
		{"trim inverted", queue.TaskTrim, `{"start":5,"end":1}`, true},
		{"extract format", queue.TaskExtract, `{"format":"flac"}`, false},
		{"extract unknown format", queue.TaskExtract, `{"format":"midi"}`, true},
		{"gif video mode", queue.TaskGif, `{"start":0,"end":3,"frame_rate":15}`, false},
		{"gif bad frame rate", queue.TaskGif, `{"frame_rate":240}`, true},
		{"gif images", queue.TaskGif, `{"images":["a.png"],"frame_duration":0.5}`, false},
		{"gif images no duration", queue.TaskGif, `{"images":["a.png"]}`, true},
		{"download shape", queue.TaskDownload, `{"format":"best"}`, false},
		{"download wrong shape", queue.TaskDownload, `{"format":7}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOptions(tc.task, []byte(tc.raw))
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("ValidateOptions: %v", err)
			}
		})
	}
}
