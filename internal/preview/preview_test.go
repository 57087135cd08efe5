package preview

import (
	"context"
	"encoding/base64"
	"os/exec"
	"strings"
	"testing"
)

func TestCacheCompositeKeysAndInvalidate(t *testing.T) {
	cache := NewCache()
	cache.Put(Key("/a.mp4"), []byte("thumbs"))
	cache.Put(Key("/a.mp4", "wave", "heatmap", "1000x200", ""), []byte("wave"))
	cache.Put(Key("/b.mp4"), []byte("other"))

	if payload, ok := cache.Get(Key("/a.mp4")); !ok || string(payload) != "thumbs" {
		t.Errorf("thumbnail entry = %q, %v", payload, ok)
	}

	cache.Invalidate("/a.mp4")
	if _, ok := cache.Get(Key("/a.mp4")); ok {
		t.Error("thumbnail entry survived invalidation")
	}
	if _, ok := cache.Get(Key("/a.mp4", "wave", "heatmap", "1000x200", "")); ok {
		t.Error("waveform variant survived invalidation")
	}
	if _, ok := cache.Get(Key("/b.mp4")); !ok {
		t.Error("unrelated entry was invalidated")
	}
}

func TestTierForSize(t *testing.T) {
	small := tierFor(10 << 20)
	large := tierFor(5 << 30)
	if small.Count <= large.Count {
		t.Errorf("small files should get more thumbnails: %d vs %d", small.Count, large.Count)
	}
	if small.Height <= large.Height {
		t.Errorf("small files should get taller thumbnails: %d vs %d", small.Height, large.Height)
	}
}

func TestSpriteFrameAt(t *testing.T) {
	sheet := &SpriteSheet{Columns: 10, Rows: 10, Count: 100, Interval: 1.2}

	col, row := sheet.FrameAt(0)
	if col != 0 || row != 0 {
		t.Errorf("FrameAt(0) = %d,%d", col, row)
	}
	col, row = sheet.FrameAt(30)
	if col != 5 || row != 2 {
		t.Errorf("FrameAt(30) = %d,%d, want 5,2", col, row)
	}
	col, row = sheet.FrameAt(1e9)
	if col != 9 || row != 9 {
		t.Errorf("FrameAt past end = %d,%d, want last frame", col, row)
	}
}

func stubOutput(t *testing.T, output string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append(captured, strings.Join(args, " "))
		return exec.CommandContext(ctx, "sh", "-c", "printf '%s' '"+output+"'")
	}
	t.Cleanup(func() { commandContext = original })
	return &captured
}

func TestRenderSpriteGeometry(t *testing.T) {
	captured := stubOutput(t, "fakejpegdata")

	sheet, err := RenderSprite(context.Background(), "ffmpeg", "/clip.mp4", 120, 10<<20, 10)
	if err != nil {
		t.Fatalf("RenderSprite: %v", err)
	}
	if sheet.Columns != 10 || sheet.Count != 100 || sheet.Rows != 10 {
		t.Errorf("geometry = %+v", sheet)
	}
	if sheet.Interval != 1.2 {
		t.Errorf("interval = %f, want 1.2", sheet.Interval)
	}
	decoded, err := base64.StdEncoding.DecodeString(sheet.DataBase64)
	if err != nil || string(decoded) != "fakejpegdata" {
		t.Errorf("payload = %q, %v", decoded, err)
	}
	if len(*captured) != 1 || !strings.Contains((*captured)[0], "tile=10x10") {
		t.Errorf("ffmpeg args = %v", *captured)
	}
}

func TestRenderSpriteRejectsZeroDuration(t *testing.T) {
	if _, err := RenderSprite(context.Background(), "ffmpeg", "/x.mp4", 0, 0, 10); err == nil {
		t.Error("accepted zero duration")
	}
}

func TestWaveformFilterSelection(t *testing.T) {
	wave := WaveformSpec{Mode: ModeWave, Palette: "heatmap", Width: 1000, Height: 200}
	if got := wave.filter(); !strings.Contains(got, "showwavespic") || !strings.Contains(got, "0x2d5bff") {
		t.Errorf("wave filter = %q", got)
	}

	accent := WaveformSpec{Mode: ModeWave, Palette: "accent", Width: 100, Height: 50, Accent: "#ff8800"}
	if got := accent.filter(); !strings.Contains(got, "0xff8800") {
		t.Errorf("accent filter = %q", got)
	}

	spectrum := WaveformSpec{Mode: ModeSpectrum, Width: 800, Height: 300}
	if got := spectrum.filter(); !strings.Contains(got, "showspectrumpic=s=800x300") {
		t.Errorf("spectrum filter = %q", got)
	}
}

func TestWaveformCacheKeyDistinguishesVariants(t *testing.T) {
	a := WaveformSpec{Mode: ModeWave, Palette: "heatmap", Width: 1000, Height: 200}
	b := WaveformSpec{Mode: ModeSpectrum, Palette: "heatmap", Width: 1000, Height: 200}
	if a.CacheKey("/x.mp4") == b.CacheKey("/x.mp4") {
		t.Error("different modes share a cache key")
	}
}
