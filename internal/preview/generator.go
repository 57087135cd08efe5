package preview

import (
	"context"
	"encoding/json"
	"fmt"

	"mediabox/internal/config"
	"mediabox/internal/media/ffprobe"
)

// Generator renders previews on demand and serves repeats from cache.
type Generator struct {
	ffmpeg  string
	probe   *ffprobe.Client
	columns int
	defSpec WaveformSpec
	thumbs  *Cache
	waves   *Cache
}

// NewGenerator wires a generator from configuration.
func NewGenerator(cfg *config.Config, probe *ffprobe.Client) *Generator {
	return &Generator{
		ffmpeg:  cfg.Tools.FFmpeg,
		probe:   probe,
		columns: cfg.Preview.ThumbnailColumns,
		defSpec: WaveformSpec{
			Mode:    ModeWave,
			Palette: cfg.Preview.WaveformPalette,
			Width:   cfg.Preview.WaveformWidth,
			Height:  cfg.Preview.WaveformHeight,
			Accent:  cfg.UI.AccentColor,
		},
		thumbs: NewCache(),
		waves:  NewCache(),
	}
}

// Thumbnails returns the sprite sheet for path, rendering it on first use.
func (g *Generator) Thumbnails(ctx context.Context, path string) (*SpriteSheet, error) {
	key := Key(path)
	if cached, ok := g.thumbs.Get(key); ok {
		var sheet SpriteSheet
		if err := json.Unmarshal(cached, &sheet); err == nil {
			return &sheet, nil
		}
		g.thumbs.Invalidate(path)
	}

	meta, err := g.probe.VideoMetadata(ctx, path)
	if err != nil {
		return nil, err
	}
	sheet, err := RenderSprite(ctx, g.ffmpeg, path, meta.Duration, meta.SizeBytes, g.columns)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(sheet)
	if err != nil {
		return nil, fmt.Errorf("cache sprite sheet: %w", err)
	}
	g.thumbs.Put(key, encoded)
	return sheet, nil
}

// Waveform returns a waveform PNG for path using the configured defaults,
// overridden by any non-zero fields of spec.
func (g *Generator) Waveform(ctx context.Context, path string, spec WaveformSpec) ([]byte, error) {
	merged := g.defSpec
	if spec.Mode != "" {
		merged.Mode = spec.Mode
	}
	if spec.Palette != "" {
		merged.Palette = spec.Palette
	}
	if spec.Width > 0 {
		merged.Width = spec.Width
	}
	if spec.Height > 0 {
		merged.Height = spec.Height
	}
	if spec.Accent != "" {
		merged.Accent = spec.Accent
	}

	key := merged.CacheKey(path)
	if cached, ok := g.waves.Get(key); ok {
		return cached, nil
	}

	hasAudio, err := g.probe.HasAudioStream(ctx, path)
	if err != nil {
		return nil, err
	}
	if !hasAudio {
		return nil, fmt.Errorf("%s has no audio stream", path)
	}

	payload, err := RenderWaveform(ctx, g.ffmpeg, path, merged)
	if err != nil {
		return nil, err
	}
	g.waves.Put(key, payload)
	return payload, nil
}

// Invalidate drops cached previews for a file. Called after edits change
// the media on disk.
func (g *Generator) Invalidate(path string) {
	g.thumbs.Invalidate(path)
	g.waves.Invalidate(path)
}
