package preview

import (
	"context"
	"fmt"
	"strings"
)

// WaveformMode selects the rendering style.
type WaveformMode string

const (
	ModeWave     WaveformMode = "wave"
	ModeSpectrum WaveformMode = "spectrum"
)

// waveformColors maps palette names to showwavespic color arguments. The
// accent palette substitutes the user's accent color at render time.
var waveformColors = map[string]string{
	"heatmap": "0x2d5bff|0xff3860",
	"mono":    "0xe0e0e0",
}

// WaveformSpec describes one waveform rendering.
type WaveformSpec struct {
	Mode    WaveformMode
	Palette string
	Width   int
	Height  int
	Accent  string
}

// CacheKey returns the composite cache key for this rendering of path.
func (w WaveformSpec) CacheKey(path string) string {
	return Key(path, string(w.Mode), w.Palette,
		fmt.Sprintf("%dx%d", w.Width, w.Height), w.Accent)
}

// filter builds the ffmpeg filter expression for this rendering.
func (w WaveformSpec) filter() string {
	size := fmt.Sprintf("%dx%d", w.Width, w.Height)
	if w.Mode == ModeSpectrum {
		return fmt.Sprintf("showspectrumpic=s=%s:legend=0", size)
	}
	colors, ok := waveformColors[strings.ToLower(w.Palette)]
	if !ok {
		colors = accentColor(w.Accent)
	}
	return fmt.Sprintf("showwavespic=s=%s:colors=%s:split_channels=0", size, colors)
}

func accentColor(accent string) string {
	accent = strings.TrimSpace(accent)
	if strings.HasPrefix(accent, "#") && len(accent) == 7 {
		return "0x" + accent[1:]
	}
	return "0x7c5cff"
}

// RenderWaveform draws the audio waveform or spectrum for path as PNG bytes.
func RenderWaveform(ctx context.Context, binary, path string, spec WaveformSpec) ([]byte, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("waveform needs positive dimensions, got %dx%d", spec.Width, spec.Height)
	}

	cmd := commandContext(ctx, binary,
		"-v", "error",
		"-i", path,
		"-filter_complex", spec.filter(),
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "png",
		"pipe:1",
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("render waveform for %s: %w", path, err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("render waveform for %s: empty output", path)
	}
	return output, nil
}
