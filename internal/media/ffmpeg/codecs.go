package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
)

// videoEncoders maps the user-facing codec names to ffmpeg encoder names.
// Hardware variants pass through unchanged.
var videoEncoders = map[string]string{
	"h264":       "libx264",
	"h265":       "libx265",
	"vp9":        "libvpx-vp9",
	"h264_nvenc": "h264_nvenc",
	"hevc_nvenc": "hevc_nvenc",
	"h264_amf":   "h264_amf",
	"hevc_amf":   "hevc_amf",
	"h264_qsv":   "h264_qsv",
	"hevc_qsv":   "hevc_qsv",
	"copy":       "copy",
}

// audioEncoders maps user-facing audio codec names to ffmpeg encoder names.
var audioEncoders = map[string]string{
	"aac":  "aac",
	"opus": "libopus",
	"mp3":  "libmp3lame",
	"ac3":  "ac3",
	"flac": "flac",
	"wav":  "pcm_s16le",
	"copy": "copy",
}

// resolutionHeights maps resolution labels to target heights for the
// scale=-2:h filter. Width stays divisible by two.
var resolutionHeights = map[string]int{
	"2160p": 2160,
	"1440p": 1440,
	"1080p": 1080,
	"720p":  720,
	"480p":  480,
	"360p":  360,
}

// VideoEncoder resolves a codec label, defaulting to libx264.
func VideoEncoder(codec string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(codec))
	if key == "" {
		return "libx264", nil
	}
	encoder, ok := videoEncoders[key]
	if !ok {
		return "", fmt.Errorf("unsupported video codec %q", codec)
	}
	return encoder, nil
}

// AudioEncoder resolves an audio codec label, defaulting to aac.
func AudioEncoder(codec string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(codec))
	if key == "" {
		return "aac", nil
	}
	encoder, ok := audioEncoders[key]
	if !ok {
		return "", fmt.Errorf("unsupported audio codec %q", codec)
	}
	return encoder, nil
}

// ScaleFilter returns the scale filter for a resolution label, or "" when
// the label is empty or "source".
func ScaleFilter(resolution string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(resolution))
	if key == "" || key == "source" || key == "original" {
		return "", nil
	}
	height, ok := resolutionHeights[key]
	if !ok {
		return "", fmt.Errorf("unsupported resolution %q", resolution)
	}
	return fmt.Sprintf("scale=-2:%d", height), nil
}

// DetectEncoders lists hardware encoder families available in the local
// ffmpeg build by parsing `ffmpeg -encoders`.
func DetectEncoders(ctx context.Context, binary string) ([]string, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	cmd := commandContext(ctx, binary, "-hide_banner", "-encoders")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("list ffmpeg encoders: %w", err)
	}

	found := map[string]bool{}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		for _, family := range []string{"nvenc", "amf", "qsv"} {
			if strings.Contains(line, "_"+family) {
				found[family] = true
			}
		}
	}

	families := []string{"none"}
	for _, family := range []string{"nvenc", "amf", "qsv"} {
		if found[family] {
			families = append(families, family)
		}
	}
	return families, nil
}
