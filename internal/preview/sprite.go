package preview

import (
	"context"
	"encoding/base64"
	"fmt"
	"os/exec"
	"strconv"
)

// commandContext is swapped in tests to stub the ffmpeg binary.
var commandContext = exec.CommandContext

// SpriteTier selects thumbnail count and quality for a source size.
type SpriteTier struct {
	MaxBytes int64
	Count    int
	Height   int
	Quality  int
}

// spriteTiers trades thumbnail density against render time for large files.
var spriteTiers = []SpriteTier{
	{MaxBytes: 100 << 20, Count: 100, Height: 120, Quality: 4},
	{MaxBytes: 1 << 30, Count: 60, Height: 90, Quality: 6},
	{MaxBytes: 0, Count: 30, Height: 68, Quality: 8},
}

// tierFor picks the sprite tier for a file size. MaxBytes zero is the
// catch-all.
func tierFor(sizeBytes int64) SpriteTier {
	for _, tier := range spriteTiers {
		if tier.MaxBytes == 0 || sizeBytes <= tier.MaxBytes {
			return tier
		}
	}
	return spriteTiers[len(spriteTiers)-1]
}

// SpriteSheet is a rendered thumbnail grid plus the geometry needed to
// address individual frames.
type SpriteSheet struct {
	DataBase64 string  `json:"data_base64"`
	Columns    int     `json:"columns"`
	Rows       int     `json:"rows"`
	Count      int     `json:"count"`
	Height     int     `json:"height"`
	Interval   float64 `json:"interval"`
}

// FrameAt maps a playback position to grid coordinates.
func (s *SpriteSheet) FrameAt(position float64) (col, row int) {
	if s.Interval <= 0 || s.Count == 0 {
		return 0, 0
	}
	index := int(position / s.Interval)
	if index >= s.Count {
		index = s.Count - 1
	}
	if index < 0 {
		index = 0
	}
	return index % s.Columns, index / s.Columns
}

// RenderSprite produces a tiled thumbnail sheet for a video. The frame rate
// is count/duration so thumbnails are spaced evenly across the timeline,
// and the JPEG bytes are returned base64-encoded for direct embedding.
func RenderSprite(ctx context.Context, binary, path string, duration float64, sizeBytes int64, columns int) (*SpriteSheet, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("sprite render needs a positive duration, got %f", duration)
	}
	if columns <= 0 {
		columns = 10
	}

	tier := tierFor(sizeBytes)
	rows := (tier.Count + columns - 1) / columns
	fps := float64(tier.Count) / duration

	filter := fmt.Sprintf("fps=%s,scale=-2:%d,tile=%dx%d",
		strconv.FormatFloat(fps, 'f', 6, 64), tier.Height, columns, rows)

	cmd := commandContext(ctx, binary,
		"-v", "error",
		"-i", path,
		"-vf", filter,
		"-frames:v", "1",
		"-q:v", strconv.Itoa(tier.Quality),
		"-f", "image2",
		"pipe:1",
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("render sprite for %s: %w", path, err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("render sprite for %s: empty output", path)
	}

	return &SpriteSheet{
		DataBase64: base64.StdEncoding.EncodeToString(output),
		Columns:    columns,
		Rows:       rows,
		Count:      tier.Count,
		Height:     tier.Height,
		Interval:   duration / float64(tier.Count),
	}, nil
}
