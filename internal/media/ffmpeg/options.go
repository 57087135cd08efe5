package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EncodeOptions configures a full re-encode.
type EncodeOptions struct {
	VideoCodec   string  `json:"video_codec"`
	AudioCodec   string  `json:"audio_codec"`
	Resolution   string  `json:"resolution"`
	CRF          int     `json:"crf"`
	Preset       string  `json:"preset"`
	VideoBitrate string  `json:"video_bitrate"`
	AudioBitrate string  `json:"audio_bitrate"`
	FrameRate    float64 `json:"frame_rate"`
	RemoveAudio  bool    `json:"remove_audio"`
	Container    string  `json:"container"`
	Threads      int     `json:"threads"`

	// AudioTracks and SubtitleTracks are extra input files muxed alongside
	// the source's streams.
	AudioTracks    []string `json:"audio_tracks,omitempty"`
	SubtitleTracks []string `json:"subtitle_tracks,omitempty"`

	// CustomArgs is a whitespace-separated list appended verbatim before
	// the output path.
	CustomArgs string `json:"custom_args,omitempty"`
}

// Validate checks codec and resolution labels.
func (o *EncodeOptions) Validate() error {
	if _, err := VideoEncoder(o.VideoCodec); err != nil {
		return err
	}
	if !o.RemoveAudio {
		if _, err := AudioEncoder(o.AudioCodec); err != nil {
			return err
		}
	}
	if _, err := ScaleFilter(o.Resolution); err != nil {
		return err
	}
	if o.CRF < 0 || o.CRF > 51 {
		return fmt.Errorf("crf %d out of range 0-51", o.CRF)
	}
	for _, track := range append(append([]string{}, o.AudioTracks...), o.SubtitleTracks...) {
		if strings.TrimSpace(track) == "" {
			return errors.New("extra track path must not be empty")
		}
	}
	return nil
}

// TrimOptions configures a clip cut. Times are seconds from the start.
type TrimOptions struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Reencode bool    `json:"reencode"`
}

// Validate enforces the selection invariant: 0 <= start < end.
func (o *TrimOptions) Validate() error {
	if o.Start < 0 {
		return errors.New("trim start must not be negative")
	}
	if o.End <= o.Start {
		return errors.New("trim end must be after start")
	}
	return nil
}

// ExtractOptions configures audio extraction. Stream, when set, is the
// zero-based ordinal among the source's audio streams; nil leaves the choice
// to ffmpeg. Language selects the stream by its language tag and overrides
// Stream.
type ExtractOptions struct {
	Format   string `json:"format"`
	Bitrate  string `json:"bitrate"`
	Language string `json:"language,omitempty"`
	Stream   *int   `json:"stream,omitempty"`

	// SampleRate forces the output rate; 44100, 48000, and 96000 are
	// accepted.
	SampleRate int `json:"sample_rate,omitempty"`

	// MP3Mode selects cbr (Bitrate applies) or vbr (MP3Quality applies,
	// 0 best through 9 worst). FLACLevel is the flac compression level 0-8.
	MP3Mode    string `json:"mp3_mode,omitempty"`
	MP3Quality *int   `json:"mp3_quality,omitempty"`
	FLACLevel  *int   `json:"flac_level,omitempty"`
}

// Validate checks the target audio format and rate settings.
func (o *ExtractOptions) Validate() error {
	if o.Stream != nil && *o.Stream < 0 {
		return errors.New("audio stream index must not be negative")
	}
	switch o.SampleRate {
	case 0, 44100, 48000, 96000:
	default:
		return fmt.Errorf("unsupported sample rate %d", o.SampleRate)
	}
	switch strings.ToLower(o.MP3Mode) {
	case "", "cbr", "vbr":
	default:
		return fmt.Errorf("mp3 mode must be cbr or vbr, got %q", o.MP3Mode)
	}
	if o.MP3Quality != nil && (*o.MP3Quality < 0 || *o.MP3Quality > 9) {
		return fmt.Errorf("mp3 quality %d out of range 0-9", *o.MP3Quality)
	}
	if o.FLACLevel != nil && (*o.FLACLevel < 0 || *o.FLACLevel > 8) {
		return fmt.Errorf("flac compression level %d out of range 0-8", *o.FLACLevel)
	}
	format := strings.ToLower(strings.TrimSpace(o.Format))
	if format == "" || format == "copy" {
		return nil
	}
	if _, err := AudioEncoder(format); err != nil {
		return err
	}
	return nil
}

// CropRect crops the source before the gif filter chain runs.
type CropRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// GifOptions configures video-to-gif conversion.
type GifOptions struct {
	Start     float64   `json:"start"`
	End       float64   `json:"end"`
	FrameRate float64   `json:"frame_rate"`
	Width     int       `json:"width"`
	Speed     float64   `json:"speed,omitempty"`
	Crop      *CropRect `json:"crop,omitempty"`
	Loop      bool      `json:"loop"`
}

// Validate applies defaults and bounds.
func (o *GifOptions) Validate() error {
	if o.Start < 0 {
		return errors.New("gif start must not be negative")
	}
	if o.End != 0 && o.End <= o.Start {
		return errors.New("gif end must be after start")
	}
	if o.FrameRate < 0 || o.FrameRate > 60 {
		return errors.New("gif frame rate must be between 0 and 60")
	}
	if o.Speed < 0 {
		return errors.New("gif speed must be positive")
	}
	if o.Crop != nil {
		if o.Crop.W <= 0 || o.Crop.H <= 0 {
			return errors.New("crop region must have positive width and height")
		}
		if o.Crop.X < 0 || o.Crop.Y < 0 {
			return errors.New("crop offset must not be negative")
		}
	}
	return nil
}

// ImageGifOptions configures stitching still images into an animated gif.
type ImageGifOptions struct {
	FrameDuration float64 `json:"frame_duration"`
	Width         int     `json:"width"`
	Loop          bool    `json:"loop"`
}

// Validate applies bounds to the per-frame duration.
func (o *ImageGifOptions) Validate() error {
	if o.FrameDuration <= 0 {
		return errors.New("frame duration must be positive")
	}
	return nil
}

// OutputName derives the destination path for a converted file:
// <stem><suffix>.<ext> inside dir.
func OutputName(dir, sourcePath, suffix, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	if ext == "" {
		ext = strings.TrimPrefix(filepath.Ext(sourcePath), ".")
	}
	return filepath.Join(dir, stem+suffix+"."+ext)
}

// UniqueOutputName returns path unchanged if it is free, otherwise appends
// " (n)" before the extension until an unused name is found.
func UniqueOutputName(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
