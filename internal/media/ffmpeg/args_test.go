package ffmpeg

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildEncodeArgsSoftware(t *testing.T) {
	args, err := BuildEncodeArgs("in.mkv", "out.mp4", EncodeOptions{
		VideoCodec: "h264",
		AudioCodec: "aac",
		Resolution: "720p",
		CRF:        20,
		Preset:     "fast",
	})
	if err != nil {
		t.Fatalf("BuildEncodeArgs: %v", err)
	}
	want := []string{"-y", "-i", "in.mkv",
		"-c:v", "libx264", "-vf", "scale=-2:720",
		"-crf", "20", "-preset", "fast",
		"-c:a", "aac", "out.mp4"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v\nwant %v", args, want)
	}
}

func TestBuildEncodeArgsRemoveAudio(t *testing.T) {
	args, err := BuildEncodeArgs("in.mp4", "out.mp4", EncodeOptions{
		VideoCodec:  "h265",
		RemoveAudio: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-an") {
		t.Errorf("missing -an: %v", args)
	}
	if strings.Contains(joined, "-c:a") {
		t.Errorf("unexpected audio codec: %v", args)
	}
}

func TestBuildEncodeArgsHardwarePassthrough(t *testing.T) {
	args, err := BuildEncodeArgs("in.mp4", "out.mp4", EncodeOptions{
		VideoCodec:   "hevc_nvenc",
		AudioCodec:   "copy",
		VideoBitrate: "6M",
	})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-c:v hevc_nvenc") {
		t.Errorf("missing nvenc encoder: %v", args)
	}
	if !strings.Contains(joined, "-b:v 6M") {
		t.Errorf("missing bitrate: %v", args)
	}
	if strings.Contains(joined, "-crf") {
		t.Errorf("crf should not apply with explicit bitrate: %v", args)
	}
}

func TestBuildEncodeArgsRejectsUnknownCodec(t *testing.T) {
	if _, err := BuildEncodeArgs("in.mp4", "out.mp4", EncodeOptions{VideoCodec: "av2"}); err == nil {
		t.Error("accepted unknown video codec")
	}
	if _, err := BuildEncodeArgs("in.mp4", "out.mp4", EncodeOptions{Resolution: "123p"}); err == nil {
		t.Error("accepted unknown resolution")
	}
}

func TestBuildTrimArgsCopyPlacesSeekBeforeInput(t *testing.T) {
	args, err := BuildTrimArgs("in.mp4", "out.mp4", TrimOptions{Start: 5, End: 12.5})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-ss 5 -i in.mp4") {
		t.Errorf("fast seek not before input: %v", args)
	}
	if !strings.Contains(joined, "-t 7.5") {
		t.Errorf("wrong duration: %v", args)
	}
	if !strings.Contains(joined, "-c copy") {
		t.Errorf("missing stream copy: %v", args)
	}
}

func TestBuildTrimArgsReencodeSeeksAfterInput(t *testing.T) {
	args, err := BuildTrimArgs("in.mp4", "out.mp4", TrimOptions{Start: 1, End: 2, Reencode: true})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-i in.mp4 -ss 1") {
		t.Errorf("accurate seek not after input: %v", args)
	}
}

func TestBuildTrimArgsRejectsInvertedRange(t *testing.T) {
	if _, err := BuildTrimArgs("in.mp4", "out.mp4", TrimOptions{Start: 10, End: 10}); err == nil {
		t.Error("accepted zero-width trim")
	}
	if _, err := BuildTrimArgs("in.mp4", "out.mp4", TrimOptions{Start: -1, End: 5}); err == nil {
		t.Error("accepted negative start")
	}
}

func TestBuildExtractArgs(t *testing.T) {
	args, err := BuildExtractArgs("in.mkv", "out.mp3", ExtractOptions{Format: "mp3", Bitrate: "192k"})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	for _, fragment := range []string{"-vn", "-c:a libmp3lame", "-b:a 192k"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("missing %q: %v", fragment, args)
		}
	}
}

func TestBuildExtractArgsStreamSelection(t *testing.T) {
	stream := func(n int) *int { return &n }

	args, err := BuildExtractArgs("in.mkv", "out.m4a", ExtractOptions{Stream: stream(2)})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-map 0:a:2") {
		t.Errorf("missing stream map: %v", args)
	}

	// Explicitly asking for the first stream still maps it; leaving the
	// choice to ffmpeg would pick the highest channel count instead.
	args, err = BuildExtractArgs("in.mkv", "out.m4a", ExtractOptions{Stream: stream(0)})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(strings.Join(args, " "), "-map 0:a:0") {
		t.Errorf("explicit first stream not mapped: %v", args)
	}

	args, err = BuildExtractArgs("in.mkv", "out.m4a", ExtractOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(strings.Join(args, " "), "-map") {
		t.Errorf("default extraction should not map streams: %v", args)
	}

	if _, err := BuildExtractArgs("in.mkv", "out.m4a", ExtractOptions{Stream: stream(-1)}); err == nil {
		t.Error("accepted negative stream index")
	}
}

func TestExtractExtension(t *testing.T) {
	cases := map[string]string{
		"mp3": "mp3", "opus": "opus", "flac": "flac",
		"wav": "wav", "aac": "m4a", "": "m4a",
	}
	for format, want := range cases {
		if got := ExtractExtension(format); got != want {
			t.Errorf("ExtractExtension(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestBuildGifArgsUsesPalette(t *testing.T) {
	args, err := BuildGifArgs("in.mp4", "out.gif", GifOptions{Start: 2, End: 6, FrameRate: 12, Width: 320, Loop: true})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	for _, fragment := range []string{"fps=12", "scale=320:-2", "palettegen", "paletteuse", "-loop 0", "-t 4"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("missing %q: %v", fragment, args)
		}
	}
}

func TestBuildImageGifArgsAndConcatList(t *testing.T) {
	args, err := BuildImageGifArgs("frames.txt", "out.gif", ImageGifOptions{FrameDuration: 0.5, Width: 400, Loop: true})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	for _, fragment := range []string{"-f concat", "-safe 0", "-i frames.txt", "palettegen"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("missing %q: %v", fragment, args)
		}
	}

	list := ConcatList([]string{"/a.png", "/b.png"}, 0.5)
	want := "file '/a.png'\nduration 0.5\nfile '/b.png'\nduration 0.5\nfile '/b.png'\n"
	if list != want {
		t.Errorf("concat list = %q\nwant %q", list, want)
	}
}

func TestOutputNaming(t *testing.T) {
	got := OutputName("/out", "/media/Clip Name.mkv", "_converted", "mp4")
	if got != "/out/Clip Name_converted.mp4" {
		t.Errorf("OutputName = %q", got)
	}
	got = OutputName("/out", "/media/song.mkv", "_audio", "mp3")
	if got != "/out/song_audio.mp3" {
		t.Errorf("OutputName audio = %q", got)
	}
}

func TestBuildEncodeArgsExtraTracks(t *testing.T) {
	args, err := BuildEncodeArgs("in.mkv", "out.mp4", EncodeOptions{
		VideoCodec:     "h264",
		AudioTracks:    []string{"commentary.aac"},
		SubtitleTracks: []string{"subs.srt"},
	})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	for _, fragment := range []string{
		"-i commentary.aac", "-i subs.srt",
		"-map 0:v:0", "-map 0:a?", "-map 0:s?", "-map 1", "-map 2",
		"-c:s mov_text",
	} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("missing %q: %v", fragment, args)
		}
	}

	args, err = BuildEncodeArgs("in.mkv", "out.mkv", EncodeOptions{
		VideoCodec:     "h264",
		SubtitleTracks: []string{"subs.srt"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(strings.Join(args, " "), "-c:s copy") {
		t.Errorf("mkv output should keep the subtitle codec: %v", args)
	}

	if _, err := BuildEncodeArgs("in.mkv", "out.mp4", EncodeOptions{AudioTracks: []string{" "}}); err == nil {
		t.Error("accepted blank track path")
	}
}

func TestBuildEncodeArgsCustomArgs(t *testing.T) {
	args, err := BuildEncodeArgs("in.mp4", "out.mp4", EncodeOptions{
		CustomArgs: "-movflags +faststart",
	})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-movflags +faststart out.mp4") {
		t.Errorf("custom args not placed before output: %v", args)
	}
}

func TestBuildExtractArgsRateControls(t *testing.T) {
	level := 8
	args, err := BuildExtractArgs("in.mkv", "out.flac", ExtractOptions{
		Format: "flac", SampleRate: 96000, FLACLevel: &level,
	})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	for _, fragment := range []string{"-ar 96000", "-compression_level 8"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("missing %q: %v", fragment, args)
		}
	}

	quality := 2
	args, err = BuildExtractArgs("in.mkv", "out.mp3", ExtractOptions{
		Format: "mp3", MP3Mode: "vbr", MP3Quality: &quality, Bitrate: "192k",
	})
	if err != nil {
		t.Fatal(err)
	}
	joined = strings.Join(args, " ")
	if !strings.Contains(joined, "-q:a 2") {
		t.Errorf("missing vbr quality: %v", args)
	}
	if strings.Contains(joined, "-b:a") {
		t.Errorf("vbr must not also set a constant bitrate: %v", args)
	}

	if _, err := BuildExtractArgs("in.mkv", "out.mp3", ExtractOptions{Format: "mp3", SampleRate: 22050}); err == nil {
		t.Error("accepted off-whitelist sample rate")
	}
	if _, err := BuildExtractArgs("in.mkv", "out.mp3", ExtractOptions{Format: "mp3", MP3Mode: "abr"}); err == nil {
		t.Error("accepted unknown mp3 mode")
	}
}

func TestBuildGifArgsCropAndSpeed(t *testing.T) {
	args, err := BuildGifArgs("in.mp4", "out.gif", GifOptions{
		FrameRate: 15,
		Width:     480,
		Speed:     2,
		Crop:      &CropRect{X: 10, Y: 20, W: 320, H: 240},
	})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "crop=320:240:10:20,setpts=PTS/2,fps=15") {
		t.Errorf("crop and retiming must precede the fps stage: %v", args)
	}

	if _, err := BuildGifArgs("in.mp4", "out.gif", GifOptions{Crop: &CropRect{W: 0, H: 240}}); err == nil {
		t.Error("accepted zero-width crop")
	}
	if _, err := BuildGifArgs("in.mp4", "out.gif", GifOptions{Speed: -1}); err == nil {
		t.Error("accepted negative speed")
	}
}
