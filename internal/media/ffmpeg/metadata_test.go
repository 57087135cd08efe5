package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildMetadataArgs(t *testing.T) {
	args := BuildMetadataArgs("song.mp3", "song_temp.mp3", MetadataTags{
		Title:  "Night Drive",
		Artist: "Analog Dept",
		Year:   "2019",
	})
	joined := strings.Join(args, " ")
	for _, fragment := range []string{
		"-i song.mp3", "-c copy",
		"-metadata title=Night Drive",
		"-metadata artist=Analog Dept",
		"-metadata date=2019",
	} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("missing %q: %v", fragment, args)
		}
	}
	if strings.Contains(joined, "album") {
		t.Errorf("unset tag emitted: %v", args)
	}
	if args[len(args)-1] != "song_temp.mp3" {
		t.Errorf("temp file must be the output: %v", args)
	}
}

func TestSaveMetadataReplacesSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(source, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	temp := filepath.Join(dir, "song_temp.mp3")
	stubCommand(t, fmt.Sprintf(`printf 'tagged' > %q`, temp))

	runner := NewRunner("ffmpeg", "normal", nil)
	err := SaveMetadata(context.Background(), runner, source, MetadataTags{Title: "New Title"})
	if err != nil {
		t.Fatalf("SaveMetadata: %v", err)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "tagged" {
		t.Errorf("source content = %q, want rewritten file", data)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestSaveMetadataKeepsSourceOnFailure(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(source, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	stubCommand(t, `printf 'tag rewrite failed\n' >&2; exit 1`)

	runner := NewRunner("ffmpeg", "normal", nil)
	if err := SaveMetadata(context.Background(), runner, source, MetadataTags{Title: "x"}); err == nil {
		t.Fatal("SaveMetadata succeeded, want failure")
	}

	data, err := os.ReadFile(source)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original" {
		t.Errorf("source content = %q, want untouched original", data)
	}
}

func TestSaveMetadataRejectsEmptyTags(t *testing.T) {
	runner := NewRunner("ffmpeg", "normal", nil)
	if err := SaveMetadata(context.Background(), runner, "song.mp3", MetadataTags{}); err == nil {
		t.Fatal("accepted empty tag set")
	}
}
