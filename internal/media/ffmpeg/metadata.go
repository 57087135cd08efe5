package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MetadataTags are the container-level tags a metadata rewrite applies.
// Empty fields leave the source tag untouched.
type MetadataTags struct {
	Title   string `json:"title,omitempty"`
	Artist  string `json:"artist,omitempty"`
	Album   string `json:"album,omitempty"`
	Year    string `json:"year,omitempty"`
	Genre   string `json:"genre,omitempty"`
	Track   string `json:"track,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// Empty reports whether no tag is set.
func (t MetadataTags) Empty() bool {
	return t == MetadataTags{}
}

// BuildMetadataArgs assembles a stream-copy rewrite of source's tags into
// temp. The year lands in the standard "date" tag.
func BuildMetadataArgs(source, temp string, tags MetadataTags) []string {
	args := []string{"-y", "-i", source, "-c", "copy"}
	add := func(key, value string) {
		if value != "" {
			args = append(args, "-metadata", key+"="+value)
		}
	}
	add("title", tags.Title)
	add("artist", tags.Artist)
	add("album", tags.Album)
	add("date", tags.Year)
	add("genre", tags.Genre)
	add("track", tags.Track)
	add("comment", tags.Comment)
	return append(args, temp)
}

// SaveMetadata rewrites a file's tags in place: ffmpeg stream-copies into a
// sibling temp file which then replaces the original, so a failed run never
// clobbers the source.
func SaveMetadata(ctx context.Context, r *Runner, path string, tags MetadataTags) error {
	if tags.Empty() {
		return errors.New("no metadata tags provided")
	}
	temp := tempSibling(path)
	if err := r.Run(ctx, BuildMetadataArgs(path, temp, tags), 0, temp, nil); err != nil {
		os.Remove(temp)
		return err
	}
	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return fmt.Errorf("replace source file: %w", err)
	}
	return nil
}

func tempSibling(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_temp" + ext
}
