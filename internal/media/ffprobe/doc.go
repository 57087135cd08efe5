// Package ffprobe inspects media files by shelling out to ffprobe and
// parsing its JSON output.
package ffprobe
