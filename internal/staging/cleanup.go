// Package staging sweeps leftover scratch state: stale entries in the work
// directory and abandoned partial downloads. The daemon runs both sweeps once
// at startup.
package staging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediabox/internal/logging"
)

// Result lists what a sweep removed and what it could not.
type Result struct {
	Removed []string
	Errors  []SweepError
}

// SweepError pairs a path with its removal error.
type SweepError struct {
	Path  string
	Error error
}

// Daemon state files that must survive a work dir sweep.
var protectedNames = map[string]struct{}{
	"mediaboxd.sock": {},
	"mediaboxd.lock": {},
	"mediaboxd.log":  {},
	"queue.db":       {},
	"presets.json":   {},
}

// partialSuffixes are the extensions yt-dlp leaves behind when a download is
// interrupted.
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

// SweepWorkDir removes scratch entries in workDir older than maxAge. Daemon
// state files are never touched, regardless of age.
func SweepWorkDir(workDir string, maxAge time.Duration, logger *slog.Logger) Result {
	return sweep(workDir, maxAge, logger, func(entry os.DirEntry) bool {
		if _, protected := protectedNames[entry.Name()]; protected {
			return false
		}
		// SQLite sidecar files follow the database.
		if strings.HasPrefix(entry.Name(), "queue.db") {
			return false
		}
		return true
	})
}

// SweepPartialDownloads removes interrupted download remnants in dir older
// than maxAge. Finished media files are left alone.
func SweepPartialDownloads(dir string, maxAge time.Duration, logger *slog.Logger) Result {
	return sweep(dir, maxAge, logger, func(entry os.DirEntry) bool {
		if entry.IsDir() {
			return false
		}
		name := strings.ToLower(entry.Name())
		for _, suffix := range partialSuffixes {
			if strings.HasSuffix(name, suffix) {
				return true
			}
		}
		return false
	})
}

func sweep(dir string, maxAge time.Duration, logger *slog.Logger, eligible func(os.DirEntry) bool) Result {
	var result Result

	dir = strings.TrimSpace(dir)
	if dir == "" || maxAge <= 0 {
		return result
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, SweepError{Path: dir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !eligible(entry) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, SweepError{Path: path, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			result.Errors = append(result.Errors, SweepError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("stale file removal failed",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check directory permissions"))
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Info("removed stale file",
				logging.String("path", path),
				logging.Duration("age", time.Since(info.ModTime())))
		}
	}
	return result
}
