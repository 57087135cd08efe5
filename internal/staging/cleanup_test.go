package staging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediabox/internal/logging"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("age %s: %v", path, err)
	}
}

func TestSweepWorkDirIgnoresInvalidDirs(t *testing.T) {
	for _, dir := range []string{"", "   ", filepath.Join(t.TempDir(), "missing")} {
		result := SweepWorkDir(dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for %q", dir)
		}
	}
}

func TestSweepWorkDirRemovesOnlyStaleScratch(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, filepath.Join(dir, "gif-frames-1234.txt"), 2*time.Hour)
	writeAged(t, filepath.Join(dir, "fresh.txt"), 0)
	writeAged(t, filepath.Join(dir, "queue.db"), 48*time.Hour)
	writeAged(t, filepath.Join(dir, "queue.db-wal"), 48*time.Hour)
	writeAged(t, filepath.Join(dir, "mediaboxd.log"), 48*time.Hour)

	result := SweepWorkDir(dir, time.Hour, logging.NewNop())

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || filepath.Base(result.Removed[0]) != "gif-frames-1234.txt" {
		t.Fatalf("expected only the stale scratch file removed, got %v", result.Removed)
	}
	for _, name := range []string{"fresh.txt", "queue.db", "queue.db-wal", "mediaboxd.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should survive the sweep: %v", name, err)
		}
	}
}

func TestSweepWorkDirRemovesStaleDirectories(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "scratch")
	if err := os.Mkdir(stale, 0o755); err != nil {
		t.Fatal(err)
	}
	stamp := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, stamp, stamp); err != nil {
		t.Fatal(err)
	}

	result := SweepWorkDir(dir, time.Hour, logging.NewNop())
	if len(result.Removed) != 1 {
		t.Fatalf("expected stale dir removed, got %v", result.Removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale directory should be gone")
	}
}

func TestSweepPartialDownloads(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, filepath.Join(dir, "video.mp4.part"), 2*time.Hour)
	writeAged(t, filepath.Join(dir, "video.mp4.ytdl"), 2*time.Hour)
	writeAged(t, filepath.Join(dir, "finished.mp4"), 48*time.Hour)
	writeAged(t, filepath.Join(dir, "recent.mp4.part"), 0)

	result := SweepPartialDownloads(dir, time.Hour, logging.NewNop())

	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 partials removed, got %v", result.Removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "finished.mp4")); err != nil {
		t.Error("finished download should survive")
	}
	if _, err := os.Stat(filepath.Join(dir, "recent.mp4.part")); err != nil {
		t.Error("recent partial should survive")
	}
}
