package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestBuildPDFPagesArgs(t *testing.T) {
	got := BuildPDFPagesArgs("/docs/report.pdf", "/docs/report_pages/page_%04d.png")
	want := []string{"-y", "-i", "/docs/report.pdf", "-vsync", "0", "/docs/report_pages/page_%04d.png"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
}

func TestPDFPageExt(t *testing.T) {
	for input, want := range map[string]string{"": "png", "PNG": "png", "jpg": "jpg", "JPEG": "jpg", "webp": "png"} {
		if got := PDFPageExt(input); got != want {
			t.Errorf("PDFPageExt(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestExportPDFPagesCreatesFolder(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "manual.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	stubCommand(t, "exit 0")
	runner := NewRunner("ffmpeg", "normal", nil)

	folder, err := ExportPDFPages(context.Background(), runner, pdf, dir, "jpg")
	if err != nil {
		t.Fatalf("ExportPDFPages: %v", err)
	}
	if want := filepath.Join(dir, "manual_pages"); folder != want {
		t.Fatalf("folder = %q, want %q", folder, want)
	}
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		t.Fatalf("export folder missing: %v", err)
	}
}

func TestExportPDFPagesRequiresOutputDir(t *testing.T) {
	stubCommand(t, "exit 0")
	runner := NewRunner("ffmpeg", "normal", nil)

	_, err := ExportPDFPages(context.Background(), runner, "/docs/manual.pdf", "/nonexistent/output", "png")
	if err == nil || !strings.Contains(err.Error(), "output directory") {
		t.Fatalf("expected stat error, got %v", err)
	}
}
