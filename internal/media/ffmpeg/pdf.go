package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PDFPageExt normalizes a requested page image format to png or jpg.
func PDFPageExt(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpg", "jpeg":
		return "jpg"
	default:
		return "png"
	}
}

// BuildPDFPagesArgs assembles a page-per-image export of a PDF. -vsync 0
// keeps ffmpeg from duplicating pages to hit a frame rate.
func BuildPDFPagesArgs(source, pattern string) []string {
	return []string{"-y", "-i", source, "-vsync", "0", pattern}
}

// ExportPDFPages renders every page of pdfPath as page_NNNN images inside a
// fresh <stem>_pages folder under outputDir and returns the folder path.
func ExportPDFPages(ctx context.Context, r *Runner, pdfPath, outputDir, format string) (string, error) {
	info, err := os.Stat(outputDir)
	if err != nil {
		return "", fmt.Errorf("stat output directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", outputDir)
	}

	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	folder := filepath.Join(outputDir, stem+"_pages")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create export folder: %w", err)
	}

	pattern := filepath.Join(folder, "page_%04d."+PDFPageExt(format))
	if err := r.Run(ctx, BuildPDFPagesArgs(pdfPath, pattern), 0, "", nil); err != nil {
		return "", err
	}
	return folder, nil
}
