// Package preflight provides readiness checks run before the daemon starts
// processing and surfaced by the CLI status command: directory access, free
// disk space, and external binary availability.
package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"mediabox/internal/config"
	"mediabox/internal/deps"
	"mediabox/internal/media/ffmpeg"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// MinFreeBytes is the free-space floor below which the output directory
// check fails. Encodes routinely need several gigabytes of headroom.
const MinFreeBytes = 2 << 30

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDiskSpace("Output disk space", cfg.Paths.OutputDir, MinFreeBytes),
	}
	if cfg.Paths.CacheDir != "" {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	}
	if cfg.Encoding.HardwareAccel != "" && cfg.Encoding.HardwareAccel != "none" {
		results = append(results, CheckHardwareEncoder(ctx, cfg.Tools.FFmpeg, cfg.Encoding.HardwareAccel))
	}
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Command}
		if !status.Available {
			result.Detail = status.Detail
			if status.Optional {
				result.Passed = true
				result.Detail = status.Detail + " (optional)"
			}
		}
		results = append(results, result)
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable and writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the filesystem holding path has at least minBytes
// available.
func CheckDiskSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s (%.1f GiB free)", path, float64(free)/(1<<30))
	if free < minBytes {
		return Result{Name: name, Detail: detail + " below minimum"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckHardwareEncoder verifies the configured hardware encoder family is
// present in the local ffmpeg build.
func CheckHardwareEncoder(ctx context.Context, binary, family string) Result {
	name := "Hardware encoder"
	available, err := ffmpeg.DetectEncoders(ctx, binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", family, err)}
	}
	if family == "auto" {
		// Auto falls back to software encoding, so detection never fails
		// the check; it only reports what was found.
		for _, candidate := range available {
			if candidate != "none" {
				return Result{Name: name, Passed: true, Detail: fmt.Sprintf("auto (%s detected)", candidate)}
			}
		}
		return Result{Name: name, Passed: true, Detail: "auto (software fallback)"}
	}
	for _, candidate := range available {
		if candidate == family {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s available", family)}
		}
	}
	return Result{Name: name, Detail: fmt.Sprintf("%s not supported by this ffmpeg build", family)}
}

// CheckSystemDeps evaluates the external binaries from config. Both the
// daemon and the CLI status command use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for encoding, trimming, and previews",
			VersionArg:  "-version",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Required for media inspection",
			VersionArg:  "-version",
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.Tools.YtDlp,
			Description: "Required for the download tool",
			Optional:    true,
			VersionArg:  "--version",
		},
	})
}
