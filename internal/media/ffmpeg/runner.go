package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"mediabox/internal/logging"
)

// commandContext is swapped in tests to stub the ffmpeg binary.
var commandContext = exec.CommandContext

// ProgressFunc receives throttling-free progress samples during a run.
type ProgressFunc func(Progress)

// Runner executes ffmpeg commands one at a time.
type Runner struct {
	binary   string
	priority string
	logger   *slog.Logger
}

// NewRunner creates a runner for the given ffmpeg binary. priority is one of
// low, normal, high and maps to the process nice value.
func NewRunner(binary, priority string, logger *slog.Logger) *Runner {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{binary: binary, priority: priority, logger: logger}
}

// Run executes ffmpeg with args, reporting progress parsed from stderr.
// totalSeconds sizes the percent calculation; zero lets the Duration banner
// supply it. When the context is cancelled the process is killed and the
// partial output file is deleted.
func (r *Runner) Run(ctx context.Context, args []string, totalSeconds float64, outputPath string, onProgress ProgressFunc) error {
	cmd := commandContext(ctx, r.binary, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	r.applyPriority(cmd)

	parser := newProgressParser(totalSeconds)
	var tail []string
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanCRLines)
	for scanner.Scan() {
		line := scanner.Text()
		if sample, ok := parser.parseLine(line); ok {
			if onProgress != nil {
				onProgress(sample)
			}
			continue
		}
		tail = append(tail, line)
		if len(tail) > 20 {
			tail = tail[1:]
		}
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		r.removePartial(outputPath)
		return ctx.Err()
	}
	if waitErr != nil {
		r.removePartial(outputPath)
		return fmt.Errorf("ffmpeg failed: %w: %s", waitErr, lastLines(tail, 5))
	}

	if onProgress != nil {
		onProgress(Progress{Percent: 100, Speed: 0})
	}
	return nil
}

func (r *Runner) applyPriority(cmd *exec.Cmd) {
	nice := 0
	switch strings.ToLower(r.priority) {
	case "low":
		nice = 10
	case "high":
		nice = -5
	default:
		return
	}
	if cmd.Process == nil {
		return
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, cmd.Process.Pid, nice); err != nil {
		// Raising priority needs privileges; run at the default instead.
		r.logger.Debug("set process priority failed",
			logging.String("priority", r.priority),
			logging.Error(err))
	}
}

func (r *Runner) removePartial(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("remove partial output failed",
			logging.String("path", path),
			logging.Error(err))
	}
}

// scanCRLines splits on \n or \r so ffmpeg's carriage-return progress
// updates arrive as separate lines.
func scanCRLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func lastLines(lines []string, n int) string {
	var kept []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, strings.TrimSpace(line))
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, " | ")
}
