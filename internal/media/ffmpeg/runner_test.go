package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func stubCommand(t *testing.T, script string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	t.Cleanup(func() { commandContext = original })
}

func TestRunnerReportsProgress(t *testing.T) {
	stubCommand(t, `
		printf '  Duration: 00:00:10.00, start: 0.000000\n' >&2
		printf 'frame=1 time=00:00:05.00 speed=1.5x\n' >&2
		exit 0
	`)

	var samples []Progress
	runner := NewRunner("ffmpeg", "normal", nil)
	err := runner.Run(context.Background(), []string{"-i", "in.mp4", "out.mp4"}, 0, "", func(p Progress) {
		samples = append(samples, p)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("samples = %d, want 2 (midpoint + final)", len(samples))
	}
	if samples[0].Percent != 50 || samples[0].Speed != 1.5 {
		t.Errorf("first sample = %+v", samples[0])
	}
	if samples[1].Percent != 100 {
		t.Errorf("final sample = %+v", samples[1])
	}
}

func TestRunnerFailureIncludesStderrTail(t *testing.T) {
	stubCommand(t, `
		printf 'in.mp4: No such file or directory\n' >&2
		exit 1
	`)

	err := NewRunner("ffmpeg", "normal", nil).Run(context.Background(), nil, 0, "", nil)
	if err == nil {
		t.Fatal("Run succeeded, want failure")
	}
	if want := "No such file or directory"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q missing %q", err, want)
	}
}

func TestRunnerCancelRemovesPartialOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "partial.mp4")
	if err := os.WriteFile(output, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	stubCommand(t, `sleep 5`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	err := NewRunner("ffmpeg", "normal", nil).Run(ctx, nil, 0, output, nil)
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("partial output was not removed")
	}
}

func TestRunnerFailureRemovesPartialOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "partial.mp4")
	if err := os.WriteFile(output, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	stubCommand(t, `exit 1`)

	if err := NewRunner("ffmpeg", "normal", nil).Run(context.Background(), nil, 0, output, nil); err == nil {
		t.Fatal("Run succeeded, want failure")
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("partial output was not removed")
	}
}
