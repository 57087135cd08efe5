package main

import (
	"testing"

	"mediabox/internal/ipc"
)

func TestTaskLabel(t *testing.T) {
	cases := map[string]string{
		"encode":   "Encode",
		"gif":      "Gif",
		" trim ":   "Trim",
		"download": "Download",
	}
	for input, want := range cases {
		if got := taskLabel(input); got != want {
			t.Errorf("taskLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatProgress(t *testing.T) {
	running := ipc.QueueItem{Status: "running"}
	running.Progress.Percent = 42.5
	running.Progress.Speed = 1.87
	if got := formatProgress(running); got != "42.5% (1.87x)" {
		t.Errorf("unexpected running progress %q", got)
	}

	running.Progress.Speed = 0
	if got := formatProgress(running); got != "42.5%" {
		t.Errorf("unexpected speedless progress %q", got)
	}

	if got := formatProgress(ipc.QueueItem{Status: "completed"}); got != "100%" {
		t.Errorf("unexpected completed progress %q", got)
	}
	if got := formatProgress(ipc.QueueItem{Status: "pending"}); got != "-" {
		t.Errorf("unexpected pending progress %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 40); got != "short" {
		t.Errorf("short strings should pass through, got %q", got)
	}
	if got := truncate("abcdefghij", 8); got != "abcde..." {
		t.Errorf("unexpected truncation %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		512:               "512 B",
		2048:              "2.0 KiB",
		5 * 1024 * 1024:   "5.0 MiB",
		3 << 30:           "3.0 GiB",
		1536 * 1024 * 102: "153.0 MiB",
	}
	for input, want := range cases {
		if got := formatBytes(input); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(0); got != "-" {
		t.Errorf("zero duration should be dash, got %q", got)
	}
	if got := formatDuration(75.5); got != "1:15.50" {
		t.Errorf("unexpected duration %q", got)
	}
	if got := formatDuration(3723.25); got != "1:02:03.25" {
		t.Errorf("unexpected long duration %q", got)
	}
}
