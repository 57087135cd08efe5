package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mediabox/internal/ipc"
)

var titleCaser = cases.Title(language.English)

// taskLabel renders a task type for table output ("encode" -> "Encode").
func taskLabel(task string) string {
	return titleCaser.String(strings.TrimSpace(task))
}

func statusLabel(status string) string {
	return titleCaser.String(strings.TrimSpace(status))
}

func formatProgress(item ipc.QueueItem) string {
	switch item.Status {
	case "running":
		if item.Progress.Speed > 0 {
			return fmt.Sprintf("%.1f%% (%.2fx)", item.Progress.Percent, item.Progress.Speed)
		}
		return fmt.Sprintf("%.1f%%", item.Progress.Percent)
	case "completed":
		return "100%"
	default:
		return "-"
	}
}

func formatSource(item ipc.QueueItem) string {
	if item.SourceURL != "" {
		return item.SourceURL
	}
	return item.SourcePath
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

const (
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

func colorStatus(status string, colorize bool) string {
	label := statusLabel(status)
	if !colorize {
		return label
	}
	switch status {
	case "completed":
		return ansiGreen + label + ansiReset
	case "failed":
		return ansiRed + label + ansiReset
	case "running":
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}
