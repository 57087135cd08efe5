// Package ffmpeg builds ffmpeg command lines for the converter tasks and
// runs them with stderr progress parsing. One external process runs at a
// time; the runner owns cancellation and partial-output cleanup.
package ffmpeg
