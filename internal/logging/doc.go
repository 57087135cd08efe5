// Package logging builds the slog loggers used across mediabox.
//
// Two output formats are supported: a console handler that renders
// "TIMESTAMP LEVEL component: message key=value" lines, and a JSON handler
// with normalized ts/level/msg keys. Both can fan out to stdout/stderr and a
// log file simultaneously.
package logging
