// Package language provides unified language code normalization and mapping.
//
// All language-related conversions (ISO 639-1, ISO 639-2, display names,
// stream tag extraction) are consolidated here so audio track selection
// and display formatting share one table.
package language
