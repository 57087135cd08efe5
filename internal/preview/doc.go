// Package preview renders scrub thumbnails and audio waveform images for
// the timeline views. Results are cached in memory so repeated opens of the
// same file are instant; editing-tool caches are invalidated per file.
package preview
