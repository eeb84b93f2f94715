// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties (codec, sample rate, channels)
//   - Format: container-level metadata (duration, size, format name)
//
// Inspect executes ffprobe and returns the parsed Result; helper methods pick
// out the audio streams the ingest stage cares about.
package ffprobe
