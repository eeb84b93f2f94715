// Package deps checks that the external binaries used for decoding and
// recognition (ffmpeg, ffprobe, uvx, whisper-cli) can be resolved on PATH.
package deps
