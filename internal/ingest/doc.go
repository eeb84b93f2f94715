// Package ingest decodes arbitrary audio inputs into the 16 kHz mono PCM WAV
// the recognizers consume.
//
// Decoding is delegated to ffmpeg after an ffprobe inspection confirms the
// input carries at least one audio stream. The decoded file lives in a
// per-conversion scratch directory owned by the returned Audio value; callers
// release it with Cleanup once recognition is finished.
package ingest
