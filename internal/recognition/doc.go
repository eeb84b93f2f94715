// Package recognition turns decoded PCM audio into timestamped word tokens.
//
// An Adapter owns a Cache of loaded models, one per ModelSize tier, and
// delegates inference to a Loader backend. Two backends are provided:
// WhisperX (run through uvx) and whisper.cpp (whisper-cli with ggml
// weights). Both emit word-level timings that are normalized into
// transcript.Token values: NFC text, monotonic starts, no overlaps.
//
// Load failures wrap ErrModelLoad and inference failures wrap
// ErrTranscription so callers can classify them with errors.Is.
package recognition
