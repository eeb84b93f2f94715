// Package convert orchestrates one audio-to-subtitle conversion: validate
// options, decode the input, recognize speech, group tokens into cues,
// encode SRT, and write the file atomically.
//
// Every failure is returned as *Error carrying a Kind and the Stage where
// it happened. Kinds match with errors.Is, as do the internal/services
// markers they map to, so queue workers can decide what to retry without
// string matching. Only ModelLoadError and TranscriptionError are transient.
//
// Nothing is written unless every stage succeeds; a canceled context
// stops the pipeline at the next stage boundary.
package convert
