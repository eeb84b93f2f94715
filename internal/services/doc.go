// Package services defines shared helpers consumed by the conversion stages and
// the queue workers.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, worker names and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified with errors.Is regardless of which stage produced them.
//
// Use these helpers when wiring new stage logic so error classification and
// observability stay uniform across the pipeline.
package services
