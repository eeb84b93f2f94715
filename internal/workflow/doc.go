// Package workflow drives conversions in bulk.
//
// Pool processes the persistent SQLite queue with a fixed number of workers.
// A file lock in the state directory keeps one runner per queue. Each
// worker claims one job at a time, runs the converter, and records the
// outcome; transient failures are requeued with exponential backoff until
// queue.max_attempts is spent.
//
// RunBatch converts an in-memory list of files with the same worker model
// but without persistence, for the batch command.
package workflow
