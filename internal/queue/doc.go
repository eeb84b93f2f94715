// Package queue persists conversion jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// A job moves pending -> processing -> completed or failed. Workers claim
// the oldest ready pending job with a single UPDATE ... RETURNING statement,
// so a job is never handed to two workers. Transient failures go back to
// pending with a not-before time; jobs left processing by a crashed runner
// are reset on the next start.
//
// The database is working storage for the local queue rather than an
// archive. Schema changes bump schemaVersion in schema.go; users clear the
// database to adopt the new schema.
package queue
