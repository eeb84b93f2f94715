// Package preflight provides readiness checks for the filesystem paths and
// external tools audiosrt depends on.
//
// These checks run in two contexts:
//   - "audiosrt queue run" calls RunAll and CheckSystemDeps before starting
//     workers. A failed check aborts the run instead of failing every job.
//   - "audiosrt deps" renders both sets of results as tables.
//
// Optional directories are skipped when they are not configured.
package preflight
