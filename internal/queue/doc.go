// Package queue persists submission tasks in SQLite and owns their lifecycle.
//
// A task wraps one validated record and moves draft -> queued -> submitting
// -> submitted or failed; a submitted task locks once its backup snapshot is
// written and is read-only from then on. Transition legality is enforced with
// conditional updates, which also makes the queued -> submitting step
// exclusive under concurrent submit requests. The package also keeps the
// accepted-records table behind the duplicate check.
package queue
