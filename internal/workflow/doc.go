// Package workflow orchestrates the announcement pipeline end to end.
//
// The Pipeline runs normalize -> extract -> validate for single files and
// bounded-concurrency folder batches; the Submitter drives queued tasks
// through the DMH submission, the post-success backup snapshot, and the
// final lock. Both sides lean on the queue store for every state transition,
// so concurrent runs cannot disagree about a task's lifecycle.
package workflow
