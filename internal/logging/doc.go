// Package logging builds the slog loggers used across dmhmr.
//
// It provides a human-readable console handler and a JSON handler selected by
// configuration, attribute helpers with standardized field names, and context
// plumbing so task and stage identifiers follow a record through the pipeline.
package logging
