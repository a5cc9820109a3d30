// Package services provides shared helpers for external collaborator clients:
// sentinel error markers for classification, error wrapping with stage
// context, and context annotations used by structured logging.
package services
