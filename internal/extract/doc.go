// Package extract applies template field patterns to normalized documents,
// producing raw field values with provenance for the validation stage.
package extract
