// Package template defines the declarative extraction templates and the
// read-only registry that serves them to the pipeline.
//
// A template names the fields expected in one announcement layout, the regexp
// pattern locating each field in normalized document text, and the business
// rules the validator runs over the extracted values. New layouts are added
// as data, either to the built-in set or as TOML files in the configured
// templates directory, without touching pipeline code.
package template
