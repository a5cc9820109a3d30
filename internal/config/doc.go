// Package config loads, normalizes, and validates dmhmr configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DMH_USERNAME. The Config type centralizes every knob the pipeline and CLI
// need, so download/backup/template directories and DMH connection settings
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
