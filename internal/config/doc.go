// Package config loads, normalizes, and validates streamkeeper configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STREAMKEEPER_API_TOKEN (optionally sourced from a local .env file). The
// Config type centralizes every knob the daemon and CLI need, so recording
// directories, capture timings, and site adapter settings are discovered in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
