// Package config loads, normalizes, and validates optijpeg configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// JPEGTRAN. The Config type centralizes every knob the CLI needs, allowing the
// staging directory, optimizer binary, and default encode settings to be
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
