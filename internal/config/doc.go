// Package config loads, normalizes, and validates subident configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and clamps operational knobs such as worker
// counts to safe ranges. The Config type centralizes every threshold the
// matcher, ranker, and vector index need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
