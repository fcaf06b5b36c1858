// Package config loads, normalizes, and validates roster configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the CLI needs and derives the dataset layout: where the imaging and
// clinical exports are read from and where generated artifacts land.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
