// Package services defines shared utilities consumed by the pipeline
// packages.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and command names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that tag failures
//     as configuration, validation, conflict, or catalog problems.
//
// Use these helpers when wiring new pipeline logic so operational
// behaviour stays uniform across commands.
package services
