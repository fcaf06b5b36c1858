// Package main hosts the roster CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into the two
// curation pipelines (description classification and manifest building),
// plus configuration scaffolding and validation. It centralizes
// configuration resolution, the per-dataset run lock, and structured
// logging setup so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags
// here.
package main
