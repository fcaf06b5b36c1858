// Package logging assembles the structured slog loggers shared by the
// roster commands.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes context-aware helpers so pipeline code can
// automatically tag log lines with the run ID and command name. The
// package also provides a no-op logger for tests and wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every
// component emits records with the same shape and routing.
package logging
