// Package logging assembles structured slog loggers and formatting helpers
// used across the pipeline.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code automatically tags log
// lines with the active stage and run correlation ID. Log output goes to
// stderr by default: stdout belongs to the machine-readable progress stream.
package logging
