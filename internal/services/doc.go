// Package services defines shared utilities consumed by the pipeline stages
// and external collaborator integrations.
//
// Key responsibilities:
//   - Context helpers that stamp stage names and correlation identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     fatal (abort the run) or stage-recoverable (absorb with a safe default
//     artifact).
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays uniform across the pipeline.
package services
