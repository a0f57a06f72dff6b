// Package services defines shared utilities consumed by the save pipeline and
// the jpegtran integration.
//
// Key responsibilities:
//   - Context helpers that stamp staging session IDs and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent history statuses (failed vs skipped).
//   - The jpegtran subpackage, a thin abstraction that makes command execution
//     against the external optimizer testable.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the save path.
package services
