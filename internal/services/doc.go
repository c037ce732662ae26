// Package services defines shared utilities consumed by the analysis pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, stage names, and source kinds
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into the categories surfaced to users (configuration, acquisition,
//     format, size limit, service, validation).
//
// Use these helpers when wiring new pipeline stages so error handling and
// observability stay uniform from the CLI to the HTTP server.
package services
