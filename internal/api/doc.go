// Package api defines wire-format types and converters for the HTTP, WebSocket,
// and CLI JSON output. It translates analysis reports, preflight results, and
// the accent table into transport-friendly DTOs so presentation code never
// serializes internal types directly.
//
// # Key Types
//
// AnalysisResponse: accent label, confidence percentage, tier, and the
// supplementary explanation fields plus Diagnostics.
//
// ErrorResponse: failure message with its category and a remediation hint.
//
// StreamEvent: one WebSocket frame (progress, result, or error).
//
// StatusResponse: readiness checks and external binary availability.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for browser consumers. Internal enums (tiers,
// variants, categories) are exposed as strings. Timestamps use RFC3339 with
// milliseconds.
package api
