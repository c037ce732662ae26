// Package analysis runs one accent analysis end to end.
//
// An Analyzer validates the request, checks speech credentials, then moves
// the media through acquisition, normalization, transcription, and
// classification inside a private scratch directory that is removed when
// Analyze returns. Progress is reported through an optional callback so the
// CLI, the HTTP server, and the WebSocket stream can render the same stages.
package analysis
