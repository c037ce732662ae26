// Package server exposes the analyzer over HTTP.
//
// Routes:
//
//	GET  /                     HTML form (URL or file upload)
//	POST /analyze              HTML result page
//	POST /api/analyze          multipart "url" or "file" (or JSON {"url"}) -> api.AnalysisResponse
//	GET  /api/analyze/stream   WebSocket; client sends {"url"}, server streams progress then result or error
//	GET  /api/accents          accent table
//	GET  /api/status           readiness checks
//
// Every /api route honours the optional bearer token from paths.api_token.
// Failures are reported as api.ErrorResponse with a status derived from the
// error category. Only one server may run per log directory.
package server
