// Package acquire turns an analysis request into a local media file.
//
// A request names exactly one source: a public video URL, fetched with the
// yt-dlp command-line tool, or an uploaded file streamed to disk. Policy
// validation (extension and content-type allow-lists, declared size ceiling)
// runs before any bytes are read, and the ceiling is enforced again while
// copying so a lying Content-Length cannot exhaust the disk. Every acquired
// file is hashed with BLAKE3 for request diagnostics.
package acquire
