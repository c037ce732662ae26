// Package normalize converts acquired media into the canonical audio format
// the speech service expects: a single-channel, 16 kHz, 16-bit PCM WAV file.
//
// Normalize probes the source with ffprobe first so containers without an
// audio stream are rejected before ffmpeg runs, selects the dialogue stream
// with internal/media/audio, and then transcodes under a timeout. Failures are
// tagged with the services error markers so callers can report them as format
// or configuration problems.
package normalize
