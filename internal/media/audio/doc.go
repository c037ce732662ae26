// Package audio picks the audio stream to transcribe when a container holds
// more than one.
//
// The selection filters out commentary and audio-description tracks (unless
// nothing else exists), prefers English-tagged tracks, then untagged tracks,
// then anything else. Ties go to the default-flagged stream and then to the
// earliest one. Channel layout does not matter because the normalizer
// downmixes to mono.
//
// Primary entry point:
//   - Select: analyzes ffprobe streams and returns the chosen stream
package audio
