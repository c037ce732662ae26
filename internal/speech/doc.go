// Package speech is a client for the cloud speech service's fast
// transcription REST API with candidate-locale language identification.
//
// Transcribe uploads a normalized WAV file as multipart form data together
// with a JSON definition naming the candidate locales, then folds the
// per-phrase results into one Transcription: the transcript text, the locale
// covering most of the speech, and the duration-weighted confidence for that
// locale. Requests are never retried; HTTP failures surface as *StatusError
// so callers can tell credential problems from quota or server errors.
package speech
