// Package config loads, normalizes, and validates accentscope configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and resolves the speech service credentials
// exactly once: a .env file is loaded first, then SPEECH_API_KEY and
// SPEECH_API_REGION are read from the environment, and finally the secrets
// file is consulted for anything still missing. The Config type centralizes
// every knob the CLI, HTTP server, and watcher need.
//
// Missing credentials never fail Load; callers check Credentials at request
// time so commands that do not talk to the speech service keep working.
package config
