// Package logs reads the accentscope log file for the `logs` command.
//
// Last returns the trailing lines with bounded memory; Follow streams lines
// appended afterwards, waking on fsnotify write events with a slow poll as
// a fallback for filesystems that do not deliver them.
package logs
