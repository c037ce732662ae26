// Package main hosts the accentscope CLI entrypoint and command graph.
//
// Commands analyze a single URL or file, serve the web interface and HTTP
// API, watch a drop folder, and report readiness. Configuration loading and
// logger construction live in commandContext so subcommands only wire flags
// to the internal packages.
package main
