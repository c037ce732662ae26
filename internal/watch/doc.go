// Package watch analyzes media files dropped into a directory.
//
// A Watcher subscribes to fsnotify events for one directory, waits until a
// file has been quiet for the settle interval, then hands it to the analyzer
// as an upload. Files are processed one at a time in arrival order. Hidden
// files and extensions outside the allow-list are ignored.
package watch
