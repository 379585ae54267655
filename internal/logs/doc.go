// Package logs reads the daemon's log files for the CLI.
//
// Tail returns the last N lines (or everything after a byte offset) with
// bounded memory, and Follow keeps polling the file for appended lines until
// its context ends. CurrentPath resolves the remoteaccessd.log pointer the
// daemon refreshes at every start.
package logs
