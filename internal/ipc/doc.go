// Package ipc exposes the daemon over JSON-RPC on a root-only Unix socket and
// ships the matching client used by the CLI.
//
// The socket is local only. Triggers sent here go through the same loop and
// guard as button presses, so a busy daemon drops them.
package ipc
