// Command remoteaccessd runs the button and removable-media wireless access
// daemon and provides control subcommands for a running instance.
//
// Invoked with positional arguments it starts the daemon:
//
//	remoteaccessd <inputDevice> <watchDir> [useOverlay|useIwconfig]
//
// Exit codes: 0 on a clean shutdown, 1 when the input device cannot be
// opened, 2 for bad arguments or configuration, 3 for internal failures and
// 4 when not running as root.
package main
