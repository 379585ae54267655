// Package daemon runs the remoteaccessd control loop.
//
// A single goroutine alternates between waiting on the button device and
// polling the watched media directory, handing classified requests to the
// orchestrator. Filesystem notifications, udev block events, control-socket
// triggers and shutdown only wake that wait early. A flock-based lock file
// prevents multiple instances.
package daemon
