// Package watcher detects removable media carrying a wpa_supplicant.conf.
//
// DirWatcher is polled by the daemon loop and fires once per insertion.
// Notifier only shortens the time until the next poll; it never emits
// requests itself.
package watcher
