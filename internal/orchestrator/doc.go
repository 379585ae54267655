// Package orchestrator executes action requests against the host.
//
// A single Guard admits at most one operation at a time. Requests arriving
// while an operation runs, or while a reboot is pending, are dropped rather
// than queued. Each admitted request gets a correlation id that is attached
// to every log line and notification of its flow.
//
// Flows:
//   - ToggleAccess flips remote access on or off, either by rewriting the
//     boot overlay line (and rebooting) or by switching the radio directly.
//   - StartProvisioning runs a WPS push-button handshake against the
//     strongest WPS-capable access point.
//   - ImportConfiguration installs a supplicant configuration found on
//     removable media and reboots.
//
// Host access goes through the small capability interfaces in deps.go so
// every flow can be exercised with fakes.
package orchestrator
