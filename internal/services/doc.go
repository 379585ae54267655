// Package services switches the remote-access system services and reboots
// the host through systemd.
//
// Enablement decides what runs after the next boot; start and stop change
// what runs now. Callers decide which of the two a toggle needs.
package services
