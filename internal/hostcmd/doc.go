// Package hostcmd runs host utilities (iwconfig, wpa_cli, systemctl, aplay,
// reboot) on behalf of the daemon.
//
// Everything that touches the host goes through the Runner interface so the
// decision logic above it can be exercised with scripted fakes. Commands are
// executed directly rather than through a shell; output parsing happens in
// Go in the packages that consume it.
package hostcmd
