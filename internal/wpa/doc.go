// Package wpa drives wpa_supplicant for push-button (WPS) provisioning.
//
// Client wraps the wpa_cli and wpa_supplicant invocations needed to prepare
// the supplicant for saving credentials, pick the strongest WPS-capable
// access point, start the push-button handshake, and confirm that fresh
// credentials were written to the supplicant configuration.
package wpa
