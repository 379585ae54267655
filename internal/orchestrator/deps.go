package orchestrator

import (
	"context"
	"time"

	"remoteaccessd/internal/audio"
	"remoteaccessd/internal/notifications"
	"remoteaccessd/internal/wpa"
)

// Inspector answers questions about the wireless adapter.
type Inspector interface {
	AdapterName(ctx context.Context) (string, error)
	HasHardwareAddress(ctx context.Context, dev string) (bool, error)
	HasIPv4Address(ctx context.Context, dev string) (bool, error)
}

// Radio switches the adapter's transmitter and power saving.
type Radio interface {
	SetTransmit(ctx context.Context, dev string, on bool) error
	SetPowerSaving(ctx context.Context, dev string, on bool) error
}

// BootConfig reads and rewrites the boot-time wireless state.
type BootConfig interface {
	WirelessEnabled() (bool, error)
	SetWirelessEnabled(enabled bool) (changed bool, err error)
}

// Services switches the remote-access system services.
type Services interface {
	SetEnabled(ctx context.Context, enabled bool) error
	SetRunning(ctx context.Context, running bool) error
}

// Rebooter restarts the host.
type Rebooter interface {
	Reboot(ctx context.Context) error
}

// Supplicant drives the WPS handshake.
type Supplicant interface {
	EnsureUpdateConfig(ctx context.Context, dev string) (bool, error)
	RemoveNetworks(ctx context.Context, dev string) (int, error)
	StrongestWPSPeer(ctx context.Context, dev string) (wpa.Peer, bool, error)
	PushButton(ctx context.Context, dev, bssid string) error
	Wait(ctx context.Context, d time.Duration) error
	Confirm(now time.Time, window time.Duration) (bool, error)
}

// Deps bundles the host capabilities a flow may touch. Player and Notifier
// may be nil.
type Deps struct {
	Inspector  Inspector
	Radio      Radio
	BootConfig BootConfig
	Services   Services
	Rebooter   Rebooter
	Supplicant Supplicant
	Player     audio.Player
	Notifier   notifications.Service
}
