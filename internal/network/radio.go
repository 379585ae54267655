package network

import (
	"context"
	"fmt"

	"remoteaccessd/internal/hostcmd"
)

// Radio controls transmit power and power saving through iwconfig.
type Radio struct {
	runner hostcmd.Runner
}

// NewRadio returns a radio controller backed by runner.
func NewRadio(runner hostcmd.Runner) *Radio {
	return &Radio{runner: runner}
}

// SetTransmit turns the transmitter on or off. Some drivers ignore the
// first "txpower auto" after "txpower off", so enabling issues it twice.
func (r *Radio) SetTransmit(ctx context.Context, dev string, on bool) error {
	if !on {
		if err := r.runner.Run(ctx, "iwconfig", dev, "txpower", "off"); err != nil {
			return fmt.Errorf("disable transmitter on %s: %w", dev, err)
		}
		return nil
	}
	for range 2 {
		if err := r.runner.Run(ctx, "iwconfig", dev, "txpower", "auto"); err != nil {
			return fmt.Errorf("enable transmitter on %s: %w", dev, err)
		}
	}
	return nil
}

// SetPowerSaving enables or disables adapter power management.
func (r *Radio) SetPowerSaving(ctx context.Context, dev string, on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	if err := r.runner.Run(ctx, "iwconfig", dev, "power", state); err != nil {
		return fmt.Errorf("set power saving %s on %s: %w", state, dev, err)
	}
	return nil
}
