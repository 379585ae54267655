package services

import (
	"context"
	"errors"
	"fmt"

	"remoteaccessd/internal/hostcmd"
)

// Systemd drives units through systemctl.
type Systemd struct {
	runner hostcmd.Runner
	units  []string
}

// NewSystemd returns a controller for units, in order.
func NewSystemd(runner hostcmd.Runner, units []string) *Systemd {
	return &Systemd{runner: runner, units: append([]string(nil), units...)}
}

// Units returns the managed unit names.
func (s *Systemd) Units() []string {
	return append([]string(nil), s.units...)
}

// SetEnabled enables or disables every unit at boot. Every unit is
// attempted; failures are joined.
func (s *Systemd) SetEnabled(ctx context.Context, enabled bool) error {
	verb := "disable"
	if enabled {
		verb = "enable"
	}
	return s.each(ctx, verb)
}

// SetRunning starts or stops every unit now.
func (s *Systemd) SetRunning(ctx context.Context, running bool) error {
	verb := "stop"
	if running {
		verb = "start"
	}
	return s.each(ctx, verb)
}

func (s *Systemd) each(ctx context.Context, verb string) error {
	var errs []error
	for _, unit := range s.units {
		if err := s.runner.Run(ctx, "systemctl", verb, unit); err != nil {
			errs = append(errs, fmt.Errorf("systemctl %s %s: %w", verb, unit, err))
		}
	}
	return errors.Join(errs...)
}

// Rebooter restarts the host.
type Rebooter struct {
	runner hostcmd.Runner
}

// NewRebooter returns a rebooter backed by runner.
func NewRebooter(runner hostcmd.Runner) *Rebooter {
	return &Rebooter{runner: runner}
}

// Reboot asks the init system to restart the host. A nil error means the
// request was accepted, not that the host is already going down.
func (r *Rebooter) Reboot(ctx context.Context) error {
	if err := r.runner.Run(ctx, "reboot"); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}
