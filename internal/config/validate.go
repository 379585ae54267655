package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateInput(); err != nil {
		return err
	}
	if err := c.validateNetwork(); err != nil {
		return err
	}
	if err := c.validateTimings(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

// ValidateDaemon checks the settings only the running daemon needs. They
// usually arrive as positional arguments, so Load does not require them.
func (c *Config) ValidateDaemon() error {
	if strings.TrimSpace(c.Input.Device) == "" {
		return errors.New("input.device must be set (first positional argument)")
	}
	if strings.TrimSpace(c.Watch.Directory) == "" {
		return errors.New("watch.directory must be set (second positional argument)")
	}
	return nil
}

func (c *Config) validateInput() error {
	if c.Input.KeyCode <= 0 || c.Input.KeyCode > 0x2ff {
		return fmt.Errorf("input.key_code %d is outside the evdev key range", c.Input.KeyCode)
	}
	if err := ensurePositiveMap(map[string]int{
		"input.poll_timeout_ms":    c.Input.PollTimeoutMS,
		"input.toggle_after_ms":    c.Input.ToggleAfterMS,
		"input.provision_after_ms": c.Input.ProvisionAfterMS,
		"input.ignore_after_ms":    c.Input.IgnoreAfterMS,
	}); err != nil {
		return err
	}
	if c.Input.ToggleAfterMS >= c.Input.ProvisionAfterMS {
		return errors.New("input.provision_after_ms must be greater than input.toggle_after_ms")
	}
	if c.Input.ProvisionAfterMS >= c.Input.IgnoreAfterMS {
		return errors.New("input.ignore_after_ms must be greater than input.provision_after_ms")
	}
	return nil
}

func (c *Config) validateNetwork() error {
	switch c.Network.ToggleMode {
	case ToggleModeOverlay, ToggleModeIwconfig:
	default:
		return fmt.Errorf("network.toggle_mode must be %q or %q", ToggleModeOverlay, ToggleModeIwconfig)
	}
	if strings.Contains(c.Provisioning.ConfigName, "/") {
		return errors.New("provisioning.config_name must be a file name, not a path")
	}
	if strings.Contains(c.Watch.Filename, "/") {
		return errors.New("watch.filename must be a file name, not a path")
	}
	return nil
}

func (c *Config) validateTimings() error {
	if err := ensurePositiveMap(map[string]int{
		"provisioning.handshake_wait_seconds":   c.Provisioning.HandshakeWaitSeconds,
		"provisioning.freshness_window_seconds": c.Provisioning.FreshnessWindowSeconds,
	}); err != nil {
		return err
	}
	if c.Provisioning.RestartPauseSeconds < 0 {
		return errors.New("provisioning.restart_pause_seconds must be >= 0")
	}
	if c.Provisioning.RestartSettleSeconds < 0 {
		return errors.New("provisioning.restart_settle_seconds must be >= 0")
	}
	if c.Provisioning.FreshnessWindowSeconds <= c.Provisioning.HandshakeWaitSeconds {
		return errors.New("provisioning.freshness_window_seconds must be greater than provisioning.handshake_wait_seconds")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
