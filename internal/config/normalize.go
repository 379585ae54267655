package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeInput(); err != nil {
		return err
	}
	if err := c.normalizeWatch(); err != nil {
		return err
	}
	if err := c.normalizeNetwork(); err != nil {
		return err
	}
	if err := c.normalizeProvisioning(); err != nil {
		return err
	}
	if err := c.normalizeAudio(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeInput() error {
	var err error
	if c.Input.Device, err = expandPath(strings.TrimSpace(c.Input.Device)); err != nil {
		return fmt.Errorf("input.device: %w", err)
	}
	if c.Input.KeyCode == 0 {
		c.Input.KeyCode = defaultKeyCode
	}
	if c.Input.PollTimeoutMS == 0 {
		c.Input.PollTimeoutMS = defaultPollTimeoutMS
	}
	return nil
}

func (c *Config) normalizeWatch() error {
	var err error
	if c.Watch.Directory, err = expandPath(strings.TrimSpace(c.Watch.Directory)); err != nil {
		return fmt.Errorf("watch.directory: %w", err)
	}
	c.Watch.Filename = strings.TrimSpace(c.Watch.Filename)
	if c.Watch.Filename == "" {
		c.Watch.Filename = defaultWatchFilename
	}
	return nil
}

func (c *Config) normalizeNetwork() error {
	raw := c.Network.ToggleMode
	if strings.TrimSpace(raw) == "" {
		c.Network.ToggleMode = ToggleModeOverlay
	} else if mode, ok := ParseToggleMode(raw); ok {
		c.Network.ToggleMode = mode
	} else {
		return fmt.Errorf("network.toggle_mode: unsupported value %q", raw)
	}
	var err error
	if strings.TrimSpace(c.Network.BootConfigPath) == "" {
		c.Network.BootConfigPath = defaultBootConfigPath
	}
	if c.Network.BootConfigPath, err = expandPath(c.Network.BootConfigPath); err != nil {
		return fmt.Errorf("network.boot_config_path: %w", err)
	}
	services := make([]string, 0, len(c.Network.Services))
	seen := make(map[string]struct{}, len(c.Network.Services))
	for _, svc := range c.Network.Services {
		svc = strings.TrimSpace(svc)
		if svc == "" {
			continue
		}
		if _, ok := seen[svc]; ok {
			continue
		}
		seen[svc] = struct{}{}
		services = append(services, svc)
	}
	c.Network.Services = services
	return nil
}

func (c *Config) normalizeProvisioning() error {
	var err error
	if strings.TrimSpace(c.Provisioning.WPADir) == "" {
		c.Provisioning.WPADir = defaultWPADir
	}
	if c.Provisioning.WPADir, err = expandPath(c.Provisioning.WPADir); err != nil {
		return fmt.Errorf("provisioning.wpa_dir: %w", err)
	}
	c.Provisioning.ConfigName = strings.TrimSpace(c.Provisioning.ConfigName)
	if c.Provisioning.ConfigName == "" {
		c.Provisioning.ConfigName = defaultSupplicantConfigName
	}
	return nil
}

func (c *Config) normalizeAudio() error {
	var err error
	if strings.TrimSpace(c.Audio.Dir) == "" {
		c.Audio.Dir = defaultAudioDir
	}
	if c.Audio.Dir, err = expandPath(c.Audio.Dir); err != nil {
		return fmt.Errorf("audio.dir: %w", err)
	}
	c.Audio.Player = strings.TrimSpace(c.Audio.Player)
	if c.Audio.Player == "" {
		c.Audio.Player = defaultAudioPlayer
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("REMOTEACCESSD_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
