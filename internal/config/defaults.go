package config

// Toggle modes. Overlay edits the boot config and reboots; iwconfig changes
// the live adapter.
const (
	ToggleModeOverlay  = "overlay"
	ToggleModeIwconfig = "iwconfig"
)

const (
	defaultConfigPath             = "/etc/remoteaccessd/config.toml"
	defaultKeyCode                = 88 // KEY_F12
	defaultPollTimeoutMS          = 3000
	defaultToggleAfterMS          = 2000
	defaultProvisionAfterMS       = 5000
	defaultIgnoreAfterMS          = 8000
	defaultWatchFilename          = "wpa_supplicant.conf"
	defaultBootConfigPath         = "/boot/config.txt"
	defaultWPADir                 = "/etc/wpa_supplicant"
	defaultSupplicantConfigName   = "wpa_supplicant.conf"
	defaultRestartPauseSeconds    = 1
	defaultRestartSettleSeconds   = 3
	defaultHandshakeWaitSeconds   = 10
	defaultFreshnessWindowSeconds = 13
	defaultAudioDir               = "/usr/local/share/remoteaccessd"
	defaultAudioPlayer            = "aplay"
	defaultLogDir                 = "/var/log/remoteaccessd"
	defaultStateDir               = "/run/remoteaccessd"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30
	defaultNotifyRequestTimeout   = 10
)

var defaultServices = []string{"ssh", "dhcpcd"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Input: Input{
			KeyCode:          defaultKeyCode,
			PollTimeoutMS:    defaultPollTimeoutMS,
			ToggleAfterMS:    defaultToggleAfterMS,
			ProvisionAfterMS: defaultProvisionAfterMS,
			IgnoreAfterMS:    defaultIgnoreAfterMS,
		},
		Watch: Watch{
			Filename: defaultWatchFilename,
			FSNotify: true,
			Udev:     true,
		},
		Network: Network{
			ToggleMode:     ToggleModeOverlay,
			BootConfigPath: defaultBootConfigPath,
			Services:       append([]string(nil), defaultServices...),
		},
		Provisioning: Provisioning{
			WPADir:                 defaultWPADir,
			ConfigName:             defaultSupplicantConfigName,
			RestartPauseSeconds:    defaultRestartPauseSeconds,
			RestartSettleSeconds:   defaultRestartSettleSeconds,
			HandshakeWaitSeconds:   defaultHandshakeWaitSeconds,
			FreshnessWindowSeconds: defaultFreshnessWindowSeconds,
		},
		Audio: Audio{
			Enabled: true,
			Dir:     defaultAudioDir,
			Player:  defaultAudioPlayer,
		},
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Toggle:         true,
			Provisioning:   true,
			Import:         true,
			Reboot:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
