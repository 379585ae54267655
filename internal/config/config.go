package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Input describes the button device and the press-duration thresholds.
type Input struct {
	Device           string `toml:"device"`
	KeyCode          int    `toml:"key_code"`
	PollTimeoutMS    int    `toml:"poll_timeout_ms"`
	ToggleAfterMS    int    `toml:"toggle_after_ms"`
	ProvisionAfterMS int    `toml:"provision_after_ms"`
	IgnoreAfterMS    int    `toml:"ignore_after_ms"`
}

// Watch describes the removable-media directory scanned for imports.
type Watch struct {
	Directory string `toml:"directory"`
	Filename  string `toml:"filename"`
	FSNotify  bool   `toml:"fsnotify"`
	Udev      bool   `toml:"udev"`
}

// Network contains toggle behaviour and the boot configuration location.
type Network struct {
	ToggleMode     string   `toml:"toggle_mode"`
	BootConfigPath string   `toml:"boot_config_path"`
	Services       []string `toml:"services"`
}

// Provisioning contains WPS handshake and supplicant configuration settings.
type Provisioning struct {
	WPADir                 string `toml:"wpa_dir"`
	ConfigName             string `toml:"config_name"`
	RestartPauseSeconds    int    `toml:"restart_pause_seconds"`
	RestartSettleSeconds   int    `toml:"restart_settle_seconds"`
	HandshakeWaitSeconds   int    `toml:"handshake_wait_seconds"`
	FreshnessWindowSeconds int    `toml:"freshness_window_seconds"`
}

// Audio contains playback settings for audible feedback.
type Audio struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	Player  string `toml:"player"`
}

// Paths contains runtime directories.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Toggle         bool   `toml:"toggle"`
	Provisioning   bool   `toml:"provisioning"`
	Import         bool   `toml:"import"`
	Reboot         bool   `toml:"reboot"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for remoteaccessd.
//
// Configuration sections by subsystem:
//   - Input: button device, key code and press thresholds
//   - Watch: removable media directory and wake sources
//   - Network: toggle mode, boot config and dependent services
//   - Provisioning: wpa_supplicant directory and handshake timings
//   - Audio: feedback sounds
//   - Paths: log and runtime state directories
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Input         Input         `toml:"input"`
	Watch         Watch         `toml:"watch"`
	Network       Network       `toml:"network"`
	Provisioning  Provisioning  `toml:"provisioning"`
	Audio         Audio         `toml:"audio"`
	Paths         Paths         `toml:"paths"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() string {
	return defaultConfigPath
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("remoteaccessd.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultConfigPath); err == nil && !info.IsDir() {
		return defaultConfigPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultConfigPath, false, nil
}

// ApplyArgs overrides the config with the daemon's positional arguments:
// input device, watch directory and an optional toggle mode keyword.
func (c *Config) ApplyArgs(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("expected <input-device> <watch-dir> [useOverlay|useIwconfig], got %d argument(s)", len(args))
	}
	device, err := expandPath(strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("input device: %w", err)
	}
	dir, err := expandPath(strings.TrimSpace(args[1]))
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if device == "" || dir == "" {
		return errors.New("input device and watch directory must not be empty")
	}
	c.Input.Device = device
	c.Watch.Directory = dir
	if len(args) == 3 {
		mode, ok := ModeFromKeyword(args[2])
		if !ok {
			return fmt.Errorf("unknown toggle mode %q (want useOverlay or useIwconfig)", args[2])
		}
		c.Network.ToggleMode = mode
	}
	return nil
}

// ModeFromKeyword maps the daemon's third positional argument onto a toggle
// mode. Only the exact keywords useOverlay and useIwconfig are accepted.
func ModeFromKeyword(arg string) (string, bool) {
	switch arg {
	case "useOverlay":
		return ToggleModeOverlay, true
	case "useIwconfig":
		return ToggleModeIwconfig, true
	default:
		return "", false
	}
}

// ParseToggleMode maps a network.toggle_mode value, or a keyword written in
// any case, to a canonical toggle mode.
func ParseToggleMode(value string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "useoverlay", ToggleModeOverlay:
		return ToggleModeOverlay, true
	case "useiwconfig", ToggleModeIwconfig:
		return ToggleModeIwconfig, true
	default:
		return "", false
	}
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SupplicantConfigPath is the managed wpa_supplicant configuration file.
func (c *Config) SupplicantConfigPath() string {
	return filepath.Join(c.Provisioning.WPADir, c.Provisioning.ConfigName)
}

// LockPath is the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "remoteaccessd.lock")
}

// PIDPath is the file holding the running daemon's pid.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "remoteaccessd.pid")
}

// SocketPath is the local control socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "remoteaccessd.sock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
