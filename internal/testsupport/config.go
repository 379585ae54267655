package testsupport

import (
	"path/filepath"
	"testing"

	"remoteaccessd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose every host path lives under a unique
// temp directory: input device, watch dir, boot config, wpa dir, audio,
// logs and state.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Input.Device = filepath.Join(base, "dev", "event0")
	cfgVal.Watch.Directory = filepath.Join(base, "media")
	cfgVal.Network.BootConfigPath = filepath.Join(base, "boot", "config.txt")
	cfgVal.Provisioning.WPADir = filepath.Join(base, "etc", "wpa_supplicant")
	cfgVal.Audio.Dir = filepath.Join(base, "share")
	cfgVal.Audio.Enabled = false
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "run")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithToggleMode selects overlay or iwconfig toggling.
func WithToggleMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Network.ToggleMode = mode
	}
}

// WithNtfyTopic enables notifications against the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
