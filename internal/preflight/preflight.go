package preflight

import (
	"context"
	"path/filepath"

	"remoteaccessd/internal/audio"
	"remoteaccessd/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckInputDevice(cfg.Input.Device))
	results = append(results, CheckWatchDirectory(cfg.Watch.Directory))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Supplicant directory", cfg.Provisioning.WPADir))

	if cfg.Network.ToggleMode == config.ToggleModeOverlay {
		results = append(results, CheckBootConfig(cfg.Network.BootConfigPath))
	}

	if cfg.Audio.Enabled {
		results = append(results, CheckSounds(cfg.Audio.Dir))
	}

	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}

	return results
}

// Failed filters results down to failed checks.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func soundPaths(dir string) []string {
	paths := make([]string, 0, len(audio.All))
	for _, s := range audio.All {
		paths = append(paths, filepath.Join(dir, string(s)))
	}
	return paths
}
