package orchestrator

import (
	"log/slog"
	"time"

	"remoteaccessd/internal/audio"
	"remoteaccessd/internal/bootconfig"
	"remoteaccessd/internal/config"
	"remoteaccessd/internal/hostcmd"
	"remoteaccessd/internal/network"
	"remoteaccessd/internal/notifications"
	"remoteaccessd/internal/services"
	"remoteaccessd/internal/wpa"
)

// NewHostDeps wires the host-backed collaborators described by cfg.
func NewHostDeps(cfg *config.Config, runner hostcmd.Runner, notifier notifications.Service, logger *slog.Logger) Deps {
	var player audio.Player = audio.Silent{}
	if cfg.Audio.Enabled {
		player = audio.NewCommandPlayer(runner, cfg.Audio.Player, cfg.Audio.Dir, logger)
	}
	timing := wpa.Timing{
		RestartPause:  time.Duration(cfg.Provisioning.RestartPauseSeconds) * time.Second,
		RestartSettle: time.Duration(cfg.Provisioning.RestartSettleSeconds) * time.Second,
	}
	return Deps{
		Inspector:  network.NewInspector(runner),
		Radio:      network.NewRadio(runner),
		BootConfig: bootconfig.New(cfg.Network.BootConfigPath),
		Services:   services.NewSystemd(runner, cfg.Network.Services),
		Rebooter:   services.NewRebooter(runner),
		Supplicant: wpa.NewClient(runner, cfg.SupplicantConfigPath(), timing),
		Player:     player,
		Notifier:   notifier,
	}
}
