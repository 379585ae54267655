package orchestrator

import (
	"context"
	"log/slog"

	"remoteaccessd/internal/audio"
	"remoteaccessd/internal/logging"
	"remoteaccessd/internal/notifications"
)

// provision runs the WPS push-button flow. Without an adapter it falls back
// to a toggle under the same guard acquisition. It never reboots.
func (o *Orchestrator) provision(ctx context.Context, logger *slog.Logger) flowResult {
	dev := o.adapter(ctx, logger)
	if dev == "" {
		logger.Info("no adapter for provisioning, toggling remote access instead",
			logging.String(logging.FieldEventType, "provision_fallback"),
		)
		return o.toggle(ctx, logger)
	}
	logger = logger.With(logging.String("adapter", dev))

	connected, err := o.deps.Inspector.HasIPv4Address(ctx, dev)
	if err != nil {
		warnStep(logger, "address lookup failed", Wrap(ErrEnvironment, "provision", "address", "", err), "assuming adapter is not connected")
	}
	if connected {
		logger.Info("adapter already connected, nothing to provision",
			logging.String(logging.FieldEventType, "provision_skipped"),
		)
		return noop("already connected")
	}

	restarted, err := o.deps.Supplicant.EnsureUpdateConfig(ctx, dev)
	if err != nil {
		return o.provisionFailed(ctx, logger, Wrap(ErrExternalTool, "provision", "update_config", "", err))
	}
	if restarted {
		logger.Info("supplicant restarted with update_config enabled",
			logging.String(logging.FieldEventType, "supplicant_restarted"),
		)
	}
	if removed, err := o.deps.Supplicant.RemoveNetworks(ctx, dev); err != nil {
		warnStep(logger, "remembered networks not fully removed", Wrap(ErrExternalTool, "provision", "remove_network", "", err), "old credentials may be retried")
	} else if removed > 0 {
		logger.Debug("removed remembered networks", logging.Int("count", removed))
	}

	peer, ok, err := o.deps.Supplicant.StrongestWPSPeer(ctx, dev)
	if err != nil {
		return o.provisionFailed(ctx, logger, Wrap(ErrExternalTool, "provision", "scan_results", "", err))
	}
	if !ok {
		return o.provisionFailed(ctx, logger, Wrap(ErrHandshake, "provision", "scan", "no WPS access point found", nil))
	}
	logger = logger.With(logging.String("bssid", peer.BSSID))
	logger.Info("starting WPS handshake",
		logging.String(logging.FieldEventType, "wps_started"),
		logging.String("ssid", peer.SSID),
		logging.Int("signal", peer.Signal),
	)

	o.play(ctx, logger, audio.ProvisionStarted)
	if err := o.deps.Supplicant.PushButton(ctx, dev, peer.BSSID); err != nil {
		return o.provisionFailed(ctx, logger, Wrap(ErrHandshake, "provision", "wps_pbc", "", err))
	}
	if err := o.deps.Supplicant.Wait(ctx, o.opts.HandshakeWait); err != nil {
		return o.provisionFailed(ctx, logger, Wrap(ErrHandshake, "provision", "wait", "", err))
	}

	saved, err := o.deps.Supplicant.Confirm(o.now(), o.opts.FreshnessWindow)
	if err != nil {
		return o.provisionFailed(ctx, logger, Wrap(ErrFilesystem, "provision", "confirm", "", err))
	}
	if !saved {
		return o.provisionFailed(ctx, logger, Wrap(ErrHandshake, "provision", "confirm", "no credentials saved", nil))
	}

	o.play(ctx, logger, audio.ProvisionOK)
	logger.Info("WPS credentials saved",
		logging.String(logging.FieldEventType, "wps_completed"),
	)
	o.notify(ctx, logger, notifications.EventProvisionSucceeded, notifications.Payload{
		"bssid": peer.BSSID,
		"ssid":  peer.SSID,
	})
	return completed("credentials saved from " + peer.BSSID)
}

func (o *Orchestrator) provisionFailed(ctx context.Context, logger *slog.Logger, err error) flowResult {
	failStep(logger, "WPS provisioning failed", err)
	o.play(ctx, logger, audio.Failed)
	o.notify(ctx, logger, notifications.EventProvisionFailed, notifications.Payload{"reason": err})
	return failed(err.Error())
}
