package orchestrator

import (
	"context"
	"log/slog"

	"remoteaccessd/internal/audio"
	"remoteaccessd/internal/config"
	"remoteaccessd/internal/logging"
	"remoteaccessd/internal/notifications"
)

// adapter resolves the wireless adapter. An empty name means the flow must
// abort.
func (o *Orchestrator) adapter(ctx context.Context, logger *slog.Logger) string {
	dev, err := o.deps.Inspector.AdapterName(ctx)
	if err != nil {
		warnStep(logger, "wireless adapter lookup failed", Wrap(ErrEnvironment, "adapter", "lookup", "", err), "action skipped")
		return ""
	}
	if dev == "" {
		logging.WarnWithContext(logger, "no wireless adapter found", "adapter_missing",
			logging.String(logging.FieldErrorHint, Hint(ErrEnvironment)),
			logging.String(logging.FieldImpact, "action skipped"),
		)
	}
	return dev
}

func (o *Orchestrator) toggle(ctx context.Context, logger *slog.Logger) flowResult {
	dev := o.adapter(ctx, logger)
	if dev == "" {
		return aborted("no wireless adapter")
	}
	logger = logger.With(logging.String("adapter", dev))
	if o.opts.ToggleMode == config.ToggleModeIwconfig {
		return o.toggleRadio(ctx, logger, dev)
	}
	return o.toggleOverlay(ctx, logger, dev)
}

// toggleOverlay flips the boot overlay line. A changed line needs a reboot,
// so services are only enabled for the next boot; otherwise they are also
// started or stopped now.
func (o *Orchestrator) toggleOverlay(ctx context.Context, logger *slog.Logger, dev string) flowResult {
	current, err := o.deps.BootConfig.WirelessEnabled()
	if err != nil {
		failStep(logger, "boot configuration unreadable", Wrap(ErrFilesystem, "toggle", "read boot config", "", err))
		return failed("boot configuration unreadable")
	}
	target := !current
	logger.Info("toggling remote access",
		logging.String(logging.FieldEventType, "toggle_started"),
		logging.String("mode", config.ToggleModeOverlay),
		logging.Bool("target_enabled", target),
	)

	var changed bool
	if target {
		changed, err = o.deps.BootConfig.SetWirelessEnabled(true)
		if err != nil {
			failStep(logger, "boot configuration update failed", Wrap(ErrFilesystem, "toggle", "write boot config", "", err))
			return failed("boot configuration update failed")
		}
		if changed {
			o.play(ctx, logger, audio.WirelessOn)
		}
		if err := o.deps.Radio.SetPowerSaving(ctx, dev, false); err != nil {
			warnStep(logger, "power saving not disabled", Wrap(ErrExternalTool, "toggle", "power saving", "", err), "adapter may sleep when idle")
		}
	} else {
		changed, err = o.deps.BootConfig.SetWirelessEnabled(false)
		if err != nil {
			failStep(logger, "boot configuration update failed", Wrap(ErrFilesystem, "toggle", "write boot config", "", err))
			return failed("boot configuration update failed")
		}
		if changed {
			o.play(ctx, logger, audio.WirelessOff)
		}
		if err := o.deps.Radio.SetPowerSaving(ctx, dev, true); err != nil {
			warnStep(logger, "power saving not enabled", Wrap(ErrExternalTool, "toggle", "power saving", "", err), "adapter keeps full power until reboot")
		}
	}

	mustReboot := changed
	if err := o.deps.Services.SetEnabled(ctx, target); err != nil {
		warnStep(logger, "service enablement incomplete", Wrap(ErrExternalTool, "toggle", "systemctl", "", err), "services may not follow the new state after boot")
	}
	if !mustReboot {
		if err := o.deps.Services.SetRunning(ctx, target); err != nil {
			warnStep(logger, "service start/stop incomplete", Wrap(ErrExternalTool, "toggle", "systemctl", "", err), "services may not follow the new state")
		}
	}

	logger.Info("remote access toggled",
		logging.String(logging.FieldEventType, "toggle_completed"),
		logging.Bool("target_enabled", target),
		logging.Bool("must_reboot", mustReboot),
	)
	o.notify(ctx, logger, notifications.EventAccessToggled, notifications.Payload{
		"enabled": target,
		"mode":    config.ToggleModeOverlay,
		"reboot":  mustReboot,
	})
	res := completed(stateLabel(target))
	if mustReboot {
		res.rebootReason = "boot configuration changed"
	}
	return res
}

// toggleRadio switches the transmitter directly; it never reboots.
func (o *Orchestrator) toggleRadio(ctx context.Context, logger *slog.Logger, dev string) flowResult {
	has, err := o.deps.Inspector.HasHardwareAddress(ctx, dev)
	if err != nil {
		warnStep(logger, "adapter state unknown", Wrap(ErrEnvironment, "toggle", "link state", "", err), "action skipped")
		return aborted("adapter state unknown")
	}
	target := !has
	logger.Info("toggling remote access",
		logging.String(logging.FieldEventType, "toggle_started"),
		logging.String("mode", config.ToggleModeIwconfig),
		logging.Bool("target_enabled", target),
	)

	if target {
		o.play(ctx, logger, audio.WirelessOn)
		if err := o.deps.Radio.SetTransmit(ctx, dev, true); err != nil {
			warnStep(logger, "transmitter not enabled", Wrap(ErrExternalTool, "toggle", "txpower", "", err), "wireless may stay off")
		}
		if err := o.deps.Radio.SetPowerSaving(ctx, dev, false); err != nil {
			warnStep(logger, "power saving not disabled", Wrap(ErrExternalTool, "toggle", "power saving", "", err), "adapter may sleep when idle")
		}
	} else {
		o.play(ctx, logger, audio.WirelessOff)
		if err := o.deps.Radio.SetPowerSaving(ctx, dev, true); err != nil {
			warnStep(logger, "power saving not enabled", Wrap(ErrExternalTool, "toggle", "power saving", "", err), "adapter keeps full power")
		}
		if err := o.deps.Radio.SetTransmit(ctx, dev, false); err != nil {
			warnStep(logger, "transmitter not disabled", Wrap(ErrExternalTool, "toggle", "txpower", "", err), "wireless may stay on")
		}
	}
	if err := o.deps.Services.SetRunning(ctx, target); err != nil {
		warnStep(logger, "service start/stop incomplete", Wrap(ErrExternalTool, "toggle", "systemctl", "", err), "services may not follow the new state")
	}

	logger.Info("remote access toggled",
		logging.String(logging.FieldEventType, "toggle_completed"),
		logging.Bool("target_enabled", target),
		logging.Bool("must_reboot", false),
	)
	o.notify(ctx, logger, notifications.EventAccessToggled, notifications.Payload{
		"enabled": target,
		"mode":    config.ToggleModeIwconfig,
	})
	return completed(stateLabel(target))
}

func stateLabel(enabled bool) string {
	if enabled {
		return "remote access enabled"
	}
	return "remote access disabled"
}
