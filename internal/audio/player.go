// Package audio plays the short feedback clips that tell the user what the
// daemon is doing after a button press.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"remoteaccessd/internal/hostcmd"
	"remoteaccessd/internal/logging"
)

// Sound names a feedback clip.
type Sound string

const (
	WirelessOn       Sound = "wifi_on.wav"
	WirelessOff      Sound = "wifi_off.wav"
	Rebooting        Sound = "rebooting.wav"
	ProvisionStarted Sound = "wps_started.wav"
	ProvisionOK      Sound = "succeded.wav"
	Failed           Sound = "failed.wav"
	ConfigImported   Sound = "wpa_updated.wav"
)

// All lists every clip the daemon may play.
var All = []Sound{WirelessOn, WirelessOff, Rebooting, ProvisionStarted, ProvisionOK, Failed, ConfigImported}

// Player plays a clip to completion.
type Player interface {
	Play(ctx context.Context, sound Sound) error
}

// CommandPlayer plays clips from a directory with an external player such
// as aplay.
type CommandPlayer struct {
	runner  hostcmd.Runner
	command string
	dir     string
	logger  *slog.Logger
}

// NewCommandPlayer returns a player that runs "<command> <dir>/<clip>".
func NewCommandPlayer(runner hostcmd.Runner, command, dir string, logger *slog.Logger) *CommandPlayer {
	return &CommandPlayer{
		runner:  runner,
		command: command,
		dir:     dir,
		logger:  logging.NewComponentLogger(logger, "audio"),
	}
}

// Path returns the file a clip is loaded from.
func (p *CommandPlayer) Path(sound Sound) string {
	return filepath.Join(p.dir, string(sound))
}

func (p *CommandPlayer) Play(ctx context.Context, sound Sound) error {
	path := p.Path(sound)
	p.logger.Debug("playing sound", logging.String("sound", string(sound)))
	if err := p.runner.Run(ctx, p.command, path); err != nil {
		return fmt.Errorf("play %s: %w", sound, err)
	}
	return nil
}

// Silent discards every clip.
type Silent struct{}

func (Silent) Play(context.Context, Sound) error { return nil }
