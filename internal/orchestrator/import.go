package orchestrator

import (
	"context"
	"log/slog"
	"path/filepath"

	"remoteaccessd/internal/audio"
	"remoteaccessd/internal/fileutil"
	"remoteaccessd/internal/logging"
	"remoteaccessd/internal/notifications"
)

// importConfig installs src into the supplicant directory with owner-only
// permissions and requests a reboot. Identical content is a no-op.
func (o *Orchestrator) importConfig(ctx context.Context, logger *slog.Logger, src string) flowResult {
	dest := filepath.Join(o.opts.WPADir, filepath.Base(src))
	logger = logger.With(logging.String("source", src), logging.String("destination", dest))

	same, err := fileutil.SameContent(src, dest)
	if err != nil {
		err = Wrap(ErrFilesystem, "import", "compare", "", err)
		failStep(logger, "configuration compare failed", err)
		o.notifyError(ctx, logger, "import", err)
		return failed("compare failed")
	}
	if same {
		logger.Info("configuration unchanged, skipping import",
			logging.String(logging.FieldEventType, "import_skipped"),
		)
		return noop("configuration unchanged")
	}

	if err := fileutil.CopyFileVerified(src, dest, 0o600); err != nil {
		err = Wrap(ErrFilesystem, "import", "copy", "", err)
		failStep(logger, "configuration copy failed", err)
		o.notifyError(ctx, logger, "import", err)
		return failed("copy failed")
	}

	logger.Info("configuration imported",
		logging.String(logging.FieldEventType, "import_completed"),
	)
	o.play(ctx, logger, audio.ConfigImported)
	o.notify(ctx, logger, notifications.EventConfigImported, notifications.Payload{"source": src})
	res := completed("configuration imported")
	res.rebootReason = "supplicant configuration imported"
	return res
}
