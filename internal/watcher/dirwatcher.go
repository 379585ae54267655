package watcher

import (
	"log/slog"
	"os"
	"path/filepath"

	"remoteaccessd/internal/action"
	"remoteaccessd/internal/logging"
)

// DirWatcher polls one directory for the absent→present edge of a target
// file. It is owned by the daemon loop and not safe for concurrent use.
type DirWatcher struct {
	dir      string
	filename string
	logger   *slog.Logger

	present bool
}

// NewDirWatcher watches dir for a regular file named filename.
func NewDirWatcher(dir, filename string, logger *slog.Logger) *DirWatcher {
	return &DirWatcher{
		dir:      dir,
		filename: filename,
		logger:   logging.NewComponentLogger(logger, "watcher"),
	}
}

// Dir returns the watched directory.
func (w *DirWatcher) Dir() string { return w.dir }

// Present reports whether the target has been seen since the directory
// last became empty or inaccessible.
func (w *DirWatcher) Present() bool { return w.present }

// Poll checks the directory once. It returns an ImportConfiguration request
// only on the poll where the target first appears. An inaccessible, missing
// or empty directory re-arms the edge; a non-empty directory without the
// target leaves it armed so the next poll scans again.
func (w *DirWatcher) Poll() (action.Request, bool) {
	info, err := os.Stat(w.dir)
	if err != nil || !info.IsDir() {
		w.reset("directory unavailable")
		return action.Request{}, false
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.reset("directory unreadable")
		return action.Request{}, false
	}
	if len(entries) == 0 {
		w.reset("directory empty")
		return action.Request{}, false
	}
	if w.present {
		return action.Request{}, false
	}

	for _, entry := range entries {
		if entry.Name() != w.filename {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		target, err := os.Stat(path)
		if err != nil || !target.Mode().IsRegular() {
			break
		}
		w.present = true
		w.logger.Info("configuration file detected",
			logging.String("source", path),
			logging.String(logging.FieldEventType, "media_detected"),
		)
		return action.Request{Kind: action.ImportConfiguration, SourcePath: path, Origin: action.OriginMedia}, true
	}
	return action.Request{}, false
}

func (w *DirWatcher) reset(reason string) {
	if w.present {
		w.logger.Debug("media presence reset", logging.String("reason", reason))
	}
	w.present = false
}
