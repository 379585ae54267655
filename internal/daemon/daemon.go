package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"remoteaccessd/internal/action"
	"remoteaccessd/internal/config"
	"remoteaccessd/internal/deps"
	"remoteaccessd/internal/input"
	"remoteaccessd/internal/logging"
	"remoteaccessd/internal/notifications"
	"remoteaccessd/internal/orchestrator"
	"remoteaccessd/internal/watcher"
)

// ErrAlreadyRunning is returned when another instance holds the daemon lock.
var ErrAlreadyRunning = errors.New("another remoteaccessd instance is already running")

// Source is the button device the loop waits on. *input.Device satisfies it.
type Source interface {
	Wait(timeout time.Duration) ([]input.Event, error)
	Wake()
	Path() string
	Name() string
}

// Handler executes classified requests. *orchestrator.Orchestrator satisfies it.
type Handler interface {
	Handle(ctx context.Context, req action.Request) (orchestrator.Outcome, error)
	State() orchestrator.State
	LastOutcome() (orchestrator.Outcome, bool)
}

// Daemon owns the control loop: it waits on the button device, classifies
// presses, drains control-socket triggers and polls the watched directory.
// Every request is executed on the loop goroutine.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	source   Source
	handler  Handler
	notifier notifications.Service
	logPath  string

	classifier  *input.Classifier
	dirWatcher  *watcher.DirWatcher
	pollTimeout time.Duration

	lockPath string
	lock     *flock.Flock

	triggers     chan action.Request
	running      atomic.Bool
	mediaPresent atomic.Bool

	mu        sync.Mutex
	cancel    context.CancelFunc
	startedAt time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	State        string
	Mode         string
	InputDevice  string
	InputName    string
	WatchDir     string
	MediaPresent bool
	LastOutcome  *orchestrator.Outcome
	LockFilePath string
	LogPath      string
	StartedAt    time.Time
	Dependencies []deps.Status
}

// New constructs a daemon around an opened input source and a handler.
func New(cfg *config.Config, source Source, handler Handler, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || source == nil || handler == nil {
		return nil, errors.New("daemon requires config, input source, and handler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	th := input.Thresholds{
		Toggle:    time.Duration(cfg.Input.ToggleAfterMS) * time.Millisecond,
		Provision: time.Duration(cfg.Input.ProvisionAfterMS) * time.Millisecond,
		Ignore:    time.Duration(cfg.Input.IgnoreAfterMS) * time.Millisecond,
	}
	if th.Toggle <= 0 || th.Provision <= th.Toggle || th.Ignore <= th.Provision {
		th = input.DefaultThresholds()
	}
	poll := time.Duration(cfg.Input.PollTimeoutMS) * time.Millisecond
	if poll <= 0 {
		poll = 3 * time.Second
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "daemon"),
		source:      source,
		handler:     handler,
		notifier:    notifier,
		classifier:  input.NewClassifier(uint16(cfg.Input.KeyCode), th),
		dirWatcher:  watcher.NewDirWatcher(cfg.Watch.Directory, cfg.Watch.Filename, logger),
		pollTimeout: poll,
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
		triggers:    make(chan action.Request, 1),
	}, nil
}

// SetLogPath records the active log file reported by Status.
func (d *Daemon) SetLogPath(path string) {
	d.mu.Lock()
	d.logPath = path
	d.mu.Unlock()
}

// Run acquires the instance lock and runs the control loop until ctx is
// cancelled or Shutdown is called. A cancellation lets the current action
// finish. ErrStuck and input.ErrDeviceGone end the loop with an error.
func (d *Daemon) Run(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.mu.Lock()
	d.cancel = cancel
	d.startedAt = time.Now()
	d.mu.Unlock()
	d.running.Store(true)
	defer d.running.Store(false)

	stopNudges := d.startNudges(ctx)
	defer stopNudges()

	go func() {
		<-ctx.Done()
		d.source.Wake()
	}()

	d.logger.Info("remoteaccessd started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("input_device", d.source.Path()),
		logging.String("input_name", d.source.Name()),
		logging.String("watch_dir", d.cfg.Watch.Directory),
		logging.String("toggle_mode", d.cfg.Network.ToggleMode),
		logging.String("lock", d.lockPath),
	)

	err = d.loop(ctx)
	if err != nil {
		d.logger.Error("remoteaccessd stopped on fatal error",
			logging.String(logging.FieldEventType, "daemon_fatal"),
			logging.Error(err),
		)
		return err
	}
	d.logger.Info("remoteaccessd stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
	return nil
}

func (d *Daemon) loop(ctx context.Context) error {
	for ctx.Err() == nil {
		events, err := d.source.Wait(d.pollTimeout)
		if err != nil {
			if errors.Is(err, input.ErrDeviceGone) {
				return fmt.Errorf("input device %s: %w", d.source.Path(), err)
			}
			return err
		}
		for _, ev := range events {
			if err := d.dispatch(ctx, d.classifier.Observe(ev)); err != nil {
				return err
			}
		}
		select {
		case req := <-d.triggers:
			if err := d.dispatch(ctx, req); err != nil {
				return err
			}
		default:
		}
		// Shutdown is checked between iterations only; the directory poll
		// of the current iteration always runs.
		req, ok := d.dirWatcher.Poll()
		d.mediaPresent.Store(d.dirWatcher.Present())
		if ok {
			if err := d.dispatch(ctx, req); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Daemon) dispatch(ctx context.Context, req action.Request) error {
	if req.IsIgnore() {
		if req.HeldFor > 0 {
			d.logger.Debug("press ignored",
				logging.String(logging.FieldEventType, "press_ignored"),
				logging.Duration("held_for", req.HeldFor),
			)
		}
		return nil
	}
	_, err := d.handler.Handle(ctx, req)
	if errors.Is(err, orchestrator.ErrStuck) {
		return err
	}
	return nil
}

func (d *Daemon) startNudges(ctx context.Context) func() {
	var stops []func()
	if d.cfg.Watch.FSNotify {
		n, err := watcher.NewNotifier(d.cfg.Watch.Directory, d.source.Wake, d.logger)
		if err != nil {
			logging.WarnWithContext(d.logger, "filesystem notifications unavailable", "fsnotify_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "ensure the parent of the watch directory exists"),
				logging.String(logging.FieldImpact, "media imports are noticed at the next poll"),
			)
		} else {
			go n.Run(ctx)
			stops = append(stops, func() { _ = n.Close() })
		}
	}
	if d.cfg.Watch.Udev {
		m := newNetlinkMonitor(d.logger, d.source.Wake)
		if err := m.Start(ctx); err == nil {
			stops = append(stops, m.Stop)
		}
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

// Trigger queues a control-socket request for the loop. It reports false
// when the orchestrator is not idle or another trigger is already waiting;
// such requests are dropped, never deferred.
func (d *Daemon) Trigger(req action.Request) bool {
	if !d.running.Load() || req.IsIgnore() {
		return false
	}
	if d.handler.State() != orchestrator.StateIdle {
		d.logger.Info("trigger dropped",
			logging.String(logging.FieldEventType, "request_dropped"),
			logging.String(logging.FieldAction, req.Kind.String()),
			logging.String("state", d.handler.State().String()),
			logging.String("source", string(req.Origin)),
		)
		return false
	}
	select {
	case d.triggers <- req:
		d.source.Wake()
		return true
	default:
		return false
	}
}

// Shutdown stops the loop after the current action.
func (d *Daemon) Shutdown() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	d.mu.Lock()
	startedAt := d.startedAt
	logPath := d.logPath
	d.mu.Unlock()

	st := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		State:        d.handler.State().String(),
		Mode:         d.cfg.Network.ToggleMode,
		InputDevice:  d.source.Path(),
		InputName:    d.source.Name(),
		WatchDir:     d.cfg.Watch.Directory,
		MediaPresent: d.mediaPresent.Load(),
		LockFilePath: d.lockPath,
		LogPath:      logPath,
		StartedAt:    startedAt,
		Dependencies: deps.CheckBinaries(deps.HostRequirements(d.cfg)),
	}
	if out, ok := d.handler.LastOutcome(); ok {
		st.LastOutcome = &out
	}
	return st
}
