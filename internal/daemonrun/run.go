package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"remoteaccessd/internal/config"
	"remoteaccessd/internal/daemon"
	"remoteaccessd/internal/deps"
	"remoteaccessd/internal/hostcmd"
	"remoteaccessd/internal/input"
	"remoteaccessd/internal/ipc"
	"remoteaccessd/internal/logging"
	"remoteaccessd/internal/logs"
	"remoteaccessd/internal/notifications"
	"remoteaccessd/internal/orchestrator"
	"remoteaccessd/internal/preflight"
)

// ErrInputOpen marks a failure to open the button device.
var ErrInputOpen = errors.New("input device unavailable")

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Diagnostic  bool
}

// Run starts the remoteaccessd runtime loop and blocks until a termination
// signal arrives or the loop fails. SIGINT, SIGTERM and SIGHUP all request a
// graceful stop after the current action.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("remoteaccessd-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	var debugLogPath string
	if opts.Diagnostic {
		sessionID := uuid.NewString()
		debugDir := filepath.Join(cfg.Paths.LogDir, "debug")
		debugLogPath = filepath.Join(debugDir, fmt.Sprintf("remoteaccessd-%s.log", runID))
		handler, closer, debugErr := logging.NewDiagnosticHandler(debugLogPath)
		if debugErr != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", debugErr)
		} else {
			defer closer.Close()
			logger = logging.TeeLogger(logger, handler).With(logging.String("session_id", sessionID))
			if err := ensureCurrentLogPointer(debugDir, debugLogPath); err != nil {
				fmt.Fprintf(os.Stderr, "warn: unable to update debug/remoteaccessd.log link: %v\n", err)
			}
		}
		logger.Info("diagnostic mode enabled",
			logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
			logging.String("debug_log_path", debugLogPath),
		)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update remoteaccessd.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "remoteaccessd-*.log", Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, "debug"), Pattern: "remoteaccessd-*.log", Exclude: []string{debugLogPath}},
	)

	logDependencySnapshot(logger, cfg)
	logPreflight(signalCtx, logger, cfg)

	dev, err := input.Open(cfg.Input.Device)
	if err != nil {
		logging.ErrorWithContext(logger, "cannot open input device", "input_open_failed",
			logging.Error(err),
			logging.String("device", cfg.Input.Device),
			logging.String(logging.FieldErrorHint, "check the device path and that the daemon runs as root"),
		)
		return fmt.Errorf("%w: %w", ErrInputOpen, err)
	}
	defer dev.Close()

	notifier := notifications.NewService(cfg)
	runner := hostcmd.NewExecRunner(logger)
	orch := orchestrator.New(
		orchestrator.NewHostDeps(cfg, runner, notifier, logger),
		orchestrator.OptionsFromConfig(cfg),
		logger,
	)

	d, err := daemon.New(cfg, dev, orch, notifier, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	d.SetLogPath(logPath)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		logging.WarnWithContext(logger, "control socket unavailable", "ipc_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on "+cfg.Paths.StateDir),
			logging.String(logging.FieldImpact, "status and trigger commands cannot reach the daemon"),
		)
	} else {
		defer ipcServer.Close()
		ipcServer.Serve()
	}

	err = d.Run(signalCtx)
	if err != nil {
		return err
	}
	logger.Info("remoteaccessd shutting down",
		logging.String(logging.FieldEventType, "daemon_shutdown"),
	)
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logs.PointerName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	statuses := deps.CheckBinaries(deps.HostRequirements(cfg))
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("toggle_mode", cfg.Network.ToggleMode),
		logging.Bool("audio_enabled", cfg.Audio.Enabled),
		logging.Bool("notifications_enabled", cfg.Notifications.NtfyTopic != ""),
	}
	for _, st := range statuses {
		attrs = append(attrs, logging.Bool(st.Command+"_available", st.Available))
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)

	for _, st := range deps.Missing(statuses) {
		logging.WarnWithContext(logger, "required dependency missing", "dependency_missing",
			logging.String("dependency", st.Name),
			logging.String("command", st.Command),
			logging.String(logging.FieldImpact, st.Description+" will fail"),
			logging.String(logging.FieldErrorHint, st.Detail),
		)
	}
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for _, result := range preflight.Failed(preflight.RunAll(checkCtx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String(logging.FieldErrorHint, result.Detail),
		)
	}
}
