package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"remoteaccessd/internal/config"
	"remoteaccessd/internal/hostcmd"
	"remoteaccessd/internal/ipc"
	"remoteaccessd/internal/network"
	"remoteaccessd/internal/preflight"
)

// ErrDaemonNotRunning indicates no live daemon process was found.
var ErrDaemonNotRunning = errors.New("daemon not running")

// StopResult captures daemon stop outcome.
type StopResult struct {
	PID    int
	Exited bool
}

// ReadPID returns the pid recorded in the pid file.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrDaemonNotRunning
		}
		return 0, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("daemon pid file %q is malformed", pidPath)
	}
	return pid, nil
}

// ProcessAlive reports whether pid names a live process.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Stop sends SIGTERM to the pid recorded in pidPath and waits up to timeout
// for the process to exit. The daemon finishes its current action first, so
// Exited may be false for a slow provisioning run.
func Stop(pidPath string, timeout time.Duration) (StopResult, error) {
	pid, err := ReadPID(pidPath)
	if err != nil {
		return StopResult{}, err
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	if !ProcessAlive(pid) {
		_ = os.Remove(pidPath)
		return StopResult{}, ErrDaemonNotRunning
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}

	result := StopResult{PID: pid}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !ProcessAlive(pid) {
			result.Exited = true
			return result, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return result, nil
}

// Trigger asks a running daemon to run a toggle or provisioning flow.
func Trigger(socketPath, actionName string) (*ipc.TriggerResponse, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return nil, ErrDaemonNotRunning
		}
		return nil, err
	}
	defer client.Close()
	return client.Trigger(actionName)
}

// TestNotification asks a running daemon to send a test notification.
func TestNotification(socketPath string) (*ipc.TestNotificationResponse, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return nil, ErrDaemonNotRunning
		}
		return nil, err
	}
	defer client.Close()
	return client.TestNotification()
}

// Snapshot combines daemon status with host checks for the status command.
type Snapshot struct {
	Daemon  ipc.StatusResponse
	Adapter preflight.AdapterProbe
	Checks  []preflight.Result
	Summary DependencySummary
}

// DependencySummary aggregates dependency readiness.
type DependencySummary struct {
	Total           int    `json:"total"`
	Available       int    `json:"available"`
	MissingRequired int    `json:"missing_required"`
	MissingOptional int    `json:"missing_optional"`
	Severity        string `json:"severity"`
	Detail          string `json:"detail"`
}

// BuildStatusSnapshot collects daemon status over the control socket and
// falls back to local dependency checks when the daemon is offline.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config, runner hostcmd.Runner) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &Snapshot{}

	client, err := ipc.Dial(cfg.SocketPath())
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			snap.Daemon = *resp
		}
	}
	if len(snap.Daemon.Dependencies) == 0 {
		snap.Daemon.Dependencies = ResolveDependencies(cfg)
	}
	if snap.Daemon.Mode == "" {
		snap.Daemon.Mode = cfg.Network.ToggleMode
	}

	if runner != nil {
		snap.Adapter = preflight.ProbeAdapter(ctx, network.NewInspector(runner))
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	snap.Checks = preflight.RunAll(checkCtx, cfg)
	snap.Summary = BuildDependencySummary(snap.Daemon.Dependencies)
	return snap, nil
}

// ResolveDependencies returns current dependency availability for status output.
func ResolveDependencies(cfg *config.Config) []ipc.DependencyStatus {
	checks := preflight.CheckSystemDeps(cfg)
	statuses := make([]ipc.DependencyStatus, 0, len(checks))
	for _, check := range checks {
		statuses = append(statuses, ipc.DependencyStatus{
			Name:        check.Name,
			Command:     check.Command,
			Description: check.Description,
			Optional:    check.Optional,
			Available:   check.Available,
			Path:        check.Path,
			Detail:      check.Detail,
		})
	}
	return statuses
}

// BuildDependencySummary computes aggregate dependency readiness.
func BuildDependencySummary(deps []ipc.DependencyStatus) DependencySummary {
	if len(deps) == 0 {
		return DependencySummary{
			Severity: "info",
			Detail:   "No dependency checks configured",
		}
	}

	missingRequired := 0
	missingOptional := 0
	for _, dep := range deps {
		if dep.Available {
			continue
		}
		if dep.Optional {
			missingOptional++
		} else {
			missingRequired++
		}
	}

	missingCount := missingRequired + missingOptional
	available := len(deps) - missingCount
	severity := "ok"
	if missingRequired > 0 {
		severity = "error"
	} else if missingOptional > 0 {
		severity = "warn"
	}
	detail := fmt.Sprintf("%d/%d available (missing: %d required, %d optional)", available, len(deps), missingRequired, missingOptional)
	if missingCount == 0 {
		detail = fmt.Sprintf("%d/%d available", available, len(deps))
	}

	return DependencySummary{
		Total:           len(deps),
		Available:       available,
		MissingRequired: missingRequired,
		MissingOptional: missingOptional,
		Severity:        severity,
		Detail:          detail,
	}
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
