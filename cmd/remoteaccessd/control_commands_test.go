package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"remoteaccessd/internal/action"
	"remoteaccessd/internal/daemon"
	"remoteaccessd/internal/ipc"
	"remoteaccessd/internal/logging"
	"remoteaccessd/internal/orchestrator"
)

type fakeController struct {
	mu        sync.Mutex
	accept    bool
	triggered []action.Request
}

func (f *fakeController) Status(context.Context) daemon.Status {
	return daemon.Status{
		Running:     true,
		PID:         777,
		State:       orchestrator.StatePendingReboot.String(),
		Mode:        "overlay",
		InputDevice: "/dev/input/event0",
		InputName:   "gpio-keys",
		WatchDir:    "/media/usb",
		StartedAt:   time.Now().Add(-time.Minute),
		LastOutcome: &orchestrator.Outcome{
			Kind:   action.ToggleAccess.String(),
			Origin: string(action.OriginButton),
			Result: orchestrator.ResultRebooting,
		},
	}
}

func (f *fakeController) Trigger(req action.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggered = append(f.triggered, req)
	return f.accept
}

func (f *fakeController) TestNotification(context.Context) (bool, string, error) {
	return false, "ntfy topic not configured", nil
}

func (f *fakeController) Shutdown() {}

func startFakeDaemon(t *testing.T, env *cliTestEnv, ctrl *fakeController) {
	t.Helper()
	if err := os.MkdirAll(env.stateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv, err := ipc.NewServer(ctx, filepath.Join(env.stateDir, "remoteaccessd.sock"), ctrl, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
}

func TestTriggerCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	ctrl := &fakeController{accept: true}
	startFakeDaemon(t, env, ctrl)

	stdout, stderr, code := runCLI(t, "--config", env.configPath, "trigger", "toggle")
	if code != exitOK {
		t.Fatalf("trigger failed with %d: %s", code, stderr)
	}
	requireContains(t, stdout, "toggle_access queued")

	ctrl.mu.Lock()
	ctrl.accept = false
	ctrl.mu.Unlock()
	_, stderr, code = runCLI(t, "--config", env.configPath, "trigger", "provision")
	if code != exitInternal {
		t.Fatalf("expected dropped trigger to fail with %d, got %d", exitInternal, code)
	}
	requireContains(t, stderr, "busy")

	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if len(ctrl.triggered) != 2 || ctrl.triggered[1].Kind != action.StartProvisioning {
		t.Fatalf("unexpected triggers %+v", ctrl.triggered)
	}
}

func TestTriggerCommandArguments(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, code := runCLI(t, "--config", env.configPath, "trigger"); code != exitUsage {
		t.Fatalf("expected usage exit without action, got %d", code)
	}
	if _, _, code := runCLI(t, "--config", env.configPath, "trigger", "toggle", "extra"); code != exitUsage {
		t.Fatalf("expected usage exit with extra args, got %d", code)
	}
}

func TestTriggerWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	_, stderr, code := runCLI(t, "--config", env.configPath, "trigger", "toggle")
	if code != exitInternal {
		t.Fatalf("expected exit %d, got %d", exitInternal, code)
	}
	requireContains(t, stderr, "daemon not running")
}

func TestTestNotifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	startFakeDaemon(t, env, &fakeController{})

	stdout, stderr, code := runCLI(t, "--config", env.configPath, "test-notify")
	if code != exitOK {
		t.Fatalf("test-notify failed with %d: %s", code, stderr)
	}
	requireContains(t, stdout, "ntfy topic not configured")
}

func TestStopWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, stderr, code := runCLI(t, "--config", env.configPath, "stop")
	if code != exitOK {
		t.Fatalf("stop failed with %d: %s", code, stderr)
	}
	requireContains(t, stdout, "Daemon is not running")
}

func TestStatusCommandReportsDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	startFakeDaemon(t, env, &fakeController{})

	stdout, stderr, code := runCLI(t, "--config", env.configPath, "status", "--no-adapter")
	if code != exitOK {
		t.Fatalf("status failed with %d: %s", code, stderr)
	}
	requireContains(t, stdout, "== Daemon ==")
	requireContains(t, stdout, "Running (pid 777")
	requireContains(t, stdout, "Pending Reboot")
	requireContains(t, stdout, "/dev/input/event0 (gpio-keys)")
	requireContains(t, stdout, "Toggle Access, rebooting, via button")
	requireContains(t, stdout, "== Dependencies ==")
	requireContains(t, stdout, "== Host Checks ==")
}

func TestStatusCommandJSONWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, stderr, code := runCLI(t, "--config", env.configPath, "status", "--no-adapter", "--json")
	if code != exitOK {
		t.Fatalf("status failed with %d: %s", code, stderr)
	}
	var payload statusJSON
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("decode status json: %v\n%s", err, stdout)
	}
	if payload.Daemon.Running {
		t.Fatal("expected daemon to be reported as not running")
	}
	if payload.Daemon.Mode != "overlay" {
		t.Fatalf("expected configured mode, got %q", payload.Daemon.Mode)
	}
	if len(payload.Daemon.Dependencies) == 0 || payload.Dependencies.Total != len(payload.Daemon.Dependencies) {
		t.Fatalf("expected dependency checks, got %+v", payload.Dependencies)
	}
	if len(payload.Checks) == 0 {
		t.Fatal("expected host checks in payload")
	}
}
