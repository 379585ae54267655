package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"remoteaccessd/internal/action"
	"remoteaccessd/internal/config"
	"remoteaccessd/internal/daemon"
	"remoteaccessd/internal/input"
	"remoteaccessd/internal/logging"
	"remoteaccessd/internal/orchestrator"
	"remoteaccessd/internal/testsupport"
)

type fakeSource struct {
	batches chan []input.Event
	errs    chan error
	woke    chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		batches: make(chan []input.Event, 8),
		errs:    make(chan error, 1),
		woke:    make(chan struct{}, 1),
	}
}

func (s *fakeSource) Wait(timeout time.Duration) ([]input.Event, error) {
	select {
	case b := <-s.batches:
		return b, nil
	case err := <-s.errs:
		return nil, err
	case <-s.woke:
		return nil, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

func (s *fakeSource) Wake() {
	select {
	case s.woke <- struct{}{}:
	default:
	}
}

func (s *fakeSource) Path() string { return "/dev/input/event-test" }
func (s *fakeSource) Name() string { return "test button" }

type fakeHandler struct {
	mu       sync.Mutex
	requests []action.Request
	state    orchestrator.State
	err      error
	onHandle func(action.Request)
	seen     chan action.Request
}

func newFakeHandler() *fakeHandler {
	return &fakeHandler{seen: make(chan action.Request, 8)}
}

func (h *fakeHandler) Handle(_ context.Context, req action.Request) (orchestrator.Outcome, error) {
	h.mu.Lock()
	h.requests = append(h.requests, req)
	err := h.err
	onHandle := h.onHandle
	h.mu.Unlock()
	if onHandle != nil {
		onHandle(req)
	}
	h.seen <- req
	return orchestrator.Outcome{Kind: req.Kind.String(), Result: orchestrator.ResultCompleted}, err
}

func (h *fakeHandler) State() orchestrator.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *fakeHandler) LastOutcome() (orchestrator.Outcome, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.requests) == 0 {
		return orchestrator.Outcome{}, false
	}
	return orchestrator.Outcome{Kind: h.requests[len(h.requests)-1].Kind.String(), Result: orchestrator.ResultCompleted}, true
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Watch.FSNotify = false
	cfg.Watch.Udev = false
	cfg.Input.PollTimeoutMS = 20
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

type running struct {
	d      *daemon.Daemon
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, cfg *config.Config, src daemon.Source, h daemon.Handler) *running {
	t.Helper()
	d, err := daemon.New(cfg, src, h, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &running{d: d, cancel: cancel, done: make(chan error, 1)}
	go func() { r.done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
		}
	})
	waitFor(t, func() bool { return d.Status(ctx).Running })
	return r
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func expectRequest(t *testing.T, h *fakeHandler) action.Request {
	t.Helper()
	select {
	case req := <-h.seen:
		return req
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
	return action.Request{}
}

func press(at time.Time, held time.Duration) []input.Event {
	return []input.Event{
		{Type: input.EvKey, Code: input.KeyF12, Value: 1, Received: at},
		{Type: input.EvKey, Code: input.KeyF12, Value: 0, Received: at.Add(held)},
	}
}

func TestRunClassifiesPressesAndStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	src := newFakeSource()
	h := newFakeHandler()
	r := start(t, cfg, src, h)

	now := time.Now()
	src.batches <- press(now, 500*time.Millisecond)
	src.batches <- press(now, 3*time.Second)
	req := expectRequest(t, h)
	if req.Kind != action.ToggleAccess || req.Origin != action.OriginButton {
		t.Fatalf("unexpected request %+v", req)
	}

	src.batches <- press(now, 6*time.Second)
	if req := expectRequest(t, h); req.Kind != action.StartProvisioning {
		t.Fatalf("expected provisioning, got %v", req.Kind)
	}

	r.cancel()
	select {
	case err := <-r.done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if len(h.requests) != 2 {
		t.Fatalf("short and long presses must not reach the handler, got %d requests", len(h.requests))
	}
}

func TestRunRejectsSecondInstance(t *testing.T) {
	cfg := testConfig(t)
	start(t, cfg, newFakeSource(), newFakeHandler())

	second, err := daemon.New(cfg, newFakeSource(), newFakeHandler(), nil, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := second.Run(context.Background()); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestRunStopsOnStuckAction(t *testing.T) {
	cfg := testConfig(t)
	src := newFakeSource()
	h := newFakeHandler()
	h.err = orchestrator.ErrStuck
	r := start(t, cfg, src, h)

	src.batches <- press(time.Now(), 3*time.Second)
	select {
	case err := <-r.done:
		if !errors.Is(err, orchestrator.ErrStuck) {
			t.Fatalf("expected ErrStuck, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on stuck action")
	}
}

func TestRunStopsWhenDeviceGone(t *testing.T) {
	cfg := testConfig(t)
	src := newFakeSource()
	r := start(t, cfg, src, newFakeHandler())

	src.errs <- input.ErrDeviceGone
	select {
	case err := <-r.done:
		if !errors.Is(err, input.ErrDeviceGone) {
			t.Fatalf("expected ErrDeviceGone, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after device loss")
	}
}

func TestRunImportsFromWatchedDirectoryOnce(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.Watch.Directory, 0o755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(cfg.Watch.Directory, cfg.Watch.Filename)
	testsupport.WriteFile(t, src, "network={\n}\n")

	h := newFakeHandler()
	r := start(t, cfg, newFakeSource(), h)

	req := expectRequest(t, h)
	if req.Kind != action.ImportConfiguration || req.SourcePath != src || req.Origin != action.OriginMedia {
		t.Fatalf("unexpected request %+v", req)
	}
	waitFor(t, func() bool { return r.d.Status(context.Background()).MediaPresent })

	time.Sleep(100 * time.Millisecond)
	select {
	case extra := <-h.seen:
		t.Fatalf("media left mounted must not re-import, got %+v", extra)
	default:
	}
}

func TestRunFinishesIterationAfterCancel(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.Watch.Directory, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfg.Watch.Directory, cfg.Watch.Filename)

	src := newFakeSource()
	h := newFakeHandler()
	r := start(t, cfg, src, h)

	// The medium appears and shutdown is requested while the toggle runs.
	h.mu.Lock()
	h.onHandle = func(req action.Request) {
		if req.Kind == action.ToggleAccess {
			if err := os.WriteFile(path, []byte("network={\n}\n"), 0o644); err != nil {
				t.Error(err)
			}
			r.cancel()
		}
	}
	h.mu.Unlock()

	src.batches <- press(time.Now(), 3*time.Second)
	if req := expectRequest(t, h); req.Kind != action.ToggleAccess {
		t.Fatalf("expected toggle, got %v", req.Kind)
	}
	if req := expectRequest(t, h); req.Kind != action.ImportConfiguration || req.SourcePath != path {
		t.Fatalf("expected import in the same iteration, got %+v", req)
	}
	select {
	case err := <-r.done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTrigger(t *testing.T) {
	cfg := testConfig(t)
	h := newFakeHandler()
	r := start(t, cfg, newFakeSource(), h)

	if !r.d.Trigger(action.Request{Kind: action.ToggleAccess, Origin: action.OriginControl}) {
		t.Fatal("expected trigger to be accepted while idle")
	}
	if req := expectRequest(t, h); req.Kind != action.ToggleAccess || req.Origin != action.OriginControl {
		t.Fatalf("unexpected request %+v", req)
	}

	if r.d.Trigger(action.Request{Origin: action.OriginControl}) {
		t.Fatal("ignore requests must be rejected")
	}

	h.mu.Lock()
	h.state = orchestrator.StateBusy
	h.mu.Unlock()
	if r.d.Trigger(action.Request{Kind: action.StartProvisioning, Origin: action.OriginControl}) {
		t.Fatal("trigger must be dropped while busy")
	}
}

func TestTriggerBeforeRunIsRejected(t *testing.T) {
	cfg := testConfig(t)
	d, err := daemon.New(cfg, newFakeSource(), newFakeHandler(), nil, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if d.Trigger(action.Request{Kind: action.ToggleAccess}) {
		t.Fatal("trigger must be rejected when the loop is not running")
	}
}

func TestStatus(t *testing.T) {
	cfg := testConfig(t)
	src := newFakeSource()
	h := newFakeHandler()
	r := start(t, cfg, src, h)
	r.d.SetLogPath("/var/log/remoteaccessd/remoteaccessd.log")

	src.batches <- press(time.Now(), 3*time.Second)
	expectRequest(t, h)

	st := r.d.Status(context.Background())
	if !st.Running || st.PID != os.Getpid() {
		t.Fatalf("unexpected running state %+v", st)
	}
	if st.State != "idle" || st.Mode != config.ToggleModeOverlay {
		t.Fatalf("unexpected state/mode %q/%q", st.State, st.Mode)
	}
	if st.InputDevice != src.Path() || st.InputName != src.Name() {
		t.Fatalf("unexpected input fields %+v", st)
	}
	if st.LockFilePath != cfg.LockPath() || st.LogPath == "" || st.StartedAt.IsZero() {
		t.Fatalf("unexpected paths %+v", st)
	}
	if st.LastOutcome == nil || st.LastOutcome.Kind != action.ToggleAccess.String() {
		t.Fatalf("expected last outcome, got %+v", st.LastOutcome)
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	cfg := testConfig(t)
	d, err := daemon.New(cfg, newFakeSource(), newFakeHandler(), nil, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	sent, msg, err := d.TestNotification(context.Background())
	if sent || err != nil || msg != "ntfy topic not configured" {
		t.Fatalf("unexpected result sent=%v msg=%q err=%v", sent, msg, err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := daemon.New(nil, newFakeSource(), newFakeHandler(), nil, nil); err == nil {
		t.Fatal("expected error without config")
	}
	if _, err := daemon.New(testConfig(t), nil, newFakeHandler(), nil, nil); err == nil {
		t.Fatal("expected error without input source")
	}
}
