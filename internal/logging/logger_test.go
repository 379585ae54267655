package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"remoteaccessd/internal/action"
	"remoteaccessd/internal/config"
	"remoteaccessd/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	logPath := filepath.Join(t.TempDir(), "logs", "remoteaccessd-run.log")

	logger, err := logging.NewFromConfig(&cfg, logPath)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon started")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "daemon started") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerFormatsHeaderAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := action.WithID(context.Background(), "0123456789abcdef")
	componentLogger := logging.NewComponentLogger(logger, "orchestrator")
	logging.WithContext(ctx, componentLogger).Info("wireless enabled",
		logging.String(logging.FieldAction, "toggle_access"),
		logging.Bool("must_reboot", false),
		logging.String("mode", "overlay"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	for _, want := range []string{"INFO [orchestrator] toggle_access · 01234567 – wireless enabled", "    - Mode: overlay", "    - Must reboot: no"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
	if strings.Contains(text, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", text)
	}
	if strings.Index(text, "Mode") > strings.Index(text, "Must reboot") {
		t.Fatalf("expected highlighted keys in fixed order:\n%s", text)
	}
}

func TestJSONLoggerRemapsKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("request dropped", logging.String(logging.FieldEventType, "request_dropped"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if entry["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
	if entry[logging.FieldEventType] != "request_dropped" {
		t.Fatalf("missing event type: %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestDiagnosticHandlerCapturesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag", "debug.log")
	handler, closer, err := logging.NewDiagnosticHandler(path)
	if err != nil {
		t.Fatalf("NewDiagnosticHandler: %v", err)
	}
	defer closer.Close()

	logger := logging.TeeLogger(logging.NewNop(), handler)
	logger.Debug("poll timeout", logging.Duration("wait", 3*time.Second))

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read diagnostic log: %v", err)
	}
	if !strings.Contains(string(content), "poll timeout") {
		t.Fatalf("expected debug message in diagnostic log, got %q", content)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "remoteaccessd-old.log")
	current := filepath.Join(dir, "remoteaccessd-current.log")
	fresh := filepath.Join(dir, "remoteaccessd-fresh.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, current, fresh, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -40)
	for _, path := range []string{old, current, other} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 30, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "remoteaccessd-*.log",
		Exclude: []string{current},
	})
	if removed != 1 {
		t.Fatalf("expected one file removed, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed, stat err=%v", old, err)
	}
	for _, keep := range []string{current, fresh, other} {
		if _, err := os.Stat(keep); err != nil {
			t.Fatalf("expected %s kept: %v", keep, err)
		}
	}
	if logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: dir}) != 0 {
		t.Fatal("retention 0 must disable pruning")
	}
}
