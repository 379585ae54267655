package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"remoteaccessd/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "remoteaccessd-test.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	result, err := logs.Tail(path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("expected offset at end of file, got %d", result.Offset)
	}
}

func TestTailMatch(t *testing.T) {
	path := writeLog(t, "toggle id=1\nimport id=2\ntoggle id=3\nprovision id=4\n")

	result, err := logs.Tail(path, logs.TailOptions{Offset: -1, Limit: 5, Match: "toggle"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Lines) != 2 || result.Lines[1] != "toggle id=3" {
		t.Fatalf("unexpected filtered lines: %#v", result.Lines)
	}
}

func TestTailFromOffsetSkipsPartialLine(t *testing.T) {
	path := writeLog(t, "first\nsecond")

	result, err := logs.Tail(path, logs.TailOptions{Offset: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "first" || result.Offset != 6 {
		t.Fatalf("unexpected result %+v", result)
	}

	appendLog(t, path, " half\n")
	result, err = logs.Tail(path, logs.TailOptions{Offset: result.Offset})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "second half" {
		t.Fatalf("expected completed line, got %#v", result.Lines)
	}
}

func TestTailMissingAndTruncated(t *testing.T) {
	result, err := logs.Tail(filepath.Join(t.TempDir(), "absent.log"), logs.TailOptions{Offset: -1, Limit: 3})
	if err != nil || len(result.Lines) != 0 {
		t.Fatalf("expected empty result for missing file, got %+v, %v", result, err)
	}

	path := writeLog(t, "new\n")
	result, err = logs.Tail(path, logs.TailOptions{Offset: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "new" {
		t.Fatalf("expected restart after truncation, got %#v", result.Lines)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, 6, 20*time.Millisecond, "", func(lines []string) error {
			mu.Lock()
			got = append(got, lines...)
			mu.Unlock()
			return nil
		})
	}()

	appendLog(t, path, "later\n")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("follow returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(got, ",") != "later" {
		t.Fatalf("unexpected followed lines %#v", got)
	}
}

func TestCurrentPath(t *testing.T) {
	dir := t.TempDir()
	if _, err := logs.CurrentPath(dir); err == nil {
		t.Fatal("expected error without a pointer")
	}
	target := filepath.Join(dir, "remoteaccessd-20260101T000000.000Z.log")
	if err := os.WriteFile(target, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(dir, logs.PointerName)); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	got, err := logs.CurrentPath(dir)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(target)
	if got != want {
		t.Fatalf("CurrentPath = %q, want %q", got, want)
	}
}
