package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"remoteaccessd/internal/audio"
	"remoteaccessd/internal/config"
	"remoteaccessd/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckInputDeviceRejectsRegularFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "event0")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckInputDevice(f); result.Passed {
		t.Fatal("regular file must not pass as an input device")
	}
	if result := CheckInputDevice(filepath.Join(t.TempDir(), "missing")); result.Passed {
		t.Fatal("missing device must fail")
	}
}

func TestCheckInputDeviceAcceptsCharDevice(t *testing.T) {
	if _, err := os.Stat("/dev/null"); err != nil {
		t.Skip("/dev/null unavailable")
	}
	if result := CheckInputDevice("/dev/null"); !result.Passed {
		t.Fatalf("expected /dev/null to pass, got %s", result.Detail)
	}
}

func TestCheckWatchDirectory(t *testing.T) {
	base := t.TempDir()
	if r := CheckWatchDirectory(filepath.Join(base, "usb")); !r.Passed || !strings.Contains(r.Detail, "not mounted") {
		t.Fatalf("unmounted media under an existing parent must pass, got %+v", r)
	}
	if r := CheckWatchDirectory(filepath.Join(base, "missing", "usb")); r.Passed {
		t.Fatal("missing parent must fail")
	}
	if r := CheckWatchDirectory(base); !r.Passed || !strings.Contains(r.Detail, "mounted") {
		t.Fatalf("existing directory must pass, got %+v", r)
	}
}

func TestCheckSounds(t *testing.T) {
	dir := t.TempDir()
	for _, s := range audio.All[1:] {
		testsupport.WriteFile(t, filepath.Join(dir, string(s)), "RIFF")
	}
	r := CheckSounds(dir)
	if r.Passed || !strings.Contains(r.Detail, string(audio.All[0])) {
		t.Fatalf("expected missing %s, got %+v", audio.All[0], r)
	}
	testsupport.WriteFile(t, filepath.Join(dir, string(audio.All[0])), "RIFF")
	if r := CheckSounds(dir); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
}

func TestCheckNtfy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/private") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if r := CheckNtfy(context.Background(), srv.URL+"/remoteaccess"); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckNtfy(context.Background(), srv.URL+"/private"); r.Passed {
		t.Fatal("expected auth failure")
	}
	if r := CheckNtfy(context.Background(), "not a url"); r.Passed {
		t.Fatal("expected invalid URL failure")
	}
}

func TestRunAllGatesOnConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithToggleMode(config.ToggleModeIwconfig))
	names := map[string]bool{}
	for _, r := range RunAll(context.Background(), cfg) {
		names[r.Name] = true
	}
	for _, skipped := range []string{"Boot config", "Feedback sounds", "ntfy"} {
		if names[skipped] {
			t.Fatalf("%s must be skipped for this config", skipped)
		}
	}
	if !names["Input device"] || !names["Supplicant directory"] {
		t.Fatalf("missing core checks: %v", names)
	}
	if len(Failed(RunAll(context.Background(), cfg))) == 0 {
		t.Fatal("temp config without device node must report failures")
	}
}

type fakeInspector struct {
	name, mac, ip string
	err           error
}

func (f fakeInspector) AdapterName(context.Context) (string, error) { return f.name, f.err }

func (f fakeInspector) HardwareAddress(context.Context, string) (string, error) { return f.mac, nil }

func (f fakeInspector) IPv4Address(context.Context, string) (string, error) { return f.ip, nil }

func TestProbeAdapterDetail(t *testing.T) {
	tests := []struct {
		name string
		insp fakeInspector
		want string
	}{
		{"connected", fakeInspector{name: "wlan0", mac: "dc:a6:32:00:00:02", ip: "192.168.1.23"}, "wlan0 connected as 192.168.1.23"},
		{"up", fakeInspector{name: "wlan0", mac: "dc:a6:32:00:00:02"}, "wlan0 up (dc:a6:32:00:00:02), not connected"},
		{"radio off", fakeInspector{name: "wlan0"}, "wlan0 present, radio off"},
		{"absent", fakeInspector{}, "No wireless adapter detected"},
		{"error", fakeInspector{err: errors.New("iwconfig missing")}, "Adapter lookup failed: iwconfig missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProbeAdapter(context.Background(), tt.insp).Detail(); got != tt.want {
				t.Fatalf("Detail = %q, want %q", got, tt.want)
			}
		})
	}
}
