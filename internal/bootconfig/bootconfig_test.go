package bootconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const baseConfig = "# Raspberry Pi config\ndtparam=audio=on\n"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.txt")
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func readConfig(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestWirelessEnabled(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"absent", baseConfig, true},
		{"commented", baseConfig + "#dtoverlay=disable-wifi\n", true},
		{"commented with space", baseConfig + "# dtoverlay=disable-wifi\n", true},
		{"active", baseConfig + "dtoverlay=disable-wifi\n", false},
		{"other overlay", baseConfig + "dtoverlay=disable-bt\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(writeConfig(t, tt.content)).WirelessEnabled()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("WirelessEnabled = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissingFileCountsAsEnabled(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "config.txt"))
	enabled, err := f.WirelessEnabled()
	if err != nil || !enabled {
		t.Fatalf("enabled=%v err=%v", enabled, err)
	}
}

func TestSetWirelessEnabled(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		enable      bool
		wantChanged bool
		wantLine    string
	}{
		{"enable flips active line", baseConfig + "dtoverlay=disable-wifi\n", true, true, "#dtoverlay=disable-wifi"},
		{"disable flips commented line", baseConfig + "#dtoverlay=disable-wifi\n", false, true, "dtoverlay=disable-wifi"},
		{"enable appends marker", baseConfig, true, false, "#dtoverlay=disable-wifi"},
		{"disable appends directive", baseConfig, false, true, "dtoverlay=disable-wifi"},
		{"enable already enabled", baseConfig + "#dtoverlay=disable-wifi\n", true, false, "#dtoverlay=disable-wifi"},
		{"disable already disabled", baseConfig + "dtoverlay=disable-wifi\n", false, false, "dtoverlay=disable-wifi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			f := New(path)
			changed, err := f.SetWirelessEnabled(tt.enable)
			if err != nil {
				t.Fatal(err)
			}
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tt.wantChanged)
			}
			got := readConfig(t, path)
			if !strings.HasPrefix(got, baseConfig) {
				t.Fatalf("unrelated lines must survive, got %q", got)
			}
			if strings.Count(got, "dtoverlay=disable-wifi") != 1 {
				t.Fatalf("expected exactly one directive line, got %q", got)
			}
			if !strings.Contains(got, "\n"+tt.wantLine+"\n") {
				t.Fatalf("expected line %q in %q", tt.wantLine, got)
			}
			enabled, err := f.WirelessEnabled()
			if err != nil {
				t.Fatal(err)
			}
			if enabled != tt.enable {
				t.Fatalf("WirelessEnabled after set = %v, want %v", enabled, tt.enable)
			}
		})
	}
}

func TestSetPreservesMode(t *testing.T) {
	path := writeConfig(t, baseConfig+"dtoverlay=disable-wifi\n")
	if _, err := New(path).SetWirelessEnabled(true); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("mode = %o, want 755", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}
