// Package bootconfig edits the firmware boot configuration line that
// disables the on-board wireless adapter at the next boot.
package bootconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DisableWirelessOverlay is the directive that keeps the wireless adapter
// off at boot. A leading '#' comments it out.
const DisableWirelessOverlay = "dtoverlay=disable-wifi"

// File is a boot configuration file on disk.
type File struct {
	path string
}

// New returns a File for path.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// WirelessEnabled reports whether the adapter will be enabled after the
// next boot: the directive is absent or commented out. A missing file
// counts as enabled.
func (f *File) WirelessEnabled() (bool, error) {
	lines, _, err := f.read()
	if err != nil {
		return false, err
	}
	idx, active := findDirective(lines)
	return idx < 0 || !active, nil
}

// SetWirelessEnabled rewrites the directive so the adapter comes up (or
// stays down) at the next boot. changed reports whether the boot-time
// state differs from before, which is when a reboot is needed. Enabling
// with no directive present appends a commented marker and reports no
// change.
func (f *File) SetWirelessEnabled(enabled bool) (changed bool, err error) {
	lines, mode, err := f.read()
	if err != nil {
		return false, err
	}
	want := DisableWirelessOverlay
	if enabled {
		want = "#" + DisableWirelessOverlay
	}

	idx, active := findDirective(lines)
	switch {
	case idx < 0:
		lines = append(lines, want)
		changed = !enabled
	case active == !enabled:
		return false, nil
	default:
		lines[idx] = want
		changed = true
	}
	if err := f.write(lines, mode); err != nil {
		return false, err
	}
	return changed, nil
}

func (f *File) read() ([]string, fs.FileMode, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0o644, nil
		}
		return nil, 0, fmt.Errorf("read boot config %s: %w", f.path, err)
	}
	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(f.path); statErr == nil {
		mode = info.Mode().Perm()
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, mode, nil
	}
	return strings.Split(text, "\n"), mode, nil
}

// write replaces the file through a temporary sibling so a power loss never
// leaves a truncated boot configuration.
func (f *File) write(lines []string, mode fs.FileMode) error {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("write boot config: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write boot config: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write boot config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write boot config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("write boot config: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		cleanup()
		return fmt.Errorf("replace boot config %s: %w", f.path, err)
	}
	return nil
}

// findDirective returns the index of the first line carrying the directive,
// commented or not, and whether that line is active.
func findDirective(lines []string) (int, bool) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		body := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		if body != DisableWirelessOverlay {
			continue
		}
		return i, !strings.HasPrefix(trimmed, "#")
	}
	return -1, false
}
