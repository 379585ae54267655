package wpa

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"remoteaccessd/internal/hostcmd"
)

// ErrHandshakeRejected is returned when wpa_cli answers FAIL to wps_pbc.
var ErrHandshakeRejected = errors.New("wps push-button rejected")

const updateConfigDirective = "update_config=1"

// Timing controls the pauses around a supplicant restart.
type Timing struct {
	RestartPause  time.Duration
	RestartSettle time.Duration
}

// Client issues supplicant commands for a single configuration file.
type Client struct {
	runner     hostcmd.Runner
	configPath string
	timing     Timing
	sleep      func(context.Context, time.Duration) error
}

// NewClient returns a client for the supplicant configuration at configPath.
func NewClient(runner hostcmd.Runner, configPath string, timing Timing) *Client {
	return &Client{
		runner:     runner,
		configPath: configPath,
		timing:     timing,
		sleep:      sleepContext,
	}
}

// ConfigPath returns the supplicant configuration location.
func (c *Client) ConfigPath() string { return c.configPath }

// HasUpdateConfig reports whether the supplicant may rewrite its own
// configuration, which WPS needs to persist credentials.
func (c *Client) HasUpdateConfig() (bool, error) {
	data, err := os.ReadFile(c.configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read supplicant config: %w", err)
	}
	return bytes.Contains(bytes.ToLower(data), []byte(updateConfigDirective)), nil
}

// EnsureUpdateConfig appends update_config=1 when missing and restarts the
// supplicant on dev so it picks the directive up. restarted reports whether
// anything was done.
func (c *Client) EnsureUpdateConfig(ctx context.Context, dev string) (restarted bool, err error) {
	ok, err := c.HasUpdateConfig()
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}

	// killall exits non-zero when nothing was running.
	_ = c.runner.Run(ctx, "killall", "-q", "wpa_supplicant")
	if err := c.sleep(ctx, c.timing.RestartPause); err != nil {
		return false, err
	}
	if err := appendLine(c.configPath, updateConfigDirective); err != nil {
		return false, err
	}
	if err := c.runner.Run(ctx, "wpa_supplicant", "-B", "-i"+dev, "-c"+c.configPath); err != nil {
		return true, fmt.Errorf("restart wpa_supplicant: %w", err)
	}
	if err := c.sleep(ctx, c.timing.RestartSettle); err != nil {
		return true, err
	}
	return true, nil
}

// RemoveNetworks deletes every network the running supplicant knows about
// on dev and returns how many were removed.
func (c *Client) RemoveNetworks(ctx context.Context, dev string) (int, error) {
	out, err := c.runner.Output(ctx, "wpa_cli", "-i"+dev, "list_networks")
	if err != nil {
		return 0, fmt.Errorf("list networks: %w", err)
	}
	ids := parseNetworkIDs(out)
	var errs []error
	removed := 0
	for _, id := range ids {
		if err := c.runner.Run(ctx, "wpa_cli", "-i"+dev, "remove_network", id); err != nil {
			errs = append(errs, fmt.Errorf("remove network %s: %w", id, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// ScanResults returns the supplicant's last scan on dev.
func (c *Client) ScanResults(ctx context.Context, dev string) ([]Peer, error) {
	out, err := c.runner.Output(ctx, "wpa_cli", "-i"+dev, "scan_results")
	if err != nil {
		return nil, fmt.Errorf("read scan results: %w", err)
	}
	return ParseScanResults(out), nil
}

// StrongestWPSPeer returns the WPS-capable access point with the highest
// signal level. ok is false when none advertise WPS.
func (c *Client) StrongestWPSPeer(ctx context.Context, dev string) (Peer, bool, error) {
	peers, err := c.ScanResults(ctx, dev)
	if err != nil {
		return Peer{}, false, err
	}
	peer, ok := StrongestWPS(peers)
	return peer, ok, nil
}

// PushButton starts the WPS push-button handshake with bssid.
func (c *Client) PushButton(ctx context.Context, dev, bssid string) error {
	out, err := c.runner.Output(ctx, "wpa_cli", "-i"+dev, "wps_pbc", bssid)
	if err != nil {
		return fmt.Errorf("wps_pbc %s: %w", bssid, err)
	}
	if strings.HasPrefix(strings.TrimSpace(string(out)), "FAIL") {
		return fmt.Errorf("wps_pbc %s: %w", bssid, ErrHandshakeRejected)
	}
	return nil
}

// Confirm reports whether the configuration holds a network block and was
// written within window of now.
func (c *Client) Confirm(now time.Time, window time.Duration) (bool, error) {
	info, err := os.Stat(c.configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat supplicant config: %w", err)
	}
	if now.Sub(info.ModTime()) >= window {
		return false, nil
	}
	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return false, fmt.Errorf("read supplicant config: %w", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if strings.HasPrefix(strings.ToLower(scanner.Text()), "network=") {
			return true, nil
		}
	}
	return false, nil
}

// Wait pauses for d or until ctx ends.
func (c *Client) Wait(ctx context.Context, d time.Duration) error {
	return c.sleep(ctx, d)
}

func parseNetworkIDs(out []byte) []string {
	var ids []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] < '0' || line[0] > '9' {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			ids = append(ids, fields[0])
		}
	}
	return ids
}

func appendLine(path, line string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read supplicant config: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open supplicant config: %w", err)
	}
	prefix := ""
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		prefix = "\n"
	}
	if _, err := f.WriteString(prefix + line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append to supplicant config: %w", err)
	}
	return f.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
