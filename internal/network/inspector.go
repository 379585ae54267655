package network

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"remoteaccessd/internal/hostcmd"
)

var adapterLine = regexp.MustCompile(`^\W*(\w+)`)

// Inspector queries adapter state.
type Inspector struct {
	runner hostcmd.Runner
}

// NewInspector returns an inspector backed by runner.
func NewInspector(runner hostcmd.Runner) *Inspector {
	return &Inspector{runner: runner}
}

// AdapterName returns the first interface iwconfig reports as IEEE 802.x.
// An empty name with a nil error means no wireless adapter is present.
func (i *Inspector) AdapterName(ctx context.Context) (string, error) {
	out, err := i.runner.Output(ctx, "iwconfig")
	if err != nil && len(out) == 0 {
		return "", fmt.Errorf("list wireless adapters: %w", err)
	}
	return parseAdapterName(out), nil
}

func parseAdapterName(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "IEEE 802") {
			continue
		}
		if m := adapterLine.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// HardwareAddress returns the link-layer address ip reports for dev, or ""
// when none is listed.
func (i *Inspector) HardwareAddress(ctx context.Context, dev string) (string, error) {
	out, err := i.runner.Output(ctx, "ip", "link")
	if err != nil {
		return "", fmt.Errorf("list links: %w", err)
	}
	return matchFirst(hardwarePattern(dev), out), nil
}

// HasHardwareAddress reports whether dev lists a link-layer address.
func (i *Inspector) HasHardwareAddress(ctx context.Context, dev string) (bool, error) {
	addr, err := i.HardwareAddress(ctx, dev)
	return addr != "", err
}

// IPv4Address returns the source address of a link-scope route via dev, or
// "" when the adapter holds no address.
func (i *Inspector) IPv4Address(ctx context.Context, dev string) (string, error) {
	out, err := i.runner.Output(ctx, "ip", "route")
	if err != nil {
		return "", fmt.Errorf("list routes: %w", err)
	}
	return matchFirst(ipv4Pattern(dev), out), nil
}

// HasIPv4Address reports whether dev holds an IPv4 address.
func (i *Inspector) HasIPv4Address(ctx context.Context, dev string) (bool, error) {
	addr, err := i.IPv4Address(ctx, dev)
	return addr != "", err
}

// The address line follows the interface line in ip link output; \W spans
// the newline between them.
func hardwarePattern(dev string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(dev) + `.*\W.*ether\W*((?:[0-9a-fA-F]{2}:){5}[0-9a-fA-F]{2})`)
}

func ipv4Pattern(dev string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(dev) + `.*\blink.*\b((?:[0-9]{1,3}\.){3}[0-9]{1,3})`)
}

func matchFirst(re *regexp.Regexp, out []byte) string {
	m := re.FindSubmatch(out)
	if m == nil {
		return ""
	}
	return string(m[1])
}
