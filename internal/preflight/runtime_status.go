package preflight

import (
	"context"
	"fmt"
	"time"
)

// AdapterInspector is the subset of network.Inspector the probe needs.
type AdapterInspector interface {
	AdapterName(ctx context.Context) (string, error)
	HardwareAddress(ctx context.Context, dev string) (string, error)
	IPv4Address(ctx context.Context, dev string) (string, error)
}

// AdapterProbe reports the current wireless adapter snapshot.
type AdapterProbe struct {
	Detected bool
	Name     string
	Address  string
	IPv4     string
	Err      error
}

// ProbeAdapter looks up the wireless adapter and its addresses.
func ProbeAdapter(ctx context.Context, insp AdapterInspector) AdapterProbe {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	dev, err := insp.AdapterName(ctx)
	if err != nil {
		return AdapterProbe{Err: err}
	}
	if dev == "" {
		return AdapterProbe{}
	}
	probe := AdapterProbe{Detected: true, Name: dev}
	probe.Address, _ = insp.HardwareAddress(ctx, dev)
	probe.IPv4, _ = insp.IPv4Address(ctx, dev)
	return probe
}

// Detail renders a display-friendly summary for status UIs.
func (p AdapterProbe) Detail() string {
	switch {
	case p.Err != nil:
		return fmt.Sprintf("Adapter lookup failed: %v", p.Err)
	case !p.Detected:
		return "No wireless adapter detected"
	case p.IPv4 != "":
		return fmt.Sprintf("%s connected as %s", p.Name, p.IPv4)
	case p.Address != "":
		return fmt.Sprintf("%s up (%s), not connected", p.Name, p.Address)
	default:
		return fmt.Sprintf("%s present, radio off", p.Name)
	}
}
