package deps

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"

	"remoteaccessd/internal/config"
)

// Requirement defines an external dependency the daemon relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// HostRequirements lists the host utilities the configured flows invoke.
func HostRequirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: "iwconfig", Command: "iwconfig", Description: "Wireless adapter discovery and radio control"},
		{Name: "ip", Command: "ip", Description: "Link and route inspection"},
		{Name: "wpa_cli", Command: "wpa_cli", Description: "WPS push-button provisioning"},
		{Name: "wpa_supplicant", Command: "wpa_supplicant", Description: "Supplicant restart after enabling update_config"},
		{Name: "killall", Command: "killall", Description: "Supplicant restart"},
		{Name: "systemctl", Command: "systemctl", Description: "Remote-access service control"},
		{Name: "reboot", Command: "reboot", Description: "Apply boot configuration and imported credentials"},
	}
	if cfg != nil {
		reqs = append(reqs, Requirement{
			Name:        "Audio player",
			Command:     cfg.Audio.Player,
			Description: "Feedback sounds",
			Optional:    !cfg.Audio.Enabled,
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Commands are resolved against PATH the way a shell would.
func CheckBinaries(requirements []Requirement) []Status {
	env := expand.ListEnviron(os.Environ()...)
	cwd, _ := os.Getwd()

	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := interp.LookPathDir(cwd, env, cmd)
		if err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// Missing returns the required (non-optional) dependencies that are
// unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
