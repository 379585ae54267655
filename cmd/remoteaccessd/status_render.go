package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"remoteaccessd/internal/daemonctl"
	"remoteaccessd/internal/ipc"
	"remoteaccessd/internal/orchestrator"
	"remoteaccessd/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var labelCaser = cases.Title(language.Und)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func statusKindFromSeverity(severity string) statusKind {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "ok":
		return statusOK
	case "warn", "warning":
		return statusWarn
	case "error":
		return statusError
	default:
		return statusInfo
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// humanize turns identifiers such as "pending_reboot" into "Pending Reboot".
func humanize(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
	if value == "" {
		return ""
	}
	return labelCaser.String(value)
}

func daemonLines(resp ipc.StatusResponse, now time.Time, colorize bool) []string {
	lines := make([]string, 0, 8)
	if resp.Running {
		msg := fmt.Sprintf("Running (pid %d)", resp.PID)
		if started, err := time.Parse(time.RFC3339, resp.StartedAt); err == nil {
			msg = fmt.Sprintf("Running (pid %d, up %s)", resp.PID, now.Sub(started).Truncate(time.Second))
		}
		lines = append(lines, renderStatusLine("Daemon", statusOK, msg, colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusError, "Not running", colorize))
	}

	if resp.State != "" {
		lines = append(lines, renderStatusLine("State", stateKind(resp.State), humanize(resp.State), colorize))
	}
	lines = append(lines, renderStatusLine("Toggle mode", statusInfo, humanize(resp.Mode), colorize))

	if resp.InputDevice != "" {
		device := resp.InputDevice
		if resp.InputName != "" {
			device = fmt.Sprintf("%s (%s)", resp.InputDevice, resp.InputName)
		}
		lines = append(lines, renderStatusLine("Input device", statusInfo, device, colorize))
	}
	if resp.WatchDir != "" {
		lines = append(lines, renderStatusLine("Watch directory", statusInfo,
			fmt.Sprintf("%s (media present: %s)", resp.WatchDir, yesNo(resp.MediaPresent)), colorize))
	}
	if resp.LastOutcome != nil {
		lines = append(lines, renderStatusLine("Last action", outcomeKind(resp.LastOutcome.Result), describeOutcome(*resp.LastOutcome, now), colorize))
	}
	if resp.LogPath != "" {
		lines = append(lines, renderStatusLine("Log", statusInfo, resp.LogPath, colorize))
	}
	return lines
}

func stateKind(state string) statusKind {
	switch state {
	case orchestrator.StateIdle.String():
		return statusOK
	case orchestrator.StatePendingReboot.String():
		return statusWarn
	default:
		return statusInfo
	}
}

func outcomeKind(result orchestrator.Result) statusKind {
	switch result {
	case orchestrator.ResultCompleted, orchestrator.ResultRebooting, orchestrator.ResultNoop:
		return statusOK
	case orchestrator.ResultFailed, orchestrator.ResultStuck:
		return statusError
	case orchestrator.ResultAborted, orchestrator.ResultDropped:
		return statusWarn
	default:
		return statusInfo
	}
}

func describeOutcome(out ipc.Outcome, now time.Time) string {
	parts := []string{humanize(out.Kind), string(out.Result)}
	if out.Origin != "" {
		parts = append(parts, "via "+out.Origin)
	}
	if !out.Started.IsZero() {
		parts = append(parts, now.Sub(out.Started).Truncate(time.Second).String()+" ago")
	}
	msg := strings.Join(parts, ", ")
	if detail := strings.TrimSpace(out.Detail); detail != "" {
		msg += " (" + detail + ")"
	}
	return msg
}

func adapterLine(probe preflight.AdapterProbe, colorize bool) string {
	kind := statusOK
	switch {
	case probe.Err != nil:
		kind = statusError
	case !probe.Detected:
		kind = statusWarn
	case probe.IPv4 == "":
		kind = statusInfo
	}
	return renderStatusLine("Wireless adapter", kind, probe.Detail(), colorize)
}

func preflightRows(results []preflight.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		outcome := "pass"
		if !r.Passed {
			outcome = "FAIL"
		}
		rows = append(rows, []string{r.Name, outcome, r.Detail})
	}
	return rows
}

func dependencyLines(deps []ipc.DependencyStatus, summary daemonctl.DependencySummary, colorize bool) []string {
	lines := make([]string, 0, len(deps)+2)
	lines = append(lines, renderStatusLine("Summary", statusKindFromSeverity(summary.Severity), summary.Detail, colorize))
	missing := make([]string, 0)
	for _, dep := range deps {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		missing = append(missing, dep.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing dependencies", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}
