package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStuck reports that a flow terminated abnormally and left the guard
// Busy. No further operation can run in this process.
var ErrStuck = errors.New("orchestrator stuck in busy state")

var (
	ErrEnvironment  = errors.New("environment unavailable")
	ErrExternalTool = errors.New("external tool error")
	ErrFilesystem   = errors.New("filesystem error")
	ErrHandshake    = errors.New("provisioning handshake failed")
)

// Wrap builds an error message that includes flow context while tagging it
// with marker for later classification. marker should be one of the
// exported sentinels above.
func Wrap(marker error, flow, operation, message string, err error) error {
	detail := buildDetail(flow, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint maps a flow error to the next thing an operator should check.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrStuck):
		return "restart the daemon; the failed action may have been left half done"
	case errors.Is(err, ErrEnvironment):
		return "check that the wireless adapter is present (iwconfig)"
	case errors.Is(err, ErrFilesystem):
		return "check permissions and free space on the target filesystem"
	case errors.Is(err, ErrHandshake):
		return "press WPS on the access point within two minutes and retry"
	case errors.Is(err, ErrExternalTool):
		return "run remoteaccessd status to check host tools"
	default:
		return "check logs for details"
	}
}

func buildDetail(flow, operation, message string) string {
	parts := make([]string, 0, 3)
	if flow = strings.TrimSpace(flow); flow != "" {
		parts = append(parts, flow)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "action failure"
	}
	return strings.Join(parts, ": ")
}
