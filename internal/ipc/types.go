package ipc

import "remoteaccessd/internal/orchestrator"

// StopRequest asks the daemon to shut down after the current action.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// Outcome mirrors the orchestrator's record of a finished request.
type Outcome = orchestrator.Outcome

// DependencyStatus describes availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// StatusResponse represents daemon state, the last outcome, and dependency health.
type StatusResponse struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	State        string             `json:"state"`
	Mode         string             `json:"mode"`
	InputDevice  string             `json:"input_device"`
	InputName    string             `json:"input_name"`
	WatchDir     string             `json:"watch_dir"`
	MediaPresent bool               `json:"media_present"`
	LastOutcome  *Outcome           `json:"last_outcome"`
	LockPath     string             `json:"lock_path"`
	LogPath      string             `json:"log_path"`
	StartedAt    string             `json:"started_at"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// TriggerRequest names the action to run: "toggle" or "provision".
type TriggerRequest struct {
	Action string `json:"action"`
}

// TriggerResponse reports whether the daemon accepted the request.
type TriggerResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
