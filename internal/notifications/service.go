package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"remoteaccessd/internal/config"
)

const userAgent = "remoteaccessd/0.1.0"

// Event identifies a notification class.
type Event string

const (
	EventAccessToggled      Event = "access_toggled"
	EventProvisionSucceeded Event = "provision_succeeded"
	EventProvisionFailed    Event = "provision_failed"
	EventConfigImported     Event = "config_imported"
	EventRebooting          Event = "rebooting"
	EventError              Event = "error"
	EventTest               Event = "test"
)

// Payload carries event details keyed by field name.
type Payload map[string]any

// Service publishes daemon events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled:  enabledEvents(cfg.Notifications),
	}
}

func enabledEvents(n config.Notifications) map[Event]bool {
	return map[Event]bool{
		EventAccessToggled:      n.Toggle,
		EventProvisionSucceeded: n.Provisioning,
		EventProvisionFailed:    n.Provisioning,
		EventConfigImported:     n.Import,
		EventRebooting:          n.Reboot,
		EventError:              n.Errors,
		EventTest:               true,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

var titleCaser = cases.Title(language.English)

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventAccessToggled:
		state := "disabled"
		if payloadBool(payload, "enabled") {
			state = "enabled"
		}
		body := fmt.Sprintf("Remote access %s (%s mode)", state, payloadString(payload, "mode"))
		if payloadBool(payload, "reboot") {
			body += ", rebooting to apply"
		}
		return message{
			title: "Remote Access - " + titleCaser.String(state),
			body:  body,
			tags:  []string{"remoteaccess", "toggle", state},
		}, true
	case EventProvisionSucceeded:
		return message{
			title: "Remote Access - Provisioned",
			body:  fmt.Sprintf("WPS handshake with %s saved new credentials", fallback(payloadString(payload, "ssid"), payloadString(payload, "bssid"))),
			tags:  []string{"remoteaccess", "wps", "completed"},
		}, true
	case EventProvisionFailed:
		return message{
			title:    "Remote Access - Provisioning Failed",
			body:     "WPS provisioning failed: " + fallback(payloadString(payload, "reason"), "unknown"),
			tags:     []string{"remoteaccess", "wps", "failed"},
			priority: "high",
		}, true
	case EventConfigImported:
		return message{
			title: "Remote Access - Configuration Imported",
			body:  fmt.Sprintf("Imported %s", payloadString(payload, "source")),
			tags:  []string{"remoteaccess", "import", "completed"},
		}, true
	case EventRebooting:
		return message{
			title: "Remote Access - Rebooting",
			body:  "Rebooting after " + fallback(payloadString(payload, "reason"), "configuration change"),
			tags:  []string{"remoteaccess", "reboot"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := payloadString(payload, "context"); label != "" {
			builder.WriteString(" during ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		builder.WriteString(fallback(payloadString(payload, "error"), "unknown"))
		return message{
			title:    "Remote Access - Error",
			body:     builder.String(),
			tags:     []string{"remoteaccess", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Remote Access - Test",
			body:     "Notification system test",
			tags:     []string{"remoteaccess", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func payloadString(p Payload, key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case error:
		return strings.TrimSpace(v.Error())
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func payloadBool(p Payload, key string) bool {
	v, _ := p[key].(bool)
	return v
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
