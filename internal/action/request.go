package action

import (
	"context"
	"time"
)

// Kind identifies what an action request asks the orchestrator to do.
type Kind int

const (
	Ignore Kind = iota
	ToggleAccess
	StartProvisioning
	ImportConfiguration
)

func (k Kind) String() string {
	switch k {
	case ToggleAccess:
		return "toggle_access"
	case StartProvisioning:
		return "start_provisioning"
	case ImportConfiguration:
		return "import_configuration"
	default:
		return "ignore"
	}
}

// ParseKind maps a command-line or RPC keyword onto a Kind.
func ParseKind(value string) (Kind, bool) {
	switch value {
	case "toggle", "toggle_access":
		return ToggleAccess, true
	case "provision", "wps", "start_provisioning":
		return StartProvisioning, true
	default:
		return Ignore, false
	}
}

// Origin records which event source produced a request.
type Origin string

const (
	OriginButton  Origin = "button"
	OriginMedia   Origin = "media"
	OriginControl Origin = "control"
)

// Request is a transient value describing what the user or the environment
// asked for. SourcePath is only set for ImportConfiguration.
type Request struct {
	Kind       Kind
	SourcePath string
	Origin     Origin
	HeldFor    time.Duration
}

// IsIgnore reports whether the request carries no effect.
func (r Request) IsIgnore() bool {
	return r.Kind == Ignore
}

type contextKey string

const idKey contextKey = "action_id"

// WithID annotates ctx with the identifier of the running action.
func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, idKey, id)
}

// IDFromContext extracts the action identifier if present.
func IDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(idKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
