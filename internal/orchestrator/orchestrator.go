package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"remoteaccessd/internal/action"
	"remoteaccessd/internal/audio"
	"remoteaccessd/internal/config"
	"remoteaccessd/internal/logging"
	"remoteaccessd/internal/notifications"
)

// Result summarises how a request ended.
type Result string

const (
	ResultIgnored   Result = "ignored"
	ResultDropped   Result = "dropped"
	ResultAborted   Result = "aborted"
	ResultNoop      Result = "noop"
	ResultCompleted Result = "completed"
	ResultFailed    Result = "failed"
	ResultRebooting Result = "rebooting"
	ResultStuck     Result = "stuck"
)

// Outcome describes a handled request.
type Outcome struct {
	ID       string        `json:"id,omitempty"`
	Kind     string        `json:"kind"`
	Origin   string        `json:"origin,omitempty"`
	Result   Result        `json:"result"`
	Detail   string        `json:"detail,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Options fixes per-process flow parameters.
type Options struct {
	ToggleMode      string
	WPADir          string
	HandshakeWait   time.Duration
	FreshnessWindow time.Duration
}

// OptionsFromConfig derives Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ToggleMode:      cfg.Network.ToggleMode,
		WPADir:          cfg.Provisioning.WPADir,
		HandshakeWait:   time.Duration(cfg.Provisioning.HandshakeWaitSeconds) * time.Second,
		FreshnessWindow: time.Duration(cfg.Provisioning.FreshnessWindowSeconds) * time.Second,
	}
}

// Orchestrator runs one action at a time.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
	guard  Guard
	now    func() time.Time

	mu   sync.Mutex
	last *Outcome
}

// New returns an orchestrator over deps.
func New(deps Deps, opts Options, logger *slog.Logger) *Orchestrator {
	if deps.Player == nil {
		deps.Player = audio.Silent{}
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(&config.Config{})
	}
	if opts.ToggleMode == "" {
		opts.ToggleMode = config.ToggleModeOverlay
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "orchestrator"),
		now:    time.Now,
	}
}

// State returns the guard state.
func (o *Orchestrator) State() State {
	return o.guard.State()
}

// LastOutcome returns the most recent admitted outcome, if any.
func (o *Orchestrator) LastOutcome() (Outcome, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return Outcome{}, false
	}
	return *o.last, true
}

// flowResult is what a flow reports back to Handle.
type flowResult struct {
	result       Result
	detail       string
	rebootReason string
}

func completed(detail string) flowResult { return flowResult{result: ResultCompleted, detail: detail} }

func noop(detail string) flowResult { return flowResult{result: ResultNoop, detail: detail} }

func aborted(detail string) flowResult { return flowResult{result: ResultAborted, detail: detail} }

func failed(detail string) flowResult { return flowResult{result: ResultFailed, detail: detail} }

// Handle executes req if the guard admits it. The only error returned is
// ErrStuck, after which the process must exit; every other failure is
// logged and reflected in the outcome. Cancelling ctx does not interrupt an
// admitted flow.
func (o *Orchestrator) Handle(ctx context.Context, req action.Request) (Outcome, error) {
	out := Outcome{Kind: req.Kind.String(), Origin: string(req.Origin), Started: o.now()}
	if req.IsIgnore() {
		out.Result = ResultIgnored
		return out, nil
	}
	if !o.guard.TryAcquire() {
		o.logger.Info("request dropped",
			logging.String(logging.FieldEventType, "request_dropped"),
			logging.String(logging.FieldAction, req.Kind.String()),
			logging.String("state", o.guard.State().String()),
			logging.String("source", string(req.Origin)),
		)
		out.Result = ResultDropped
		return out, nil
	}

	out.ID = uuid.NewString()
	flowCtx := action.WithID(context.WithoutCancel(ctx), out.ID)
	logger := logging.WithContext(flowCtx, o.logger).With(logging.String(logging.FieldAction, req.Kind.String()))
	logger.Info("action started",
		logging.String(logging.FieldEventType, "action_started"),
		logging.String("source", string(req.Origin)),
		logging.Duration("held_for", req.HeldFor),
	)

	res, err := o.run(flowCtx, logger, req)
	out.Duration = o.now().Sub(out.Started)
	if err != nil {
		out.Result = ResultStuck
		out.Detail = err.Error()
		o.record(out)
		logging.ErrorWithContext(logger, "action aborted abnormally", "action_stuck",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, Hint(err)),
		)
		o.notifyError(flowCtx, logger, req.Kind.String(), err)
		return out, err
	}

	out.Result, out.Detail = res.result, res.detail
	if res.rebootReason != "" {
		if rerr := o.reboot(flowCtx, logger, res.rebootReason); rerr != nil {
			out.Result = ResultFailed
			out.Detail = rerr.Error()
		} else {
			out.Result = ResultRebooting
		}
	} else {
		o.guard.Release()
	}
	o.record(out)
	logger.Info("action finished",
		logging.String(logging.FieldEventType, "action_finished"),
		logging.String("result", string(out.Result)),
		logging.String("detail", out.Detail),
		logging.Duration("duration", out.Duration),
	)
	return out, nil
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, req action.Request) (res flowResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("flow panic", logging.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %s: %v", ErrStuck, req.Kind, r)
		}
	}()
	switch req.Kind {
	case action.ToggleAccess:
		return o.toggle(ctx, logger), nil
	case action.StartProvisioning:
		return o.provision(ctx, logger), nil
	case action.ImportConfiguration:
		return o.importConfig(ctx, logger, req.SourcePath), nil
	default:
		return noop("unsupported request"), nil
	}
}

// reboot moves the guard to PendingReboot and asks the host to restart. A
// rejected reboot returns the guard to Idle.
func (o *Orchestrator) reboot(ctx context.Context, logger *slog.Logger, reason string) error {
	o.guard.MarkPendingReboot()
	logger.Info("rebooting",
		logging.String(logging.FieldEventType, "reboot_requested"),
		logging.String("reason", reason),
	)
	o.play(ctx, logger, audio.Rebooting)
	o.notify(ctx, logger, notifications.EventRebooting, notifications.Payload{"reason": reason})
	if err := o.deps.Rebooter.Reboot(ctx); err != nil {
		o.guard.CancelReboot()
		wrapped := Wrap(ErrExternalTool, "reboot", "", "", err)
		logging.ErrorWithContext(logger, "reboot failed", "reboot_failed",
			logging.Error(wrapped),
			logging.String(logging.FieldErrorHint, "reboot manually to apply the change"),
		)
		o.notifyError(ctx, logger, "reboot", wrapped)
		return wrapped
	}
	return nil
}

func (o *Orchestrator) record(out Outcome) {
	o.mu.Lock()
	o.last = &out
	o.mu.Unlock()
}

// play is best effort; a silent device must not stop a flow.
func (o *Orchestrator) play(ctx context.Context, logger *slog.Logger, sound audio.Sound) {
	if err := o.deps.Player.Play(ctx, sound); err != nil {
		logger.Debug("sound playback failed", logging.String("sound", string(sound)), logging.Error(err))
	}
}

func (o *Orchestrator) notify(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if err := o.deps.Notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "no push notification for this event"),
		)
	}
}

func (o *Orchestrator) notifyError(ctx context.Context, logger *slog.Logger, label string, err error) {
	o.notify(ctx, logger, notifications.EventError, notifications.Payload{"context": label, "error": err})
}

// warnStep logs a failed step that does not end the flow.
func warnStep(logger *slog.Logger, msg string, err error, impact string) {
	logging.WarnWithContext(logger, msg, "step_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, Hint(err)),
		logging.String(logging.FieldImpact, impact),
	)
}

// failStep logs a step failure that ends the flow.
func failStep(logger *slog.Logger, msg string, err error) {
	logging.ErrorWithContext(logger, msg, "action_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, Hint(err)),
	)
}

