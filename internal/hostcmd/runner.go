package hostcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"remoteaccessd/internal/logging"
)

// Runner executes host-level commands. Run reports success only;
// Output also captures standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec without a shell.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner returns a runner that logs every command at debug level.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{logger: logging.NewComponentLogger(logger, "hostcmd")}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	line := Format(name, args...)
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	r.logger.Debug("running host command", logging.String("command", line))
	if err := cmd.Run(); err != nil {
		return newCommandError(line, stderr.String(), err)
	}
	return nil
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	line := Format(name, args...)
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	r.logger.Debug("running host command", logging.String("command", line))
	out, err := cmd.Output()
	if err != nil {
		return out, newCommandError(line, stderr.String(), err)
	}
	return out, nil
}

// CommandError describes a host command that could not be started or
// exited non-zero.
type CommandError struct {
	Command  string
	Stderr   string
	ExitCode int
	Err      error
}

func newCommandError(command, stderr string, err error) *CommandError {
	ce := &CommandError{
		Command:  command,
		Stderr:   strings.TrimSpace(stderr),
		ExitCode: -1,
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		ce.ExitCode = exitErr.ExitCode()
	}
	return ce
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode returns the exit status carried by err, or -1 when err is not
// a command exit.
func ExitCode(err error) int {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Format renders a command line the way a shell user would type it.
func Format(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(name))
	for _, arg := range args {
		parts = append(parts, quote(arg))
	}
	return strings.Join(parts, " ")
}

func quote(word string) string {
	quoted, err := syntax.Quote(word, syntax.LangBash)
	if err != nil {
		return strconv.Quote(word)
	}
	return quoted
}
