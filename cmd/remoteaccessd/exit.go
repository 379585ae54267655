package main

import (
	"errors"

	"remoteaccessd/internal/daemonrun"
)

// Process exit codes. Scripts around the daemon depend on these values.
const (
	exitOK        = 0
	exitInputOpen = 1
	exitUsage     = 2
	exitInternal  = 3
	exitNotRoot   = 4
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func usageError(err error) error {
	return withExitCode(exitUsage, err)
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, daemonrun.ErrInputOpen) {
		return exitInputOpen
	}
	return exitInternal
}
