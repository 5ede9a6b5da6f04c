package utils

import (
	"context"
	"errors"
)

// Process exit codes returned by the CLI.
const (
	ExitCodeSuccess     = 0
	ExitCodeFailure     = 1
	ExitCodeUsage       = 2
	ExitCodeInterrupted = 130
)

// ExitCoder is implemented by errors that select a process exit code.
type ExitCoder interface {
	ExitCode() int
}

// ExitStatusError attaches an exit code to an optional cause. A nil cause
// yields an empty message so callers can exit without printing anything.
type ExitStatusError struct {
	Code  int
	Cause error
}

// Error returns the cause message.
func (statusError ExitStatusError) Error() string {
	if statusError.Cause == nil {
		return ""
	}
	return statusError.Cause.Error()
}

// Unwrap exposes the cause.
func (statusError ExitStatusError) Unwrap() error {
	return statusError.Cause
}

// ExitCode returns the selected exit code.
func (statusError ExitStatusError) ExitCode() int {
	return statusError.Code
}

// NewUsageError marks cause as a command-line usage problem.
func NewUsageError(cause error) ExitStatusError {
	return ExitStatusError{Code: ExitCodeUsage, Cause: cause}
}

// NewSilentFailure reports a failure whose details were already printed.
func NewSilentFailure() ExitStatusError {
	return ExitStatusError{Code: ExitCodeFailure}
}

// NewSilentInterruption reports a cancellation whose notice was already printed.
func NewSilentInterruption() ExitStatusError {
	return ExitStatusError{Code: ExitCodeInterrupted}
}

// ResolveExitCode maps an error returned by command execution onto a process exit code.
func ResolveExitCode(executionError error) int {
	if executionError == nil {
		return ExitCodeSuccess
	}
	if errors.Is(executionError, context.Canceled) {
		return ExitCodeInterrupted
	}
	var exitCoder ExitCoder
	if errors.As(executionError, &exitCoder) {
		return exitCoder.ExitCode()
	}
	return ExitCodeFailure
}
