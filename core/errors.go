package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies execution failures.
type ErrorKind string

const (
	// ErrorBuild is a transpile or compile failure.
	ErrorBuild ErrorKind = "build"
	// ErrorRuntime is an uncaught error raised by user code.
	ErrorRuntime ErrorKind = "runtime"
	// ErrorResourceExceeded is a wall clock or output cap violation.
	ErrorResourceExceeded ErrorKind = "resource_exceeded"
	// ErrorServiceUnavailable means the remote service cannot be used.
	ErrorServiceUnavailable ErrorKind = "service_unavailable"
	// ErrorMalformedResponse means a remote reply failed structural parsing.
	ErrorMalformedResponse ErrorKind = "malformed_response"
	// ErrorCanceled means the run was superseded or aborted.
	ErrorCanceled ErrorKind = "canceled"
)

var (
	// ErrBuild matches any ExecError of kind build.
	ErrBuild = errors.New("build error")
	// ErrRuntime matches any ExecError of kind runtime.
	ErrRuntime = errors.New("runtime error")
	// ErrResourceExceeded matches any ExecError of kind resource_exceeded.
	ErrResourceExceeded = errors.New("resource exceeded")
	// ErrServiceUnavailable matches any ExecError of kind service_unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrMalformedResponse matches any ExecError of kind malformed_response.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrCanceled matches any ExecError of kind canceled.
	ErrCanceled = errors.New("run canceled")
)

var kindSentinels = map[ErrorKind]error{
	ErrorBuild:              ErrBuild,
	ErrorRuntime:            ErrRuntime,
	ErrorResourceExceeded:   ErrResourceExceeded,
	ErrorServiceUnavailable: ErrServiceUnavailable,
	ErrorMalformedResponse:  ErrMalformedResponse,
	ErrorCanceled:           ErrCanceled,
}

// ExecError wraps a backend failure with a stable classification.
type ExecError struct {
	Kind    ErrorKind
	Op      string
	Message string
	// Hint is an optional remediation line shown after the error.
	Hint string
	Err  error
}

// NewExecError constructs a classified execution error.
func NewExecError(kind ErrorKind, op string, err error) *ExecError {
	return &ExecError{Kind: kind, Op: op, Err: err}
}

// TimeLimitExceeded returns the resource error reported when a wall clock cap expires.
func TimeLimitExceeded(op string, limit time.Duration) *ExecError {
	return &ExecError{
		Kind:    ErrorResourceExceeded,
		Op:      op,
		Message: fmt.Sprintf("Time Limit Exceeded (%s)", limitLabel(limit)),
	}
}

func limitLabel(limit time.Duration) string {
	if limit >= time.Second && limit%time.Second == 0 {
		return fmt.Sprintf("%ds", int(limit/time.Second))
	}
	return limit.String()
}

func (e *ExecError) Error() string {
	if e == nil {
		return "execution error"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return "execution error"
}

func (e *ExecError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *ExecError) Is(target error) bool {
	if e == nil {
		return false
	}
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// KindOf returns the classification of err, or ErrorRuntime for
// unclassified errors.
func KindOf(err error) ErrorKind {
	var execErr *ExecError
	if errors.As(err, &execErr) && execErr.Kind != "" {
		return execErr.Kind
	}
	return ErrorRuntime
}

// AsExecError returns err as an *ExecError when one is in its chain.
func AsExecError(err error) (*ExecError, bool) {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr, true
	}
	return nil, false
}
