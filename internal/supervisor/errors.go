package supervisor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LaunchError reports that the server binary or the model file is missing,
// or that the process could not be spawned.
type LaunchError struct {
	Reason string
	Path   string
	Err    error
}

func (e *LaunchError) Error() string {
	msg := "launch: " + e.Reason
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LaunchError) Unwrap() error { return e.Err }

// StartupError covers every non-ready startup outcome.
type StartupError struct {
	Model   string
	Outcome StartupOutcome
	Log     []string
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup of %s failed: %s", e.Model, e.Outcome)
}

// HealthCheckFailedError reports that the health endpoint never returned 200
// within the configured timeout.
type HealthCheckFailedError struct {
	Model   string
	BaseURL string
	Timeout time.Duration
	Log     []string
}

func (e *HealthCheckFailedError) Error() string {
	return fmt.Sprintf("health check failed for %s at %s after %s", e.Model, e.BaseURL, e.Timeout)
}

// RequestError is a failed request against a running server. It never tears
// the server down.
type RequestError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString("request failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RequestError) Unwrap() error { return e.Err }

type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound returns an error for an unknown model id.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether err indicates a missing model id.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// ErrNoActiveServer is returned by request operations when nothing is running.
var ErrNoActiveServer = errors.New("no active server")

// IsNoActiveServer reports whether err is ErrNoActiveServer.
func IsNoActiveServer(err error) bool { return errors.Is(err, ErrNoActiveServer) }

// IsLaunchError reports whether err wraps a *LaunchError.
func IsLaunchError(err error) bool {
	var e *LaunchError
	return errors.As(err, &e)
}

// IsStartupError reports whether err wraps a *StartupError.
func IsStartupError(err error) bool {
	var e *StartupError
	return errors.As(err, &e)
}

// IsHealthCheckFailed reports whether err wraps a *HealthCheckFailedError.
func IsHealthCheckFailed(err error) bool {
	var e *HealthCheckFailedError
	return errors.As(err, &e)
}

// IsRequestError reports whether err wraps a *RequestError.
func IsRequestError(err error) bool {
	var e *RequestError
	return errors.As(err, &e)
}
