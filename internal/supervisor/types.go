package supervisor

import (
	"fmt"
	"time"

	"plotbench/pkg/types"
)

// State is the supervisor lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateActive   State = "active"
)

// OutcomeKind tags a StartupOutcome.
type OutcomeKind int

const (
	OutcomeReady OutcomeKind = iota
	OutcomeErrored
	OutcomeTimedOut
	OutcomeProcessExited
	// OutcomeCanceled is produced when the caller's context ends mid-watch.
	OutcomeCanceled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReady:
		return "ready"
	case OutcomeErrored:
		return "errored"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeProcessExited:
		return "process_exited"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// StartupOutcome is the terminal result of one startup watch.
type StartupOutcome struct {
	Kind OutcomeKind
	// Detail is the offending line for OutcomeErrored.
	Detail string
	// ExitCode is set for OutcomeProcessExited.
	ExitCode int
}

func (o StartupOutcome) String() string {
	switch o.Kind {
	case OutcomeErrored:
		return fmt.Sprintf("errored: %s", o.Detail)
	case OutcomeProcessExited:
		return fmt.Sprintf("process exited with code %d", o.ExitCode)
	default:
		return o.Kind.String()
	}
}

// ServerHandle is a read-only view of the active server.
type ServerHandle struct {
	Model      types.ModelConfig
	Port       int
	BaseURL    string
	StartupLog []string
	State      State
	StartedAt  time.Time

	proc Process
}

// PID returns the process id of the server, or 0 when unknown.
func (h ServerHandle) PID() int {
	if h.proc == nil {
		return 0
	}
	return h.proc.PID()
}
