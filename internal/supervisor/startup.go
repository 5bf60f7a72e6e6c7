package supervisor

import (
	"context"
	"strings"
	"time"
)

// Signal is the classification of one output line.
type Signal int

const (
	SignalNeutral Signal = iota
	SignalReady
	SignalError
)

// Classifier maps a server output line to a Signal.
type Classifier interface {
	Classify(line string) Signal
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(line string) Signal

func (f ClassifierFunc) Classify(line string) Signal { return f(line) }

var (
	defaultReadyPhrases = []string{"server listening", "http server listening", "server started", "model loaded", "ready"}
	defaultErrorPhrases = []string{"error", "failed", "cuda error", "out of memory", "unable to load", "exception"}
)

// KeywordClassifier matches lines case-insensitively against phrase lists.
// Ready phrases are checked first, so a line matching both is Ready.
type KeywordClassifier struct {
	Ready []string
	Error []string
}

// DefaultClassifier returns the llama-server keyword classifier.
func DefaultClassifier() KeywordClassifier {
	return KeywordClassifier{
		Ready: append([]string(nil), defaultReadyPhrases...),
		Error: append([]string(nil), defaultErrorPhrases...),
	}
}

func (c KeywordClassifier) Classify(line string) Signal {
	l := strings.ToLower(line)
	for _, p := range c.Ready {
		if strings.Contains(l, p) {
			return SignalReady
		}
	}
	for _, p := range c.Error {
		if strings.Contains(l, p) {
			return SignalError
		}
	}
	return SignalNeutral
}

// StartupMonitor watches a freshly spawned process for a bounded window.
type StartupMonitor struct {
	Classifier   Classifier
	Window       time.Duration
	PollInterval time.Duration
	Clock        Clock
}

// Watch classifies output until a readiness or error line, process exit,
// window expiry or ctx cancellation. Every line read is returned as the
// startup log. Exit status is checked before any further line is
// classified.
func (m *StartupMonitor) Watch(ctx context.Context, proc Process) (StartupOutcome, []string) {
	clock := m.Clock
	if clock == nil {
		clock = realClock{}
	}
	cls := m.Classifier
	if cls == nil {
		cls = DefaultClassifier()
	}
	poll := m.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	deadline := clock.Now().Add(m.Window)
	lines := proc.Lines()
	var captured []string

	// handle records one line and reports a terminal outcome, if any.
	handle := func(line string) (StartupOutcome, bool) {
		captured = append(captured, line)
		switch cls.Classify(line) {
		case SignalReady:
			return StartupOutcome{Kind: OutcomeReady}, true
		case SignalError:
			return StartupOutcome{Kind: OutcomeErrored, Detail: line}, true
		}
		return StartupOutcome{}, false
	}

	for {
		if code, exited := proc.ExitStatus(); exited {
			captured = append(captured, drainLines(lines, 0)...)
			return StartupOutcome{Kind: OutcomeProcessExited, ExitCode: code}, captured
		}
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if out, done := handle(line); done {
				return out, captured
			}
			continue
		default:
		}
		if err := ctx.Err(); err != nil {
			return StartupOutcome{Kind: OutcomeCanceled, Detail: err.Error()}, captured
		}
		if !clock.Now().Before(deadline) {
			return StartupOutcome{Kind: OutcomeTimedOut}, captured
		}
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if out, done := handle(line); done {
				return out, captured
			}
		case <-proc.Done():
		case <-clock.After(poll):
		case <-ctx.Done():
			return StartupOutcome{Kind: OutcomeCanceled, Detail: ctx.Err().Error()}, captured
		}
	}
}

// drainLines reads already-buffered lines without blocking. When maxBytes is
// positive it stops once that many bytes have been collected.
func drainLines(lines <-chan string, maxBytes int) []string {
	if lines == nil {
		return nil
	}
	var out []string
	n := 0
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return out
			}
			out = append(out, line)
			n += len(line) + 1
			if maxBytes > 0 && n >= maxBytes {
				return out
			}
		default:
			return out
		}
	}
}
