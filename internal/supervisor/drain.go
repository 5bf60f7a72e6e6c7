package supervisor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// drainWait bounds how long a failed start waits for output to close.
const drainWait = 2 * time.Second

// outputDrain reads server output until the stream closes so the pipe never
// fills. Each line is logged at debug level and the first tailBytes are kept
// for diagnostics.
type outputDrain struct {
	mu       sync.Mutex
	tail     []string
	n        int
	maxBytes int
	done     chan struct{}
}

func startDrain(log zerolog.Logger, lines <-chan string, tailBytes int) *outputDrain {
	d := &outputDrain{maxBytes: tailBytes, done: make(chan struct{})}
	go func() {
		defer close(d.done)
		for line := range lines {
			log.Debug().Str("stream", "llama-server").Msg(line)
			d.mu.Lock()
			if d.n < d.maxBytes {
				d.tail = append(d.tail, line)
				d.n += len(line) + 1
			}
			d.mu.Unlock()
		}
	}()
	return d
}

// Tail returns the lines kept so far.
func (d *outputDrain) Tail() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.tail...)
}

// Wait blocks until the stream closes or timeout elapses and reports whether
// it closed.
func (d *outputDrain) Wait(timeout time.Duration) bool {
	select {
	case <-d.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
