package supervisor

import (
	"context"
	"time"

	"plotbench/internal/llamacpp"
)

// HealthPoller repeatedly probes GET /health until it returns 200.
type HealthPoller struct {
	Interval     time.Duration
	ProbeTimeout time.Duration
	Clock        Clock
	HTTP         llamacpp.Doer
}

// Poll probes baseURL until success, timeout, process death or ctx
// cancellation. Failed probes only mean "not yet". It never returns an error.
// proc may be nil.
func (p *HealthPoller) Poll(ctx context.Context, baseURL string, timeout time.Duration, proc Process) bool {
	clock := p.Clock
	if clock == nil {
		clock = realClock{}
	}
	interval := p.Interval
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	client := llamacpp.New(baseURL, p.HTTP)
	deadline := clock.Now().Add(timeout)
	var done <-chan struct{}
	if proc != nil {
		done = proc.Done()
	}
	for clock.Now().Before(deadline) {
		if proc != nil {
			if _, exited := proc.ExitStatus(); exited {
				return false
			}
		}
		if p.probe(ctx, client) {
			return true
		}
		select {
		case <-clock.After(interval):
		case <-done:
			return false
		case <-ctx.Done():
			return false
		}
	}
	return false
}

func (p *HealthPoller) probe(ctx context.Context, client *llamacpp.Client) bool {
	pt := p.ProbeTimeout
	if pt <= 0 {
		pt = defaultProbeTimeout
	}
	pctx, cancel := context.WithTimeout(ctx, pt)
	defer cancel()
	return client.Health(pctx) == nil
}
