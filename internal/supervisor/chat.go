package supervisor

import (
	"context"
	"errors"

	"plotbench/internal/llamacpp"
	"plotbench/pkg/types"
)

// Chat sends req to the active server. The process exit status is checked
// and one health probe is made first; a dead process moves the supervisor to
// idle. Request failures never tear the server down.
func (s *Supervisor) Chat(ctx context.Context, req types.ChatRequest) (types.ChatResult, error) {
	a := s.snapshot()
	if a == nil {
		chatRequestsTotal.WithLabelValues("no_server").Inc()
		return types.ChatResult{}, ErrNoActiveServer
	}
	if code, exited := a.proc.ExitStatus(); exited {
		s.markLost(a, code)
		chatRequestsTotal.WithLabelValues("no_server").Inc()
		return types.ChatResult{}, ErrNoActiveServer
	}
	if err := s.probe(ctx, a); err != nil {
		chatRequestsTotal.WithLabelValues("unhealthy").Inc()
		return types.ChatResult{}, &RequestError{Err: err}
	}

	if req.Model == "" {
		req.Model = a.handle.Model.ID
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = s.cfg.DefaultMaxTokens
	}
	if req.Temperature == nil || *req.Temperature < 0 {
		t := s.cfg.DefaultTemperature
		req.Temperature = &t
	}
	rctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	res, err := a.client.ChatCompletion(rctx, req)
	if err != nil {
		chatRequestsTotal.WithLabelValues("error").Inc()
		rerr := &RequestError{Err: err}
		var se *llamacpp.StatusError
		if errors.As(err, &se) {
			rerr.StatusCode = se.StatusCode
			rerr.Body = se.Body
		}
		s.log.Warn().Err(err).Str("model", a.handle.Model.ID).Msg("chat request failed")
		return types.ChatResult{}, rerr
	}
	chatRequestsTotal.WithLabelValues("ok").Inc()
	return res, nil
}

// CheckLive verifies the active server on demand: exit status first, then
// one health probe. A dead process moves the supervisor to idle; a failed
// probe alone does not.
func (s *Supervisor) CheckLive(ctx context.Context) bool {
	a := s.snapshot()
	if a == nil {
		return false
	}
	if code, exited := a.proc.ExitStatus(); exited {
		s.markLost(a, code)
		return false
	}
	return s.probe(ctx, a) == nil
}

func (s *Supervisor) probe(ctx context.Context, a *activeServer) error {
	pctx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()
	return a.client.Health(pctx)
}
