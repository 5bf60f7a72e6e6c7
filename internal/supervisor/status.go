package supervisor

import "plotbench/pkg/types"

// Status reports lifecycle state, the active server and counters.
func (s *Supervisor) Status() types.StatusResponse {
	now := s.clock.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := types.StatusResponse{
		State:          string(s.state),
		LastError:      s.lastErr,
		StartsTotal:    s.starts,
		FailuresTotal:  s.failures,
		UptimeSeconds:  int64(now.Sub(s.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
	if a := s.active; a != nil {
		resp.Server = &types.ServerStatus{
			ModelID:         a.handle.Model.ID,
			Port:            a.handle.Port,
			PID:             a.proc.PID(),
			BaseURL:         a.handle.BaseURL,
			StartedUnix:     a.handle.StartedAt.Unix(),
			StartupLogLines: len(a.handle.StartupLog),
		}
	}
	return resp
}
