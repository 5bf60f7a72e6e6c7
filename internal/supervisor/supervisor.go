package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"plotbench/internal/llamacpp"
	"plotbench/internal/registry"
	"plotbench/pkg/types"
)

// Supervisor is the single authority for which server, if any, is active.
// Start and Stop are serialized; readers take a snapshot under mu.
type Supervisor struct {
	cfg        Config
	launcher   Launcher
	clock      Clock
	classifier Classifier
	pub        EventPublisher
	log        zerolog.Logger
	httpc      llamacpp.Doer

	opMu sync.Mutex

	mu        sync.RWMutex
	state     State
	active    *activeServer
	lastErr   string
	starts    uint64
	failures  uint64
	startTime time.Time
}

type activeServer struct {
	handle ServerHandle
	proc   Process
	client *llamacpp.Client
}

// New constructs a Supervisor. Unset Config fields take package defaults.
func New(cfg Config, opts ...Option) *Supervisor {
	s := &Supervisor{
		cfg:        cfg.withDefaults(),
		launcher:   ExecLauncher{},
		clock:      realClock{},
		classifier: DefaultClassifier(),
		pub:        noopPublisher{},
		log:        zerolog.Nop(),
		state:      StateIdle,
	}
	for _, o := range opts {
		o(s)
	}
	if s.httpc == nil {
		s.httpc = DefaultHTTPClient()
	}
	s.startTime = s.clock.Now()
	return s
}

// Registry returns the model catalog the supervisor starts from.
func (s *Supervisor) Registry() *registry.Registry { return s.cfg.Registry }

// ModelsDir returns the directory model files are resolved against.
func (s *Supervisor) ModelsDir() string { return s.cfg.ModelsDir }

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Active returns a snapshot of the active server handle.
func (s *Supervisor) Active() (ServerHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return ServerHandle{}, false
	}
	h := s.active.handle
	h.StartupLog = append([]string(nil), h.StartupLog...)
	return h, true
}

// Start launches modelName on port and waits until it is healthy. Any
// existing server is stopped first. Port 0 picks a free port. On failure the
// spawned process is terminated and the supervisor is left idle.
func (s *Supervisor) Start(ctx context.Context, modelName string, port int) (ServerHandle, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	model, ok := s.cfg.Registry.Get(modelName)
	if !ok {
		return ServerHandle{}, ErrModelNotFound(modelName)
	}
	if err := s.stopLocked(); err != nil {
		s.log.Warn().Err(err).Str("event", "stop_previous").Msg("failed to stop previous server")
	}

	s.mu.Lock()
	s.state = StateStarting
	s.starts++
	s.mu.Unlock()

	log := s.log.With().Str("model", model.ID).Logger()
	if model.VRAMEstimateGB > s.cfg.VRAMBudgetGB {
		log.Warn().Int("vram_estimate_gb", model.VRAMEstimateGB).Int("vram_budget_gb", s.cfg.VRAMBudgetGB).
			Msg("model may exceed VRAM budget")
	}

	if port == 0 {
		p, err := s.pickPort()
		if err != nil {
			return ServerHandle{}, s.fail(model.ID, &LaunchError{Reason: "no free port", Err: err}, "launch_error")
		}
		port = p
	}

	spec := LaunchSpec{
		Binary:      s.cfg.LlamaBin,
		ModelPath:   registry.ModelPath(s.cfg.ModelsDir, model),
		Port:        port,
		ContextSize: model.ContextSize,
		GPULayers:   s.cfg.GPULayers,
		BindHost:    s.cfg.BindHost,
		ExtraArgs:   s.cfg.ExtraArgs,
	}
	started := s.clock.Now()
	proc, err := s.launcher.Launch(ctx, spec)
	if err != nil {
		if !IsLaunchError(err) {
			err = &LaunchError{Reason: "spawn failed", Path: spec.Binary, Err: err}
		}
		return ServerHandle{}, s.fail(model.ID, err, "launch_error")
	}
	log = log.With().Int("pid", proc.PID()).Int("port", port).Logger()
	log.Info().Str("event", EventSpawnStart).Str("model_path", spec.ModelPath).Strs("args", spec.Args()).Msg("server spawned")
	s.pub.Publish(Event{Name: EventSpawnStart, ModelID: model.ID, Fields: map[string]any{"pid": proc.PID(), "port": port}})

	mon := StartupMonitor{Classifier: s.classifier, Window: s.cfg.StartupWindow, PollInterval: s.cfg.PollInterval, Clock: s.clock}
	outcome, startupLog := mon.Watch(ctx, proc)
	// From here on output is consumed by drain until the stream closes.
	drain := startDrain(log, proc.Lines(), healthTailBytes)
	switch {
	case outcome.Kind == OutcomeReady:
		log.Info().Str("event", EventStartupReady).Int("lines", len(startupLog)).Msg("startup output signaled readiness")
		s.pub.Publish(Event{Name: EventStartupReady, ModelID: model.ID})
	case outcome.Kind == OutcomeTimedOut && s.cfg.ProceedOnTimeout:
		log.Warn().Str("event", "startup_timeout").Dur("window", s.cfg.StartupWindow).Msg("no startup signal; continuing to health check")
	default:
		s.terminate(model.ID, proc, drain)
		serr := &StartupError{Model: model.ID, Outcome: outcome, Log: startupLog}
		return ServerHandle{}, s.fail(model.ID, serr, "startup_error")
	}

	baseURL := llamacpp.BaseURL(s.cfg.LlamaHost, port)
	poller := HealthPoller{Interval: s.cfg.HealthInterval, ProbeTimeout: s.cfg.ProbeTimeout, Clock: s.clock, HTTP: s.httpc}
	if !poller.Poll(ctx, baseURL, s.cfg.HealthTimeout, proc) {
		s.terminate(model.ID, proc, drain)
		startupLog = append(startupLog, drain.Tail()...)
		s.pub.Publish(Event{Name: EventHealthTimeout, ModelID: model.ID, Fields: map[string]any{"url": baseURL}})
		herr := &HealthCheckFailedError{Model: model.ID, BaseURL: baseURL, Timeout: s.cfg.HealthTimeout, Log: startupLog}
		return ServerHandle{}, s.fail(model.ID, herr, "health_failed")
	}
	log.Info().Str("event", EventHealthOK).Str("url", baseURL).Msg("server healthy")
	s.pub.Publish(Event{Name: EventHealthOK, ModelID: model.ID, Fields: map[string]any{"url": baseURL}})

	h := ServerHandle{
		Model:      model,
		Port:       port,
		BaseURL:    baseURL,
		StartupLog: startupLog,
		State:      StateActive,
		StartedAt:  s.clock.Now(),
		proc:       proc,
	}
	s.mu.Lock()
	s.active = &activeServer{handle: h, proc: proc, client: llamacpp.New(baseURL, s.httpc)}
	s.state = StateActive
	s.lastErr = ""
	s.mu.Unlock()
	startsTotal.WithLabelValues("ok").Inc()
	startupDuration.Observe(s.clock.Now().Sub(started).Seconds())
	activeServerGauge.Set(1)
	return h, nil
}

// terminate stops a process whose start failed and waits, bounded, for its
// output stream to close.
func (s *Supervisor) terminate(modelID string, proc Process, d *outputDrain) {
	if err := proc.Terminate(); err != nil {
		s.log.Error().Err(err).Str("model", modelID).Int("pid", proc.PID()).Msg("terminate after failed start")
	}
	if !d.Wait(drainWait) {
		s.log.Warn().Str("model", modelID).Int("pid", proc.PID()).Msg("server output still open after terminate")
	}
}

// fail resets to idle and records err. The process, if any, must already be
// terminated.
func (s *Supervisor) fail(modelID string, err error, outcome string) error {
	s.mu.Lock()
	s.state = StateIdle
	s.active = nil
	s.lastErr = err.Error()
	s.failures++
	s.mu.Unlock()
	startsTotal.WithLabelValues(outcome).Inc()
	activeServerGauge.Set(0)
	s.log.Error().Err(err).Str("event", EventStartupError).Str("model", modelID).Msg("server start failed")
	s.pub.Publish(Event{Name: EventStartupError, ModelID: modelID, Fields: map[string]any{"error": err.Error(), "outcome": outcome}})
	return err
}

// Stop terminates the active server. It is a no-op when nothing is active.
func (s *Supervisor) Stop() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.stopLocked()
}

func (s *Supervisor) stopLocked() error {
	s.mu.Lock()
	a := s.active
	s.active = nil
	s.state = StateIdle
	s.mu.Unlock()
	if a == nil {
		return nil
	}
	activeServerGauge.Set(0)
	err := a.proc.Terminate()
	s.log.Info().Str("event", EventServerStopped).Str("model", a.handle.Model.ID).Int("pid", a.proc.PID()).Msg("server stopped")
	s.pub.Publish(Event{Name: EventServerStopped, ModelID: a.handle.Model.ID})
	if err != nil {
		return fmt.Errorf("terminate %s: %w", a.handle.Model.ID, err)
	}
	return nil
}

// markLost clears a if it is still the active server.
func (s *Supervisor) markLost(a *activeServer, code int) {
	s.mu.Lock()
	if s.active != a {
		s.mu.Unlock()
		return
	}
	s.active = nil
	s.state = StateIdle
	s.lastErr = fmt.Sprintf("server %s exited with code %d", a.handle.Model.ID, code)
	s.mu.Unlock()
	activeServerGauge.Set(0)
	s.log.Warn().Str("event", EventServerLost).Str("model", a.handle.Model.ID).Int("exit_code", code).Msg("active server exited")
	s.pub.Publish(Event{Name: EventServerLost, ModelID: a.handle.Model.ID, Fields: map[string]any{"exit_code": code}})
}

func (s *Supervisor) snapshot() *activeServer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Supervisor) pickPort() (int, error) {
	if s.cfg.PortStart > 0 && s.cfg.PortEnd >= s.cfg.PortStart {
		return pickPortInRange(s.cfg.LlamaHost, s.cfg.PortStart, s.cfg.PortEnd)
	}
	return pickFreePort(s.cfg.LlamaHost)
}

// ModelPath returns where the file for model is expected.
func (s *Supervisor) ModelPath(m types.ModelConfig) string {
	return registry.ModelPath(s.cfg.ModelsDir, m)
}
