package supervisor

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"plotbench/internal/config"
	"plotbench/internal/llamacpp"
	"plotbench/internal/registry"
)

// Defaults applied when the corresponding Config fields are unset.
const (
	defaultLlamaBin       = "llama-server"
	defaultLlamaHost      = "127.0.0.1"
	defaultBindHost       = "0.0.0.0"
	defaultGPULayers      = 28
	defaultVRAMBudgetGB   = 32
	defaultStartupWindow  = 30 * time.Second
	defaultPollInterval   = 100 * time.Millisecond
	defaultHealthTimeout  = 60 * time.Second
	defaultHealthInterval = 3 * time.Second
	defaultProbeTimeout   = 2 * time.Second
	defaultRequestTimeout = 240 * time.Second
	defaultMaxTokens      = 1000
	defaultTemperature    = 0.7
	healthTailBytes       = 1024
)

// Config holds the supervisor tunables.
type Config struct {
	Registry  *registry.Registry
	ModelsDir string

	LlamaBin string
	// LlamaHost is the address used for health probes and requests.
	LlamaHost string
	// BindHost is passed to the server as --host.
	BindHost  string
	PortStart int
	PortEnd   int
	GPULayers int
	ExtraArgs []string

	VRAMBudgetGB int

	StartupWindow  time.Duration
	PollInterval   time.Duration
	HealthTimeout  time.Duration
	HealthInterval time.Duration
	ProbeTimeout   time.Duration
	RequestTimeout time.Duration
	// ProceedOnTimeout continues to health polling when the startup window
	// expires without a readiness or error line.
	ProceedOnTimeout bool

	DefaultMaxTokens   int
	DefaultTemperature float64
}

// FromConfig maps the runtime configuration onto supervisor tunables.
func FromConfig(c config.Config, reg *registry.Registry) Config {
	return Config{
		Registry:         reg,
		ModelsDir:        c.ModelsDir,
		LlamaBin:         c.LlamaBin,
		LlamaHost:        c.LlamaHost,
		BindHost:         c.BindHost,
		PortStart:        c.PortStart,
		PortEnd:          c.PortEnd,
		GPULayers:        c.GPULayers,
		VRAMBudgetGB:     c.VRAMBudgetGB,
		StartupWindow:    time.Duration(c.StartupWindowSeconds) * time.Second,
		PollInterval:     time.Duration(c.PollIntervalMS) * time.Millisecond,
		HealthTimeout:    time.Duration(c.HealthTimeoutSeconds) * time.Second,
		HealthInterval:   time.Duration(c.HealthIntervalSeconds) * time.Second,
		ProbeTimeout:     time.Duration(c.ProbeTimeoutSeconds) * time.Second,
		RequestTimeout:   time.Duration(c.RequestTimeoutSeconds) * time.Second,
		ProceedOnTimeout: c.ProceedOnTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.Registry == nil {
		c.Registry = registry.Builtin()
	}
	if c.LlamaBin == "" {
		c.LlamaBin = defaultLlamaBin
	}
	if c.LlamaHost == "" {
		c.LlamaHost = defaultLlamaHost
	}
	if c.BindHost == "" {
		c.BindHost = defaultBindHost
	}
	if c.GPULayers <= 0 {
		c.GPULayers = defaultGPULayers
	}
	if c.VRAMBudgetGB <= 0 {
		c.VRAMBudgetGB = defaultVRAMBudgetGB
	}
	setDur(&c.StartupWindow, defaultStartupWindow)
	setDur(&c.PollInterval, defaultPollInterval)
	setDur(&c.HealthTimeout, defaultHealthTimeout)
	setDur(&c.HealthInterval, defaultHealthInterval)
	setDur(&c.ProbeTimeout, defaultProbeTimeout)
	setDur(&c.RequestTimeout, defaultRequestTimeout)
	if c.DefaultMaxTokens <= 0 {
		c.DefaultMaxTokens = defaultMaxTokens
	}
	if c.DefaultTemperature <= 0 {
		c.DefaultTemperature = defaultTemperature
	}
	return c
}

func setDur(p *time.Duration, def time.Duration) {
	if *p <= 0 {
		*p = def
	}
}

// Option customizes a Supervisor.
type Option func(*Supervisor)

// WithLauncher replaces the exec launcher.
func WithLauncher(l Launcher) Option { return func(s *Supervisor) { s.launcher = l } }

// WithClock replaces the wall clock used by the startup and health loops.
func WithClock(c Clock) Option { return func(s *Supervisor) { s.clock = c } }

// WithClassifier replaces the keyword classifier.
func WithClassifier(c Classifier) Option { return func(s *Supervisor) { s.classifier = c } }

// WithPublisher installs an EventPublisher. Nil restores the no-op publisher.
func WithPublisher(p EventPublisher) Option {
	return func(s *Supervisor) {
		if p == nil {
			p = noopPublisher{}
		}
		s.pub = p
	}
}

// WithLogger sets the structured logger.
func WithLogger(l zerolog.Logger) Option { return func(s *Supervisor) { s.log = l } }

// WithHTTPClient replaces the client used for probes and requests.
func WithHTTPClient(d llamacpp.Doer) Option { return func(s *Supervisor) { s.httpc = d } }

// DefaultHTTPClient returns the client used when none is configured.
func DefaultHTTPClient() *http.Client { return llamacpp.NewHTTPClient(defaultProbeTimeout) }
