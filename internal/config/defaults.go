package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	DefaultAddr           = ":8090"
	DefaultModelsDir      = "~/aigen/textgen/text_checkpoints"
	DefaultPromptsFile    = "system_prompts.json"
	DefaultOutputDir      = "comparison_results"
	DefaultLlamaBin       = "llama-server"
	DefaultLlamaHost      = "127.0.0.1"
	DefaultBindHost       = "0.0.0.0"
	DefaultPort           = 8188
	DefaultGPULayers      = 28
	DefaultVRAMBudgetGB   = 32
	DefaultStartupWindow  = 30
	DefaultPollIntervalMS = 100
	DefaultHealthTimeout  = 60
	DefaultHealthInterval = 3
	DefaultProbeTimeout   = 2
	DefaultRequestTimeout = 240
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// Default returns a fully populated configuration.
func Default() Config { return Config{}.WithDefaults() }

// WithDefaults fills every unspecified field.
func (c Config) WithDefaults() Config {
	setStr(&c.Addr, DefaultAddr)
	setStr(&c.ModelsDir, DefaultModelsDir)
	setStr(&c.PromptsFile, DefaultPromptsFile)
	setStr(&c.OutputDir, DefaultOutputDir)
	setStr(&c.LlamaBin, DefaultLlamaBin)
	setStr(&c.LlamaHost, DefaultLlamaHost)
	setStr(&c.BindHost, DefaultBindHost)
	setStr(&c.LogLevel, DefaultLogLevel)
	setStr(&c.LogFormat, DefaultLogFormat)
	setInt(&c.Port, DefaultPort)
	setInt(&c.GPULayers, DefaultGPULayers)
	setInt(&c.VRAMBudgetGB, DefaultVRAMBudgetGB)
	setInt(&c.StartupWindowSeconds, DefaultStartupWindow)
	setInt(&c.PollIntervalMS, DefaultPollIntervalMS)
	setInt(&c.HealthTimeoutSeconds, DefaultHealthTimeout)
	setInt(&c.HealthIntervalSeconds, DefaultHealthInterval)
	setInt(&c.ProbeTimeoutSeconds, DefaultProbeTimeout)
	setInt(&c.RequestTimeoutSeconds, DefaultRequestTimeout)
	return c
}

// ApplyEnv overrides fields from PLOTBENCH_* environment variables.
func (c Config) ApplyEnv() Config {
	envStr(&c.Addr, "PLOTBENCH_ADDR")
	envStr(&c.ModelsDir, "PLOTBENCH_MODELS_DIR")
	envStr(&c.CatalogFile, "PLOTBENCH_CATALOG_FILE")
	envStr(&c.PromptsFile, "PLOTBENCH_PROMPTS_FILE")
	envStr(&c.OutputDir, "PLOTBENCH_OUTPUT_DIR")
	envStr(&c.LlamaBin, "PLOTBENCH_LLAMA_BIN")
	envStr(&c.LlamaHost, "PLOTBENCH_LLAMA_HOST")
	envStr(&c.LogLevel, "PLOTBENCH_LOG_LEVEL")
	envStr(&c.LogFormat, "PLOTBENCH_LOG_FORMAT")
	envInt(&c.Port, "PLOTBENCH_PORT")
	envInt(&c.GPULayers, "PLOTBENCH_GPU_LAYERS")
	envInt(&c.VRAMBudgetGB, "PLOTBENCH_VRAM_BUDGET_GB")
	if v := os.Getenv("PLOTBENCH_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitCSV(v)
	}
	return c
}

func setStr(p *string, def string) {
	if strings.TrimSpace(*p) == "" {
		*p = def
	}
}

func setInt(p *int, def int) {
	if *p <= 0 {
		*p = def
	}
}

func envStr(p *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*p = v
	}
}

func envInt(p *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*p = n
		}
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
