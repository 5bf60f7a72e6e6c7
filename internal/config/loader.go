package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the supervisor, scheduler and API.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir   string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	CatalogFile string `json:"catalog_file" yaml:"catalog_file" toml:"catalog_file"`
	PromptsFile string `json:"prompts_file" yaml:"prompts_file" toml:"prompts_file"`
	OutputDir   string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`

	LlamaBin     string `json:"llama_bin" yaml:"llama_bin" toml:"llama_bin"`
	LlamaHost    string `json:"llama_host" yaml:"llama_host" toml:"llama_host"`
	BindHost     string `json:"bind_host" yaml:"bind_host" toml:"bind_host"`
	Port         int    `json:"port" yaml:"port" toml:"port"`
	PortStart    int    `json:"port_start" yaml:"port_start" toml:"port_start"`
	PortEnd      int    `json:"port_end" yaml:"port_end" toml:"port_end"`
	GPULayers    int    `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	VRAMBudgetGB int    `json:"vram_budget_gb" yaml:"vram_budget_gb" toml:"vram_budget_gb"`

	StartupWindowSeconds  int  `json:"startup_window_seconds" yaml:"startup_window_seconds" toml:"startup_window_seconds"`
	PollIntervalMS        int  `json:"poll_interval_ms" yaml:"poll_interval_ms" toml:"poll_interval_ms"`
	HealthTimeoutSeconds  int  `json:"health_timeout_seconds" yaml:"health_timeout_seconds" toml:"health_timeout_seconds"`
	HealthIntervalSeconds int  `json:"health_interval_seconds" yaml:"health_interval_seconds" toml:"health_interval_seconds"`
	ProbeTimeoutSeconds   int  `json:"probe_timeout_seconds" yaml:"probe_timeout_seconds" toml:"probe_timeout_seconds"`
	RequestTimeoutSeconds int  `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	ProceedOnTimeout      bool `json:"proceed_on_timeout" yaml:"proceed_on_timeout" toml:"proceed_on_timeout"`

	LogLevel    string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat   string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
