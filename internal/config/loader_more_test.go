package config

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestLoad_MissingFileIsNotExist(t *testing.T) {
	_, err := Load("/definitely/not/a/real/plotbench.yaml")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoad_WrongTypesNameTheFile(t *testing.T) {
	cases := map[string]string{
		"bad.yaml": "models_dir: /models\nport: [8188\n",
		"bad.json": `{"llama_bin":"/opt/llama-server","gpu_layers":"all"}`,
		"bad.toml": "startup_window_seconds = \"thirty\"\nproceed_on_timeout = true\n",
	}
	d := t.TempDir()
	for name, body := range cases {
		p := writeTempFile(t, d, name, body)
		_, err := Load(p)
		if err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
		if !strings.Contains(err.Error(), p) {
			t.Fatalf("%s: error does not name file: %v", name, err)
		}
	}
}

func TestLoad_ExtensionIsCaseInsensitive(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "plotbench.YML", "prompts_file: prompts/system.json\nport_start: 8200\nport_end: 8210\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PromptsFile != "prompts/system.json" || cfg.PortStart != 8200 || cfg.PortEnd != 8210 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoad_FileThenDefaultsKeepsExplicitValues(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "gpu_layers = 99\nhealth_timeout_seconds = 120\nlog_format = \"json\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg = cfg.WithDefaults()
	if cfg.GPULayers != 99 || cfg.HealthTimeoutSeconds != 120 || cfg.LogFormat != "json" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Port != DefaultPort || cfg.StartupWindowSeconds != DefaultStartupWindow {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}
