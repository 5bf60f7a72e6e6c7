package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"plotbench/internal/common/fsutil"
	"plotbench/pkg/types"
)

// catalogFile is the on-disk layout of a model catalog.
type catalogFile struct {
	Models []types.ModelConfig `json:"models" yaml:"models" toml:"models"`
}

// LoadCatalog reads model configurations from a .yaml/.yml, .json or .toml
// file. Every entry needs an id and a file name.
func LoadCatalog(path string) ([]types.ModelConfig, error) {
	if path == "" {
		return nil, fmt.Errorf("empty catalog path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var cf catalogFile
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cf)
	case ".json":
		err = json.Unmarshal(b, &cf)
	case ".toml":
		err = toml.Unmarshal(b, &cf)
	default:
		return nil, fmt.Errorf("unsupported catalog extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", p, err)
	}
	for i, m := range cf.Models {
		if strings.TrimSpace(m.ID) == "" {
			return nil, fmt.Errorf("catalog entry %d: missing id", i)
		}
		if strings.TrimSpace(m.File) == "" {
			return nil, fmt.Errorf("catalog entry %q: missing file", m.ID)
		}
	}
	return cf.Models, nil
}

// ScanUnregistered lists *.gguf files in dir that no registry entry points at.
func (r *Registry) ScanUnregistered(dir string) ([]string, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	known := make(map[string]bool, len(r.order))
	for _, c := range r.models {
		known[filepath.Base(c.File)] = true
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") || known[name] {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}
