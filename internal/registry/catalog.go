package registry

import (
	"path/filepath"
	"sort"

	"plotbench/internal/common/fsutil"
	"plotbench/pkg/types"
)

// DefaultContextSize applies to catalog entries that omit a context size.
const DefaultContextSize = 16384

// builtinModels are the models known without any catalog file.
var builtinModels = []types.ModelConfig{
	{
		ID:             "qwen3_coder",
		File:           "Qwen3-Coder-30B-A3B-Instruct-UD-Q6_K_XL.gguf",
		Template:       "qwen2",
		Capabilities:   []string{"coding", "reasoning", "orchestration", "creative_writing"},
		VRAMEstimateGB: 28,
		ContextSize:    131072,
		Description:    "30.5B MoE model with 3.3B active params, excellent reasoning and creative abilities",
	},
	{
		ID:             "dark_reasoning",
		File:           "L3.1-MOE-4X8B-Dark-Reasoning-Super-Nova-RP-Hermes-R1-Uncensored-25B.Q8_0.gguf",
		Template:       "llama3",
		Capabilities:   []string{"creative_writing", "psychology", "reasoning", "mature_themes"},
		VRAMEstimateGB: 18,
		ContextSize:    16384,
		Description:    "25B MOE model optimized for creative writing and complex reasoning",
	},
	{
		ID:             "qwq_planet",
		File:           "QWQ-RPMax-Planet-32B-ablated.Q6_K.gguf",
		Template:       "qwen",
		Capabilities:   []string{"reasoning", "structure", "creative_writing", "coherence"},
		VRAMEstimateGB: 22,
		ContextSize:    32768,
		Description:    "32B ablated model with strong creative writing performance",
	},
	{
		ID:             "venice",
		File:           "venice_q6.gguf",
		Template:       "mistral",
		Capabilities:   []string{"dialogue", "creative_writing", "characters", "unrestricted"},
		VRAMEstimateGB: 16,
		ContextSize:    16384,
		Description:    "24B Venice model optimized for dialogue and character work",
	},
}

// Registry is an immutable set of model configurations keyed by id.
type Registry struct {
	models map[string]types.ModelConfig
	order  []string
}

// New builds a registry from cfgs. Later entries with a duplicate id replace
// earlier ones but keep the original position.
func New(cfgs ...types.ModelConfig) *Registry {
	r := &Registry{models: make(map[string]types.ModelConfig, len(cfgs))}
	for _, c := range cfgs {
		if c.ContextSize <= 0 {
			c.ContextSize = DefaultContextSize
		}
		c.Capabilities = append([]string(nil), c.Capabilities...)
		if _, seen := r.models[c.ID]; !seen {
			r.order = append(r.order, c.ID)
		}
		r.models[c.ID] = c
	}
	return r
}

// Builtin returns a registry holding the built-in models.
func Builtin() *Registry { return New(builtinModels...) }

// Merge returns a new registry with extra layered over r.
func (r *Registry) Merge(extra ...types.ModelConfig) *Registry {
	return New(append(r.List(), extra...)...)
}

// Get looks up a model by id.
func (r *Registry) Get(id string) (types.ModelConfig, bool) {
	c, ok := r.models[id]
	if ok {
		c.Capabilities = append([]string(nil), c.Capabilities...)
	}
	return c, ok
}

// List returns all models in registration order.
func (r *Registry) List() []types.ModelConfig {
	out := make([]types.ModelConfig, 0, len(r.order))
	for _, id := range r.order {
		c, _ := r.Get(id)
		out = append(out, c)
	}
	return out
}

// IDs returns sorted model ids.
func (r *Registry) IDs() []string {
	ids := append([]string(nil), r.order...)
	sort.Strings(ids)
	return ids
}

// ModelPath joins a model's file name onto modelsDir.
func ModelPath(modelsDir string, c types.ModelConfig) string {
	if filepath.IsAbs(c.File) {
		return c.File
	}
	dir, err := fsutil.ExpandHome(modelsDir)
	if err != nil {
		dir = modelsDir
	}
	return filepath.Join(dir, c.File)
}

// Available splits the registry into models whose file exists under
// modelsDir and the ids of those that are missing.
func (r *Registry) Available(modelsDir string) (available []types.ModelConfig, missing []string) {
	for _, c := range r.List() {
		if fsutil.FileExists(ModelPath(modelsDir, c)) {
			available = append(available, c)
		} else {
			missing = append(missing, c.ID)
		}
	}
	return available, missing
}
