package supervisor

import (
	"plotbench/internal/common/fsutil"
)

// SanityReport describes runtime checks for external dependencies.
type SanityReport struct {
	LlamaFound      bool     `json:"llama_found"`
	LlamaPath       string   `json:"llama_path,omitempty"`
	ModelsDir       string   `json:"models_dir"`
	ModelsDirFound  bool     `json:"models_dir_found"`
	AvailableModels []string `json:"available_models"`
	MissingModels   []string `json:"missing_models,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// SanityCheck resolves the server binary and checks the models directory. It
// does not mutate state and is safe to call at any time.
func (s *Supervisor) SanityCheck() SanityReport {
	dir, err := fsutil.ExpandHome(s.cfg.ModelsDir)
	if err != nil {
		dir = s.cfg.ModelsDir
	}
	r := SanityReport{ModelsDir: dir, ModelsDirFound: fsutil.DirExists(dir), AvailableModels: []string{}}
	if p, err := fsutil.ResolveBinary(s.cfg.LlamaBin); err == nil {
		r.LlamaFound = true
		r.LlamaPath = p
	} else {
		r.LlamaPath = s.cfg.LlamaBin
		r.Error = err.Error()
	}
	avail, missing := s.cfg.Registry.Available(s.cfg.ModelsDir)
	for _, m := range avail {
		r.AvailableModels = append(r.AvailableModels, m.ID)
	}
	r.MissingModels = missing
	return r
}
