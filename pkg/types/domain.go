package types

// ModelConfig describes one launchable model. Values are registered once and
// never mutated afterwards.
type ModelConfig struct {
	// Stable identifier used to start the model.
	// example: venice
	ID string `json:"id" yaml:"id" toml:"id" example:"venice"`
	// Model file name, relative to the models directory.
	// example: venice_q6.gguf
	File string `json:"file" yaml:"file" toml:"file" example:"venice_q6.gguf"`
	// Prompt template tag understood by the server.
	// example: mistral
	Template string `json:"template" yaml:"template" toml:"template" example:"mistral"`
	// Capability tags.
	// example: ["dialogue","creative_writing"]
	Capabilities []string `json:"capabilities" yaml:"capabilities" toml:"capabilities"`
	// Estimated VRAM usage in GB.
	// example: 16
	VRAMEstimateGB int `json:"vram_estimate_gb" yaml:"vram_estimate_gb" toml:"vram_estimate_gb" example:"16"`
	// Context window in tokens.
	// example: 16384
	ContextSize int `json:"context_size" yaml:"context_size" toml:"context_size" example:"16384"`
	// Human description.
	Description string `json:"description,omitempty" yaml:"description" toml:"description"`
}

// ChatMessage is a single role/content pair of a chat completion request.
type ChatMessage struct {
	// example: user
	Role string `json:"role" example:"user"`
	// example: Write a haiku about the ocean.
	Content string `json:"content" example:"Write a haiku about the ocean."`
}
