package prompts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ConfigError reports a missing or malformed prompt configuration. Load
// recovers from it by regenerating the default document.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "prompt config"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// DefaultEntries returns the documented default: three prompts with
// ascending thresholds.
func DefaultEntries() []Entry {
	return []Entry{
		{Content: "You are a helpful assistant. Answer questions clearly and concisely.", Count: 5},
		{Content: "You are a technical expert. Provide detailed explanations and code examples when relevant.", Count: 10},
		{Content: "You are a creative writer. Respond with imaginative and engaging content.", Count: 15},
	}
}

// rawDocument mirrors the on-disk layout with pointers so that absent fields
// can be told apart from zero values.
type rawDocument struct {
	Prompts *[]rawEntry `json:"prompts" yaml:"prompts" toml:"prompts"`
}

type rawEntry struct {
	Content *string `json:"content" yaml:"content" toml:"content"`
	Count   *int    `json:"count" yaml:"count" toml:"count"`
}

type document struct {
	Prompts []Entry `json:"prompts" yaml:"prompts" toml:"prompts"`
}

// Parse decodes a prompt document. format is a file extension (".json",
// ".yaml", ".yml", ".toml"); anything else is treated as JSON.
func Parse(b []byte, format string) ([]Entry, error) {
	var doc rawDocument
	var err error
	switch strings.ToLower(format) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &doc)
	case ".toml":
		err = toml.Unmarshal(b, &doc)
	default:
		err = json.Unmarshal(b, &doc)
	}
	if err != nil {
		return nil, &ConfigError{Reason: "decode", Err: err}
	}
	if doc.Prompts == nil {
		return nil, &ConfigError{Reason: "configuration must have 'prompts' key with a list value"}
	}
	entries := make([]Entry, 0, len(*doc.Prompts))
	for i, r := range *doc.Prompts {
		if r.Content == nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("prompt at index %d must have 'content' field", i)}
		}
		if r.Count == nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("prompt at index %d must have 'count' field", i)}
		}
		entries = append(entries, Entry{Content: *r.Content, Count: *r.Count})
	}
	return entries, nil
}

// Encode renders entries in the format implied by the extension.
func Encode(entries []Entry, format string) ([]byte, error) {
	doc := document{Prompts: entries}
	switch strings.ToLower(format) {
	case ".yaml", ".yml":
		return yaml.Marshal(doc)
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	}
}

// ReadFile parses the prompt document at path. A missing file is reported as
// a *ConfigError as well.
func ReadFile(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Reason: "read", Err: err}
	}
	entries, err := Parse(b, filepath.Ext(path))
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return entries, nil
}

// WriteDefault writes DefaultEntries to path.
func WriteDefault(path string) error {
	b, err := Encode(DefaultEntries(), filepath.Ext(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}

// Load builds a scheduler from the document at path. A missing or malformed
// document is replaced by the default one; failures to write it are logged
// and the defaults are used in memory. Load never fails.
func Load(path string, log zerolog.Logger) *Scheduler {
	s := &Scheduler{path: path, log: log}
	s.entries = loadEntries(path, log)
	return s
}

func loadEntries(path string, log zerolog.Logger) []Entry {
	entries, err := ReadFile(path)
	if err == nil {
		log.Debug().Str("event", "config_loaded").Str("path", path).Int("prompts", len(entries)).Msg("prompt configuration loaded")
		return entries
	}
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", path).Msg("prompt configuration missing, creating default")
	} else {
		log.Warn().Err(err).Str("path", path).Msg("error loading prompt configuration, creating default")
	}
	if werr := WriteDefault(path); werr != nil {
		log.Error().Err(werr).Str("path", path).Msg("write default prompt configuration")
	} else {
		log.Info().Str("event", "config_regenerated").Str("path", path).Msg("created default prompt configuration")
	}
	return DefaultEntries()
}

// Reload re-reads the configuration source, when there is one, and resets
// the active index and the interaction counter.
func (s *Scheduler) Reload() {
	s.mu.Lock()
	path, log := s.path, s.log
	s.mu.Unlock()
	var entries []Entry
	if path != "" {
		entries = loadEntries(path, log)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if path != "" {
		s.entries = entries
	}
	s.index = 0
	s.count = 0
}

// SetLogger installs a logger used for rotation and reload events.
func (s *Scheduler) SetLogger(l zerolog.Logger) {
	s.mu.Lock()
	s.log = l
	s.mu.Unlock()
}
