package prompts

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// FallbackPrompt is returned by CurrentPrompt when no entries are configured.
const FallbackPrompt = "You are a helpful assistant."

var rotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "plotbench",
	Subsystem: "prompts",
	Name:      "rotations_total",
	Help:      "Total number of system prompt rotations",
})

func init() {
	prometheus.MustRegister(rotationsTotal)
}

// Entry is one configured system prompt. Count is the interaction count below
// which the entry is current.
type Entry struct {
	Content string `json:"content" yaml:"content" toml:"content"`
	Count   int    `json:"count" yaml:"count" toml:"count"`
}

// Info is a read-only snapshot of the scheduler.
type Info struct {
	Index            int
	Content          string
	InteractionCount int
	// Threshold of the active entry; nil when there are no entries.
	Threshold *int
}

// Scheduler owns the prompt list, the active index and the interaction
// counter. It is safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	entries []Entry
	index   int
	count   int

	path string
	log  zerolog.Logger
}

// New returns a scheduler over entries. The slice is copied.
func New(entries []Entry) *Scheduler {
	return &Scheduler{entries: append([]Entry(nil), entries...), log: zerolog.Nop()}
}

// CurrentPrompt returns the content of the first entry whose threshold exceeds
// the interaction counter, or the last entry once every threshold has been
// reached. It records the matched entry as the active index.
func (s *Scheduler) CurrentPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return FallbackPrompt
	}
	for i, e := range s.entries {
		if s.count < e.Count {
			s.index = i
			return e.Content
		}
	}
	s.index = len(s.entries) - 1
	return s.entries[s.index].Content
}

// Increment advances the interaction counter. With more than one entry, once
// the counter reaches the active entry's threshold the active index moves to
// the next entry, wrapping to 0 after the last, and true is returned.
func (s *Scheduler) Increment() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	if len(s.entries) <= 1 {
		return false
	}
	if s.count < s.entries[s.index].Count {
		return false
	}
	from := s.index
	s.index = (s.index + 1) % len(s.entries)
	rotationsTotal.Inc()
	s.log.Info().Str("event", "prompt_rotated").Int("from", from).Int("to", s.index).Int("interactions", s.count).Msg("system prompt rotated")
	return true
}

// InteractionCount returns the number of recorded interactions.
func (s *Scheduler) InteractionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Info returns the active index, its content and threshold, and the counter.
func (s *Scheduler) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{Index: s.index, InteractionCount: s.count}
	if len(s.entries) == 0 {
		return info
	}
	e := s.entries[s.index]
	threshold := e.Count
	info.Content = e.Content
	info.Threshold = &threshold
	return info
}

// Entries returns a copy of the configured entries.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}
