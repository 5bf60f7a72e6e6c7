// Package history keeps an ordered chat transcript with a modification log.
package history

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"plotbench/pkg/types"
)

// Roles accepted by the chat completions endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Action names a modification recorded in the log.
type Action string

const (
	ActionAdded   Action = "added"
	ActionEdited  Action = "edited"
	ActionDeleted Action = "deleted"
)

// Message is one transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// LogEntry records one modification. Old is set for edits only.
type LogEntry struct {
	Action    Action    `json:"action"`
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	New       Message   `json:"new_data"`
	Old       *Message  `json:"old_data,omitempty"`
}

// History is safe for concurrent use.
type History struct {
	mu        sync.Mutex
	messages  []Message
	sessionID string
	log       []LogEntry
	now       func() time.Time
}

// New returns an empty history.
func New() *History { return &History{now: time.Now} }

// Add appends a message and returns its index.
func (h *History) Add(role, content string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := Message{ID: uuid.NewString(), Role: role, Content: content, Timestamp: h.now()}
	h.messages = append(h.messages, m)
	idx := len(h.messages) - 1
	h.record(ActionAdded, idx, m, nil)
	return idx
}

func (h *History) AddUser(content string) int      { return h.Add(RoleUser, content) }
func (h *History) AddAssistant(content string) int { return h.Add(RoleAssistant, content) }
func (h *History) AddSystem(content string) int    { return h.Add(RoleSystem, content) }

// Edit replaces the content and, when role is non-empty, the role of the
// message at index. It reports false for an out-of-range index.
func (h *History) Edit(index int, content, role string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 0 || index >= len(h.messages) {
		return false
	}
	old := h.messages[index]
	m := &h.messages[index]
	m.Content = content
	if role != "" {
		m.Role = role
	}
	m.UpdatedAt = h.now()
	h.record(ActionEdited, index, *m, &old)
	return true
}

// Delete removes the message at index.
func (h *History) Delete(index int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 0 || index >= len(h.messages) {
		return false
	}
	m := h.messages[index]
	h.messages = append(h.messages[:index], h.messages[index+1:]...)
	h.record(ActionDeleted, index, m, nil)
	return true
}

// Clear removes every message, logging each deletion.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, m := range h.messages {
		h.record(ActionDeleted, i, m, nil)
	}
	h.messages = nil
}

func (h *History) record(a Action, index int, m Message, old *Message) {
	h.log = append(h.log, LogEntry{Action: a, Index: index, Timestamp: h.now(), New: m, Old: old})
}

// Messages returns a copy of the transcript.
func (h *History) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message(nil), h.messages...)
}

// Message returns the message at index.
func (h *History) Message(index int) (Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 0 || index >= len(h.messages) {
		return Message{}, false
	}
	return h.messages[index], true
}

// Last returns the most recent message.
func (h *History) Last() (Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// ByRole returns messages with the given role.
func (h *History) ByRole(role string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Message
	for _, m := range h.messages {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Log returns a copy of the modification log.
func (h *History) Log() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LogEntry(nil), h.log...)
}

// MessageLog returns the log entries recorded against index, or nil when
// index is out of range.
func (h *History) MessageLog(index int) []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 0 || index >= len(h.messages) {
		return nil
	}
	var out []LogEntry
	for _, e := range h.log {
		if e.Index == index {
			out = append(out, e)
		}
	}
	return out
}

func (h *History) SetSessionID(id string) {
	h.mu.Lock()
	h.sessionID = id
	h.mu.Unlock()
}

func (h *History) SessionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessionID
}

// ChatMessages converts the transcript into request messages, with system
// prepended as the first message when non-empty.
func (h *History) ChatMessages(system string) []types.ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]types.ChatMessage, 0, len(h.messages)+1)
	if system != "" {
		out = append(out, types.ChatMessage{Role: RoleSystem, Content: system})
	}
	for _, m := range h.messages {
		out = append(out, types.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// Summary renders one "role: content" line per message, with content cut at
// 50 characters.
func (h *History) Summary() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) == 0 {
		return "No messages in conversation"
	}
	lines := make([]string, 0, len(h.messages))
	for _, m := range h.messages {
		c := m.Content
		if r := []rune(c); len(r) > 50 {
			c = string(r[:50]) + "..."
		}
		lines = append(lines, m.Role+": "+c)
	}
	return strings.Join(lines, "\n")
}

type snapshot struct {
	Messages  []Message `json:"messages"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Save writes messages and session id as indented JSON. The modification log
// is not persisted.
func (h *History) Save(path string) error {
	h.mu.Lock()
	snap := snapshot{Messages: append([]Message(nil), h.messages...), SessionID: h.sessionID, Timestamp: h.now()}
	h.mu.Unlock()
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Load replaces messages and session id from a file written by Save. It
// returns false, leaving the history untouched, when the file is missing or
// not valid JSON. The modification log is reset on success.
func (h *History) Load(path string) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return false, nil
	}
	h.mu.Lock()
	h.messages = snap.Messages
	h.sessionID = snap.SessionID
	h.log = nil
	h.mu.Unlock()
	return true, nil
}
