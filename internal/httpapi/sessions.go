package httpapi

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"plotbench/internal/history"
)

const defaultMaxSessions = 256

// sessionStore keeps the most recently used chat histories in memory. When
// dir is set, evicted sessions are saved there and reloaded on demand.
type sessionStore struct {
	cache *lru.Cache[string, *history.History]
	dir   string

	mu    sync.Mutex
	turns map[string]*turnLock
}

// turnLock serializes chat turns on one session. Entries live only while a
// turn holds or waits on them.
type turnLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionStore(size int, dir string) *sessionStore {
	if size <= 0 {
		size = defaultMaxSessions
	}
	s := &sessionStore{dir: dir, turns: make(map[string]*turnLock)}
	c, err := lru.NewWithEvict[string, *history.History](size, s.onEvict)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	s.cache = c
	return s
}

func (s *sessionStore) onEvict(id string, h *history.History) {
	chatSessionsEvicted.Inc()
	if s.dir == "" {
		return
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		zlog.Warn().Err(err).Str("session_id", id).Msg("session dir")
		return
	}
	if err := h.Save(s.path(id)); err != nil {
		zlog.Warn().Err(err).Str("session_id", id).Msg("save evicted session")
	}
}

func (s *sessionStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// get returns a cached session, falling back to a saved one.
func (s *sessionStore) get(id string) (*history.History, bool) {
	if id == "" {
		return nil, false
	}
	if h, ok := s.cache.Get(id); ok {
		return h, true
	}
	if s.dir == "" {
		return nil, false
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	h := history.New()
	if ok, _ := h.Load(s.path(id)); !ok {
		return nil, false
	}
	s.add(id, h)
	return h, true
}

// getOrCreate returns the session for id or a new one with a fresh id.
func (s *sessionStore) getOrCreate(id string) (string, *history.History) {
	if h, ok := s.get(id); ok {
		return id, h
	}
	id = uuid.NewString()
	h := history.New()
	h.SetSessionID(id)
	s.add(id, h)
	return id, h
}

// lockTurn blocks until no other turn runs on id and returns the release func.
func (s *sessionStore) lockTurn(id string) func() {
	s.mu.Lock()
	l, ok := s.turns[id]
	if !ok {
		l = &turnLock{}
		s.turns[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.turns, id)
		}
		s.mu.Unlock()
	}
}

func (s *sessionStore) add(id string, h *history.History) {
	s.cache.Add(id, h)
	chatSessions.Set(float64(s.cache.Len()))
}

// remove drops id from memory and disk.
func (s *sessionStore) remove(id string) bool {
	ok := s.cache.Contains(id)
	if ok {
		// Remove runs the eviction callback; drop the saved copy afterwards.
		s.cache.Remove(id)
	}
	if s.dir != "" {
		if _, err := uuid.Parse(id); err == nil {
			if err := os.Remove(s.path(id)); err == nil {
				ok = true
			}
		}
	}
	chatSessions.Set(float64(s.cache.Len()))
	return ok
}
