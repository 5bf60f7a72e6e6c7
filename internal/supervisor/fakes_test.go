package supervisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeClock advances its own time on every After call.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	t := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- t
	return ch
}

type fakeProcess struct {
	pid   int
	lines chan string
	done  chan struct{}

	mu         sync.Mutex
	code       int
	exited     bool
	terminated int
}

func newFakeProcess(pid int, lines ...string) *fakeProcess {
	p := &fakeProcess{pid: pid, lines: make(chan string, len(lines)+16), done: make(chan struct{})}
	for _, l := range lines {
		p.lines <- l
	}
	return p
}

func (p *fakeProcess) PID() int              { return p.pid }
func (p *fakeProcess) Lines() <-chan string  { return p.lines }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) ExitStatus() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code, p.exited
}

func (p *fakeProcess) exit(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return
	}
	p.exited = true
	p.code = code
	close(p.lines)
	close(p.done)
}

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	p.terminated++
	p.mu.Unlock()
	p.exit(-1)
	return nil
}

func (p *fakeProcess) terminations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

type fakeLauncher struct {
	mu    sync.Mutex
	specs []LaunchSpec
	procs []*fakeProcess
	next  func(spec LaunchSpec) (*fakeProcess, error)
}

func (l *fakeLauncher) Launch(_ context.Context, spec LaunchSpec) (Process, error) {
	p, err := l.next(spec)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs = append(l.specs, spec)
	if err != nil {
		return nil, err
	}
	l.procs = append(l.procs, p)
	return p, nil
}

func (l *fakeLauncher) launched() []*fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeProcess(nil), l.procs...)
}

// readyLauncher hands out processes whose first line signals readiness.
func readyLauncher() *fakeLauncher {
	pid := 1000
	return &fakeLauncher{next: func(LaunchSpec) (*fakeProcess, error) {
		pid++
		return newFakeProcess(pid, "llama_model_loader: loading tensors", "main: server listening on 0.0.0.0"), nil
	}}
}

// llamaStub serves /health with a switchable status and a canned completion.
type llamaStub struct {
	mu           sync.Mutex
	healthStatus int
	chatStatus   int
	chatBody     string
	healthHits   int
	lastChat     map[string]any
}

func newLlamaStub(t *testing.T) (*llamaStub, *httptest.Server, int) {
	t.Helper()
	st := &llamaStub{
		healthStatus: http.StatusOK,
		chatStatus:   http.StatusOK,
		chatBody:     `{"choices":[{"message":{"content":"a quiet red planet"},"finish_reason":"stop"}]}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st.mu.Lock()
		defer st.mu.Unlock()
		switch r.URL.Path {
		case "/health":
			st.healthHits++
			w.WriteHeader(st.healthStatus)
		case "/v1/chat/completions":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			st.lastChat = body
			w.WriteHeader(st.chatStatus)
			_, _ = w.Write([]byte(st.chatBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return st, srv, port
}

func (s *llamaStub) setHealth(code int) {
	s.mu.Lock()
	s.healthStatus = code
	s.mu.Unlock()
}

func (s *llamaStub) hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthHits
}

func (s *llamaStub) lastChatField(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.lastChat[key]
	return v, ok
}

func (s *llamaStub) setChat(code int, body string) {
	s.mu.Lock()
	s.chatStatus = code
	s.chatBody = body
	s.mu.Unlock()
}
