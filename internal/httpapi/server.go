package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plotbench/internal/history"
	"plotbench/internal/prompts"
	"plotbench/internal/registry"
	"plotbench/internal/supervisor"
	"plotbench/pkg/types"
)

// Service defines the supervisor methods required by the HTTP API layer.
type Service interface {
	Start(ctx context.Context, model string, port int) (supervisor.ServerHandle, error)
	Stop() error
	Active() (supervisor.ServerHandle, bool)
	Status() types.StatusResponse
	Chat(ctx context.Context, req types.ChatRequest) (types.ChatResult, error)
	CheckLive(ctx context.Context) bool
	SanityCheck() supervisor.SanityReport
	Registry() *registry.Registry
	ModelsDir() string
}

// PromptScheduler is the system prompt rotation used by /chat.
type PromptScheduler interface {
	CurrentPrompt() string
	Increment() bool
	Info() prompts.Info
	Reload()
}

// Options configures NewMux.
type Options struct {
	// Prompts may be nil, in which case /chat sends no system prompt.
	Prompts PromptScheduler
	// DefaultPort is used when POST /server/start omits the port.
	DefaultPort int
	MaxSessions int
	// SessionsDir persists evicted chat sessions when set.
	SessionsDir string
}

type api struct {
	svc      Service
	prompts  PromptScheduler
	port     int
	sessions *sessionStore
}

func NewMux(svc Service, opts Options) http.Handler {
	a := &api{
		svc:      svc,
		prompts:  opts.Prompts,
		port:     opts.DefaultPort,
		sessions: newSessionStore(opts.MaxSessions, opts.SessionsDir),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: orDefault(corsAllowedOrigins, []string{"*"}),
			AllowedMethods: orDefault(corsAllowedMethods, []string{"GET", "POST", "DELETE", "OPTIONS"}),
			AllowedHeaders: orDefault(corsAllowedHeaders, []string{"Content-Type", "X-Request-Id", "X-Log-Level"}),
			MaxAge:         300,
		}))
	}

	r.Get("/models", a.handleModels)
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, svc.Status()) })
	r.Get("/sanity", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, svc.SanityCheck()) })
	r.Post("/server/start", a.handleStart)
	r.Post("/server/stop", a.handleStop)
	r.Post("/chat", a.handleChat)
	r.Get("/sessions/{id}", a.handleGetSession)
	r.Delete("/sessions/{id}", a.handleDeleteSession)
	r.Get("/prompt", a.handlePrompt)
	r.Post("/prompt/reload", a.handlePromptReload)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.CheckLive(r.Context()) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no active server"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	return r
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

// decodeJSON enforces the content type and body limit. It writes the error
// response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (a *api) handleModels(w http.ResponseWriter, r *http.Request) {
	reg := a.svc.Registry()
	if r.URL.Query().Get("available") == "1" {
		avail, missing := reg.Available(a.svc.ModelsDir())
		if avail == nil {
			avail = []types.ModelConfig{}
		}
		writeJSON(w, types.ModelsResponse{Models: avail, Missing: missing})
		return
	}
	writeJSON(w, types.ModelsResponse{Models: reg.List()})
}

func (a *api) handleStart(w http.ResponseWriter, r *http.Request) {
	var req types.StartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		writeJSONError(w, http.StatusBadRequest, "model is required")
		return
	}
	if req.Port < 0 || req.Port > 65535 {
		writeJSONError(w, http.StatusBadRequest, "port out of range")
		return
	}
	port := req.Port
	if port == 0 {
		port = a.port
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, "start")

	ctx, cancel := handlerContext(r, startTimeout)
	defer cancel()
	h, err := a.svc.Start(ctx, req.Model, port)
	if err != nil {
		code := statusFor(err)
		writeJSONError(w, code, err.Error())
		logEnd(r, lvl, "start", code, start, err)
		return
	}
	writeJSON(w, serverStatus(h))
	logEnd(r, lvl, "start", http.StatusOK, start, nil)
}

func serverStatus(h supervisor.ServerHandle) types.ServerStatus {
	return types.ServerStatus{
		ModelID:         h.Model.ID,
		Port:            h.Port,
		PID:             h.PID(),
		BaseURL:         h.BaseURL,
		StartedUnix:     h.StartedAt.Unix(),
		StartupLogLines: len(h.StartupLog),
	}
}

func (a *api) handleStop(w http.ResponseWriter, r *http.Request) {
	_, wasActive := a.svc.Active()
	if err := a.svc.Stop(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, types.StopResponse{Stopped: wasActive})
}

func (a *api) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatTurnRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, "chat")

	id, hist := a.sessions.getOrCreate(req.SessionID)
	// One turn at a time per session; the rollback below relies on it.
	unlock := a.sessions.lockTurn(id)
	defer unlock()
	idx := hist.AddUser(req.Message)
	system := ""
	if a.prompts != nil {
		system = a.prompts.CurrentPrompt()
	}

	ctx, cancel := handlerContext(r, 0)
	defer cancel()
	res, err := a.svc.Chat(ctx, types.ChatRequest{
		Messages:    hist.ChatMessages(system),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		// Keep the transcript to completed turns only.
		hist.Delete(idx)
		if abandoned(r) {
			return
		}
		code := statusFor(err)
		writeJSONError(w, code, err.Error())
		logEnd(r, lvl, "chat", code, start, err)
		return
	}
	hist.AddAssistant(res.Content)
	resp := types.ChatTurnResponse{SessionID: id, Result: res}
	if a.prompts != nil {
		resp.Rotated = a.prompts.Increment()
		resp.Prompt = promptInfo(a.prompts.Info())
	}
	writeJSON(w, resp)
	logEnd(r, lvl, "chat", http.StatusOK, start, nil)
}

func (a *api) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h, ok := a.sessions.get(id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "session not found: "+id)
		return
	}
	writeJSON(w, sessionResponse(id, h))
}

func sessionResponse(id string, h *history.History) types.SessionResponse {
	return types.SessionResponse{SessionID: id, Messages: h.ChatMessages(""), Summary: h.Summary()}
}

func (a *api) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !a.sessions.remove(id) {
		writeJSONError(w, http.StatusNotFound, "session not found: "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func promptInfo(i prompts.Info) types.PromptInfo {
	return types.PromptInfo{Index: i.Index, Content: i.Content, InteractionCount: i.InteractionCount, NextPromptCount: i.Threshold}
}

func (a *api) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if a.prompts == nil {
		writeJSONError(w, http.StatusNotFound, "prompt scheduler not configured")
		return
	}
	writeJSON(w, promptInfo(a.prompts.Info()))
}

func (a *api) handlePromptReload(w http.ResponseWriter, r *http.Request) {
	if a.prompts == nil {
		writeJSONError(w, http.StatusNotFound, "prompt scheduler not configured")
		return
	}
	a.prompts.Reload()
	writeJSON(w, promptInfo(a.prompts.Info()))
}
